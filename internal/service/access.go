package service

import (
	"context"
	"slices"

	"rockae/internal/models"
	"rockae/internal/repository"
)

// AccessService decides whether a member may open plan-restricted content
// such as forums, classrooms, meetings, polls and quizzes.
type AccessService struct {
	members repository.MembershipRepository
	billing repository.BillingRepository
}

func NewAccessService(members repository.MembershipRepository, billing repository.BillingRepository) *AccessService {
	return &AccessService{members: members, billing: billing}
}

// CanAccess reports whether userID may access content limited to allowedPlans.
// Members holding one of bypassRoles always pass. Without bypassRoles the staff
// roles are used. Content with no allowed plans is open to every active member.
func (s *AccessService) CanAccess(ctx context.Context, userID, communityID uint, allowedPlans []models.PaymentPlan, bypassRoles ...models.MemberRole) (bool, error) {
	member, err := s.members.Get(ctx, communityID, userID)
	if err != nil {
		return false, err
	}
	if member == nil || member.IsBlocked || member.Role == models.RoleApplicant {
		return false, nil
	}

	if len(bypassRoles) == 0 {
		bypassRoles = StaffRoles
	}
	if slices.Contains(bypassRoles, member.Role) {
		return true, nil
	}
	if len(allowedPlans) == 0 {
		return true, nil
	}

	sub, err := s.billing.FindMemberSubscription(ctx, communityID, userID)
	if err != nil {
		return false, err
	}
	if sub == nil || !sub.IsActive(now()) {
		return false, nil
	}
	return slices.ContainsFunc(allowedPlans, func(p models.PaymentPlan) bool {
		return p.ID == sub.PaymentPlanID
	}), nil
}

// RequireAccess is CanAccess returning a forbidden error instead of false.
func (s *AccessService) RequireAccess(ctx context.Context, userID, communityID uint, allowedPlans []models.PaymentPlan, bypassRoles ...models.MemberRole) error {
	ok, err := s.CanAccess(ctx, userID, communityID, allowedPlans, bypassRoles...)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewForbiddenError("Your payment plan does not include this content.")
	}
	return nil
}
