package service

import (
	"context"
	"fmt"
	"log/slog"

	"rockae/internal/models"
	"rockae/internal/observability"
	"rockae/internal/repository"
	"rockae/internal/validation"
)

// MembershipService provides joining, moderation and role management for community members.
type MembershipService struct {
	tx          repository.Transactor
	communities repository.CommunityRepository
	members     repository.MembershipRepository
	users       repository.UserRepository
	feedback    repository.FeedbackRepository
}

// NewMembershipService returns a new MembershipService.
func NewMembershipService(
	tx repository.Transactor,
	communities repository.CommunityRepository,
	members repository.MembershipRepository,
	users repository.UserRepository,
	feedback repository.FeedbackRepository,
) *MembershipService {
	return &MembershipService{
		tx:          tx,
		communities: communities,
		members:     members,
		users:       users,
		feedback:    feedback,
	}
}

// Join adds userID to the community. Open communities admit members directly,
// closed ones record an applicant for staff to approve.
func (s *MembershipService) Join(ctx context.Context, userID, communityID uint) (*models.CommunityMember, error) {
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}

	existing, err := s.members.Get(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch {
		case existing.IsBlocked:
			return nil, models.NewForbiddenError("You have been blocked from this community.")
		case existing.Role == models.RoleApplicant:
			return nil, models.NewValidationError("Your application is already pending.")
		default:
			return nil, models.NewValidationError("You are already a member of this community.")
		}
	}

	role := models.RoleApplicant
	if community.IsOpen {
		role = models.RoleMember
	}
	member := &models.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
		Role:        role,
		JoinedAt:    now(),
	}
	if community.IsOpen {
		member.ApprovedAt = ptr(member.JoinedAt)
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventMembershipChanged)
	return member, nil
}

// ApproveApplicant promotes a pending applicant to member.
func (s *MembershipService) ApproveApplicant(ctx context.Context, actorID, communityID, userID uint) (*models.CommunityMember, error) {
	if _, err := requireRole(ctx, s.members, communityID, actorID, StaffRoles...); err != nil {
		return nil, err
	}
	member, err := s.getMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if member.Role != models.RoleApplicant {
		return nil, models.NewValidationError("This user has no pending application.")
	}

	member.Role = models.RoleMember
	member.ApprovedAt = ptr(now())
	member.ApprovedByID = ptr(actorID)
	if err := s.members.Update(ctx, member); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventMembershipChanged)
	return member, nil
}

// RejectApplicant removes a pending application.
func (s *MembershipService) RejectApplicant(ctx context.Context, actorID, communityID, userID uint) error {
	if _, err := requireRole(ctx, s.members, communityID, actorID, StaffRoles...); err != nil {
		return err
	}
	member, err := s.getMember(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if member.Role != models.RoleApplicant {
		return models.NewValidationError("This user has no pending application.")
	}
	return s.members.Delete(ctx, member.ID)
}

// ChangeRole sets the role of userID. Only owners and co-owners may change roles,
// and at most one member can hold the owner role.
func (s *MembershipService) ChangeRole(ctx context.Context, actorID, communityID, userID uint, role models.MemberRole) (*models.CommunityMember, error) {
	if !role.Valid() || role == models.RoleApplicant {
		return nil, models.NewFieldValidationError("role", fmt.Sprintf("%q is not a valid role.", role))
	}
	if _, err := requireRole(ctx, s.members, communityID, actorID, ManagerRoles...); err != nil {
		return nil, err
	}

	member, err := s.getMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if member.Role == models.RoleApplicant {
		return nil, models.NewValidationError("Approve the application before assigning a role.")
	}
	if member.Role == models.RoleOwner && role != models.RoleOwner {
		return nil, models.NewValidationError("Transfer ownership before changing the owner's role.")
	}
	if role == models.RoleOwner {
		if err := s.EnsureSingleOwner(ctx, communityID, member.ID); err != nil {
			return nil, err
		}
	}

	member.Role = role
	if err := s.members.Update(ctx, member); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventMembershipChanged)
	return member, nil
}

// EnsureSingleOwner fails when another row of the community, other than
// excludeMemberID, already holds the owner role. The error names the owner.
func (s *MembershipService) EnsureSingleOwner(ctx context.Context, communityID, excludeMemberID uint) error {
	owner, err := s.members.GetOwner(ctx, communityID)
	if err != nil {
		return err
	}
	if owner == nil || owner.ID == excludeMemberID {
		return nil
	}
	email := "another member"
	if owner.User != nil {
		email = owner.User.Email
	}
	return models.NewFieldValidationError("role",
		fmt.Sprintf("A community can only have one owner. %s is already the owner.", email))
}

// TransferOwnership hands the owner role to newOwnerID. The previous owner becomes a co-owner.
func (s *MembershipService) TransferOwnership(ctx context.Context, actorID, communityID, newOwnerID uint) (err error) {
	span, ctx := observability.StartServiceSpan(ctx, "membership", "TransferOwnership")
	defer span.Finish(&err)

	if actorID == newOwnerID {
		return models.NewValidationError("You already own this community.")
	}
	current, err := requireRole(ctx, s.members, communityID, actorID, models.RoleOwner)
	if err != nil {
		return err
	}
	next, err := s.getMember(ctx, communityID, newOwnerID)
	if err != nil {
		return err
	}
	if next.IsBlocked || next.Role == models.RoleApplicant {
		return models.NewValidationError("Ownership can only be given to an active member.")
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current.Role = models.RoleCoOwner
		if err := s.members.Update(ctx, current); err != nil {
			return err
		}
		next.Role = models.RoleOwner
		return s.members.Update(ctx, next)
	})
	if err != nil {
		return err
	}

	observability.RecordEvent(observability.EventOwnershipTransferred)
	observability.Logger.InfoContext(ctx, "community ownership transferred",
		slog.Uint64("community_id", uint64(communityID)),
		slog.Uint64("from_user_id", uint64(actorID)),
		slog.Uint64("to_user_id", uint64(newOwnerID)),
	)
	return nil
}

// Block bars userID from the community. The owner cannot be blocked and
// moderators may not block other staff.
func (s *MembershipService) Block(ctx context.Context, actorID, communityID, userID uint) (*models.CommunityMember, error) {
	if actorID == userID {
		return nil, models.NewValidationError("You cannot block yourself.")
	}
	actor, err := requireRole(ctx, s.members, communityID, actorID, StaffRoles...)
	if err != nil {
		return nil, err
	}
	member, err := s.getMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if member.Role == models.RoleOwner {
		return nil, models.NewForbiddenError("The owner cannot be blocked.")
	}
	if member.Role.IsStaff() && actor.Role == models.RoleModerator {
		return nil, models.NewForbiddenError("Moderators cannot block other staff members.")
	}
	if member.IsBlocked {
		return member, nil
	}

	member.IsBlocked = true
	member.BlockedAt = ptr(now())
	member.BlockedByID = ptr(actorID)
	if err := s.members.Update(ctx, member); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventMembershipChanged)
	return member, nil
}

// Unblock lifts a block.
func (s *MembershipService) Unblock(ctx context.Context, actorID, communityID, userID uint) (*models.CommunityMember, error) {
	if _, err := requireRole(ctx, s.members, communityID, actorID, StaffRoles...); err != nil {
		return nil, err
	}
	member, err := s.getMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if !member.IsBlocked {
		return member, nil
	}

	member.IsBlocked = false
	member.BlockedAt = nil
	member.BlockedByID = nil
	if err := s.members.Update(ctx, member); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventMembershipChanged)
	return member, nil
}

// LeaveInput is the exit survey collected when a member leaves.
type LeaveInput struct {
	Reason      string `json:"reason" validate:"required,max=5000"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=50"`
}

// Leave records why userID is leaving and removes the membership. Owners must
// transfer ownership first.
func (s *MembershipService) Leave(ctx context.Context, userID, communityID uint, input LeaveInput) error {
	input.Reason = trimmed(input.Reason)
	if err := validation.Struct(input); err != nil {
		return err
	}
	member, err := s.getMember(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if member.Role == models.RoleOwner {
		return models.NewValidationError("The owner cannot leave the community. Transfer ownership first.")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	reason := &models.CommunityLeaveReason{
		CommunityID: communityID,
		UserID:      ptr(userID),
		Email:       user.Email,
		PhoneNumber: input.PhoneNumber,
		Reason:      input.Reason,
	}
	profile, err := s.users.GetProfile(ctx, userID)
	switch {
	case err == nil:
		reason.FirstName = profile.FirstName
		reason.LastName = profile.LastName
		reason.MiddleName = derefOr(profile.MiddleName, "")
		if reason.PhoneNumber == "" {
			reason.PhoneNumber = derefOr(profile.PhoneNumber, "")
		}
	case !models.IsCode(err, models.CodeNotFound):
		return err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.feedback.CreateLeaveReason(ctx, reason); err != nil {
			return err
		}
		return s.members.Delete(ctx, member.ID)
	})
	if err != nil {
		return err
	}
	observability.RecordEvent(observability.EventMembershipChanged)
	return nil
}

// ListMembers returns the members of a community, optionally filtered by role.
func (s *MembershipService) ListMembers(ctx context.Context, communityID uint, role models.MemberRole) ([]models.CommunityMember, error) {
	if role != "" && !role.Valid() {
		return nil, models.NewFieldValidationError("role", fmt.Sprintf("%q is not a valid role.", role))
	}
	return s.members.List(ctx, communityID, role)
}

func (s *MembershipService) getMember(ctx context.Context, communityID, userID uint) (*models.CommunityMember, error) {
	member, err := s.members.Get(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, models.NewNotFoundError("Community member", userID)
	}
	return member, nil
}
