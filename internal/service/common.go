// Package service provides application business logic for communities and their features.
package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"rockae/internal/models"
	"rockae/internal/repository"
	"rockae/internal/validation"
)

// StaffRoles may moderate community content and bypass plan restrictions.
var StaffRoles = []models.MemberRole{models.RoleOwner, models.RoleCoOwner, models.RoleModerator}

// ManagerRoles may change community settings, plans and roles.
var ManagerRoles = []models.MemberRole{models.RoleOwner, models.RoleCoOwner}

// now is the service clock. Times are stored in UTC.
func now() time.Time {
	return time.Now().UTC()
}

// requireRole loads the caller's membership and checks it is active and holds one of roles.
// An empty roles list accepts any non-applicant member.
func requireRole(ctx context.Context, members repository.MembershipRepository, communityID, userID uint, roles ...models.MemberRole) (*models.CommunityMember, error) {
	m, err := members.Get(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.Role == models.RoleApplicant {
		return nil, models.NewForbiddenError("You are not a member of this community.")
	}
	if m.IsBlocked {
		return nil, models.NewForbiddenError("You have been blocked from this community.")
	}
	if len(roles) > 0 && !slices.Contains(roles, m.Role) {
		return nil, models.NewForbiddenError(fmt.Sprintf("This action requires one of the roles: %s.", joinRoles(roles)))
	}
	return m, nil
}

func joinRoles(roles []models.MemberRole) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// resolvePlans loads the plans in ids and fails unless all of them belong to the community.
func resolvePlans(ctx context.Context, plans repository.PlanRepository, communityID uint, ids []uint) ([]models.PaymentPlan, error) {
	if len(ids) == 0 {
		return []models.PaymentPlan{}, nil
	}
	found, err := plans.FindInCommunity(ctx, communityID, ids)
	if err != nil {
		return nil, err
	}
	want := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	if len(found) != len(want) {
		return nil, models.NewFieldValidationError("payment_plans", "Every payment plan must belong to this community.")
	}
	return found, nil
}

func ptr[T any](v T) *T {
	return &v
}

func derefOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// tagSlug derives a tag slug, keeping the lowercased name when nothing survives slugification.
func tagSlug(name string) string {
	name = trimmed(name)
	return validation.SlugOrPlaceholder(name, strings.ToLower(name))
}
