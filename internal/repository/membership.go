package repository

import (
	"context"

	"rockae/internal/models"
	"rockae/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MembershipRepository defines persistence operations for community members.
type MembershipRepository interface {
	Get(ctx context.Context, communityID, userID uint) (*models.CommunityMember, error)
	GetOwner(ctx context.Context, communityID uint) (*models.CommunityMember, error)
	Create(ctx context.Context, member *models.CommunityMember) error
	Update(ctx context.Context, member *models.CommunityMember) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, communityID uint, role models.MemberRole) ([]models.CommunityMember, error)
	AreMembers(ctx context.Context, communityID uint, userIDs []uint) (bool, error)
}

type membershipRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewMembershipRepository returns a new MembershipRepository implementation.
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db, log: observability.NewRepoLogger("CommunityMember")}
}

// Get returns nil, nil when the user is not a member.
func (r *membershipRepository) Get(ctx context.Context, communityID, userID uint) (*models.CommunityMember, error) {
	var m models.CommunityMember
	found, err := findOne(conn(ctx, r.db), &m, "community_id = ? AND user_id = ?", communityID, userID)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

// GetOwner returns the owner row with its user loaded, or nil when the community has none.
func (r *membershipRepository) GetOwner(ctx context.Context, communityID uint) (*models.CommunityMember, error) {
	var m models.CommunityMember
	found, err := findOne(conn(ctx, r.db).Preload("User"), &m,
		"community_id = ? AND role = ?", communityID, models.RoleOwner)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

func (r *membershipRepository) Create(ctx context.Context, member *models.CommunityMember) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(member).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return writeError(err, "This user is already a member of the community, or the community already has an owner.")
	}
	r.log.LogCreate(ctx, map[string]any{"community_id": member.CommunityID, "user_id": member.UserID, "role": member.Role})
	return nil
}

func (r *membershipRepository) Update(ctx context.Context, member *models.CommunityMember) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Save(member).Error; err != nil {
		r.log.LogError(ctx, err, "update")
		return writeError(err, "A community can only have one owner.")
	}
	r.log.LogUpdate(ctx, map[string]any{"id": member.ID, "role": member.Role})
	return nil
}

func (r *membershipRepository) Delete(ctx context.Context, id uint) error {
	if err := conn(ctx, r.db).Delete(&models.CommunityMember{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]any{"id": id})
	return nil
}

// List returns members ordered by join date. An empty role lists everyone.
func (r *membershipRepository) List(ctx context.Context, communityID uint, role models.MemberRole) ([]models.CommunityMember, error) {
	q := conn(ctx, r.db).Preload("User").Where("community_id = ?", communityID)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var out []models.CommunityMember
	if err := q.Order("joined_at").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// AreMembers reports whether every user in userIDs is an unblocked, non-applicant member.
func (r *membershipRepository) AreMembers(ctx context.Context, communityID uint, userIDs []uint) (bool, error) {
	unique := make(map[uint]struct{}, len(userIDs))
	for _, id := range userIDs {
		unique[id] = struct{}{}
	}
	var n int64
	err := conn(ctx, r.db).Model(&models.CommunityMember{}).
		Where("community_id = ? AND user_id IN ? AND is_blocked = ? AND role <> ?",
			communityID, userIDs, false, models.RoleApplicant).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n == int64(len(unique)), nil
}
