package repository

import (
	"context"

	"rockae/internal/models"
	"rockae/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlanRepository defines persistence operations for payment plans, user plan
// choices and featured content.
type PlanRepository interface {
	GetByID(ctx context.Context, id uint) (*models.PaymentPlan, error)
	GetByName(ctx context.Context, communityID uint, name string) (*models.PaymentPlan, error)
	NameExists(ctx context.Context, communityID uint, name string, excludeID uint) (bool, error)
	Create(ctx context.Context, plan *models.PaymentPlan) error
	Update(ctx context.Context, plan *models.PaymentPlan) error
	List(ctx context.Context, communityID uint, activeOnly bool) ([]models.PaymentPlan, error)
	FindInCommunity(ctx context.Context, communityID uint, ids []uint) ([]models.PaymentPlan, error)

	UpsertUserPlan(ctx context.Context, up *models.UserPaymentPlan) error
	GetUserPlan(ctx context.Context, communityID, userID uint) (*models.UserPaymentPlan, error)

	CreateFeatured(ctx context.Context, fc *models.CommunityFeaturedContent) error
	UpdateFeatured(ctx context.Context, fc *models.CommunityFeaturedContent) error
	GetFeatured(ctx context.Context, id uint) (*models.CommunityFeaturedContent, error)
	ListActiveFeatured(ctx context.Context, communityID uint) ([]models.CommunityFeaturedContent, error)
}

type planRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPlanRepository returns a new PlanRepository implementation.
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db, log: observability.NewRepoLogger("PaymentPlan")}
}

func (r *planRepository) GetByID(ctx context.Context, id uint) (*models.PaymentPlan, error) {
	var p models.PaymentPlan
	if err := conn(ctx, r.db).First(&p, id).Error; err != nil {
		return nil, readError(err, "PaymentPlan", id)
	}
	return &p, nil
}

// GetByName returns nil, nil when no plan of that name exists in the community.
func (r *planRepository) GetByName(ctx context.Context, communityID uint, name string) (*models.PaymentPlan, error) {
	var p models.PaymentPlan
	found, err := findOne(conn(ctx, r.db), &p, "community_id = ? AND name = ?", communityID, name)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (r *planRepository) NameExists(ctx context.Context, communityID uint, name string, excludeID uint) (bool, error) {
	q := conn(ctx, r.db).Where("community_id = ? AND name = ?", communityID, name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	return exists(q, &models.PaymentPlan{})
}

func (r *planRepository) Create(ctx context.Context, plan *models.PaymentPlan) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(plan).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return writeError(err, "A payment plan with this name already exists in this community.")
	}
	r.log.LogCreate(ctx, map[string]any{"id": plan.ID, "community_id": plan.CommunityID})
	return nil
}

func (r *planRepository) Update(ctx context.Context, plan *models.PaymentPlan) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Save(plan).Error; err != nil {
		r.log.LogError(ctx, err, "update")
		return writeError(err, "A payment plan with this name already exists in this community.")
	}
	r.log.LogUpdate(ctx, map[string]any{"id": plan.ID})
	return nil
}

func (r *planRepository) List(ctx context.Context, communityID uint, activeOnly bool) ([]models.PaymentPlan, error) {
	q := conn(ctx, r.db).Where("community_id = ?", communityID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []models.PaymentPlan
	if err := q.Order("fee").Order("name").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// FindInCommunity loads the plans in ids that belong to communityID.
func (r *planRepository) FindInCommunity(ctx context.Context, communityID uint, ids []uint) ([]models.PaymentPlan, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.PaymentPlan
	if err := conn(ctx, r.db).Where("community_id = ? AND id IN ?", communityID, ids).Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// UpsertUserPlan inserts the user's plan choice or overwrites the existing one for the community.
func (r *planRepository) UpsertUserPlan(ctx context.Context, up *models.UserPaymentPlan) error {
	err := conn(ctx, r.db).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "community_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payment_plan_id", "subscribed_at", "expires_at", "is_active"}),
	}).Create(up).Error
	return writeError(err, "Could not assign the payment plan.")
}

func (r *planRepository) GetUserPlan(ctx context.Context, communityID, userID uint) (*models.UserPaymentPlan, error) {
	var up models.UserPaymentPlan
	found, err := findOne(conn(ctx, r.db).Preload("PaymentPlan"), &up, "community_id = ? AND user_id = ?", communityID, userID)
	if err != nil || !found {
		return nil, err
	}
	return &up, nil
}

func (r *planRepository) CreateFeatured(ctx context.Context, fc *models.CommunityFeaturedContent) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(fc).Error, "Could not save featured content.")
}

func (r *planRepository) UpdateFeatured(ctx context.Context, fc *models.CommunityFeaturedContent) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Save(fc).Error, "Could not save featured content.")
}

func (r *planRepository) GetFeatured(ctx context.Context, id uint) (*models.CommunityFeaturedContent, error) {
	var fc models.CommunityFeaturedContent
	if err := conn(ctx, r.db).First(&fc, id).Error; err != nil {
		return nil, readError(err, "CommunityFeaturedContent", id)
	}
	return &fc, nil
}

func (r *planRepository) ListActiveFeatured(ctx context.Context, communityID uint) ([]models.CommunityFeaturedContent, error) {
	var out []models.CommunityFeaturedContent
	err := conn(ctx, r.db).
		Where("community_id = ? AND is_active = ?", communityID, true).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}}).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
