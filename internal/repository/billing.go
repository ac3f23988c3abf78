package repository

import (
	"context"
	"database/sql"
	"time"

	"rockae/internal/models"
	"rockae/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BillingRepository defines persistence operations for tiers, subscriptions,
// payment transactions and storage usage.
type BillingRepository interface {
	UpsertTier(ctx context.Context, tier *models.AppSubscriptionTier) error
	GetTier(ctx context.Context, id uint) (*models.AppSubscriptionTier, error)
	GetTierByName(ctx context.Context, name models.TierName) (*models.AppSubscriptionTier, error)
	ListActiveTiers(ctx context.Context) ([]models.AppSubscriptionTier, error)

	CreateAppSubscription(ctx context.Context, s *models.AppSubscription) error
	UpdateAppSubscription(ctx context.Context, s *models.AppSubscription) error
	GetAppSubscription(ctx context.Context, id uint) (*models.AppSubscription, error)
	GetActiveAppSubscription(ctx context.Context, userID uint, now time.Time) (*models.AppSubscription, error)

	CreateMemberSubscription(ctx context.Context, s *models.CommunityMemberSubscription) error
	UpdateMemberSubscription(ctx context.Context, s *models.CommunityMemberSubscription) error
	GetMemberSubscription(ctx context.Context, id uint) (*models.CommunityMemberSubscription, error)
	FindMemberSubscription(ctx context.Context, communityID, userID uint) (*models.CommunityMemberSubscription, error)

	CreateTransaction(ctx context.Context, t *models.PaymentTransaction) error
	UpdateTransaction(ctx context.Context, t *models.PaymentTransaction) error
	GetTransaction(ctx context.Context, id uint) (*models.PaymentTransaction, error)
	GetTransactionByIntent(ctx context.Context, intentID string) (*models.PaymentTransaction, error)

	CreateStorageUsage(ctx context.Context, u *models.StorageUsage) error
	DeleteStorageUsage(ctx context.Context, ownerID uint, filePath string) (int64, error)
	StorageUsedBytes(ctx context.Context, ownerID uint) (int64, error)
}

type billingRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewBillingRepository returns a new BillingRepository implementation.
func NewBillingRepository(db *gorm.DB) BillingRepository {
	return &billingRepository{db: db, log: observability.NewRepoLogger("Billing")}
}

// UpsertTier inserts the tier or refreshes every column of the row with the same tier_name.
func (r *billingRepository) UpsertTier(ctx context.Context, tier *models.AppSubscriptionTier) error {
	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tier_name"}},
		UpdateAll: true,
	}).Create(tier).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *billingRepository) GetTier(ctx context.Context, id uint) (*models.AppSubscriptionTier, error) {
	var t models.AppSubscriptionTier
	if err := conn(ctx, r.db).First(&t, id).Error; err != nil {
		return nil, readError(err, "AppSubscriptionTier", id)
	}
	return &t, nil
}

func (r *billingRepository) GetTierByName(ctx context.Context, name models.TierName) (*models.AppSubscriptionTier, error) {
	var t models.AppSubscriptionTier
	found, err := findOne(conn(ctx, r.db), &t, "tier_name = ?", name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.NewNotFoundError("AppSubscriptionTier", name)
	}
	return &t, nil
}

func (r *billingRepository) ListActiveTiers(ctx context.Context) ([]models.AppSubscriptionTier, error) {
	var out []models.AppSubscriptionTier
	if err := conn(ctx, r.db).Where("is_active = ?", true).Order("price").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *billingRepository) CreateAppSubscription(ctx context.Context, s *models.AppSubscription) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(s).Error; err != nil {
		return writeError(err, "Could not create subscription.")
	}
	r.log.LogCreate(ctx, map[string]any{"app_subscription_id": s.ID, "user_id": s.UserID})
	return nil
}

func (r *billingRepository) UpdateAppSubscription(ctx context.Context, s *models.AppSubscription) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Save(s).Error; err != nil {
		return writeError(err, "Could not update subscription.")
	}
	r.log.LogUpdate(ctx, map[string]any{"app_subscription_id": s.ID, "status": s.Status})
	return nil
}

func (r *billingRepository) GetAppSubscription(ctx context.Context, id uint) (*models.AppSubscription, error) {
	var s models.AppSubscription
	if err := conn(ctx, r.db).Preload("Tier").First(&s, id).Error; err != nil {
		return nil, readError(err, "AppSubscription", id)
	}
	return &s, nil
}

// GetActiveAppSubscription returns the newest active, unexpired subscription, or nil, nil.
func (r *billingRepository) GetActiveAppSubscription(ctx context.Context, userID uint, now time.Time) (*models.AppSubscription, error) {
	var s models.AppSubscription
	found, err := findOne(conn(ctx, r.db).Preload("Tier").Order("subscribed_at DESC"), &s,
		"user_id = ? AND status = ? AND (expires_at IS NULL OR expires_at >= ?)",
		userID, models.SubscriptionActive, now)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

func (r *billingRepository) CreateMemberSubscription(ctx context.Context, s *models.CommunityMemberSubscription) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(s).Error; err != nil {
		return writeError(err, "You already have a subscription for this community.")
	}
	r.log.LogCreate(ctx, map[string]any{"member_subscription_id": s.ID, "community_id": s.CommunityID})
	return nil
}

func (r *billingRepository) UpdateMemberSubscription(ctx context.Context, s *models.CommunityMemberSubscription) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Save(s).Error; err != nil {
		return writeError(err, "You already have a subscription for this community.")
	}
	r.log.LogUpdate(ctx, map[string]any{"member_subscription_id": s.ID, "status": s.Status})
	return nil
}

func (r *billingRepository) GetMemberSubscription(ctx context.Context, id uint) (*models.CommunityMemberSubscription, error) {
	var s models.CommunityMemberSubscription
	if err := conn(ctx, r.db).Preload("PaymentPlan").First(&s, id).Error; err != nil {
		return nil, readError(err, "CommunityMemberSubscription", id)
	}
	return &s, nil
}

// FindMemberSubscription returns nil, nil when the user has no subscription in the community.
func (r *billingRepository) FindMemberSubscription(ctx context.Context, communityID, userID uint) (*models.CommunityMemberSubscription, error) {
	var s models.CommunityMemberSubscription
	found, err := findOne(conn(ctx, r.db).Preload("PaymentPlan"), &s, "community_id = ? AND user_id = ?", communityID, userID)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

func (r *billingRepository) CreateTransaction(ctx context.Context, t *models.PaymentTransaction) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(t).Error; err != nil {
		return writeError(err, "A transaction for this payment intent already exists.")
	}
	r.log.LogCreate(ctx, map[string]any{"transaction_id": t.ID, "type": t.TransactionType})
	return nil
}

func (r *billingRepository) UpdateTransaction(ctx context.Context, t *models.PaymentTransaction) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Save(t).Error; err != nil {
		return writeError(err, "A transaction for this payment intent already exists.")
	}
	r.log.LogUpdate(ctx, map[string]any{"transaction_id": t.ID, "status": t.Status})
	return nil
}

func (r *billingRepository) GetTransaction(ctx context.Context, id uint) (*models.PaymentTransaction, error) {
	var t models.PaymentTransaction
	if err := conn(ctx, r.db).First(&t, id).Error; err != nil {
		return nil, readError(err, "PaymentTransaction", id)
	}
	return &t, nil
}

func (r *billingRepository) GetTransactionByIntent(ctx context.Context, intentID string) (*models.PaymentTransaction, error) {
	var t models.PaymentTransaction
	found, err := findOne(conn(ctx, r.db), &t, "stripe_payment_intent_id = ?", intentID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.NewNotFoundError("PaymentTransaction", intentID)
	}
	return &t, nil
}

func (r *billingRepository) CreateStorageUsage(ctx context.Context, u *models.StorageUsage) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(u).Error, "Could not record storage usage.")
}

func (r *billingRepository) DeleteStorageUsage(ctx context.Context, ownerID uint, filePath string) (int64, error) {
	res := conn(ctx, r.db).Where("owner_id = ? AND file_path = ?", ownerID, filePath).Delete(&models.StorageUsage{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *billingRepository) StorageUsedBytes(ctx context.Context, ownerID uint) (int64, error) {
	var total sql.NullInt64
	err := conn(ctx, r.db).Model(&models.StorageUsage{}).
		Where("owner_id = ?", ownerID).
		Select("SUM(file_size)").Row().Scan(&total)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return total.Int64, nil
}
