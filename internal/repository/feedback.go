package repository

import (
	"context"

	"rockae/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedbackRepository defines persistence operations for ratings and leave reasons.
type FeedbackRepository interface {
	Upsert(ctx context.Context, fb *models.CommunityFeedback) error
	Get(ctx context.Context, communityID, userID uint) (*models.CommunityFeedback, error)
	List(ctx context.Context, communityID uint) ([]models.CommunityFeedback, error)
	AverageRating(ctx context.Context, communityID uint) (float64, int64, error)

	CreateLeaveReason(ctx context.Context, lr *models.CommunityLeaveReason) error
	ListLeaveReasons(ctx context.Context, communityID uint) ([]models.CommunityLeaveReason, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

// Upsert keeps one row per (user, community), overwriting rating and message.
func (r *feedbackRepository) Upsert(ctx context.Context, fb *models.CommunityFeedback) error {
	err := conn(ctx, r.db).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "community_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "message", "updated_at"}),
	}).Create(fb).Error
	return writeError(err, "Could not save feedback.")
}

// Get returns nil, nil when the user has not rated the community.
func (r *feedbackRepository) Get(ctx context.Context, communityID, userID uint) (*models.CommunityFeedback, error) {
	var fb models.CommunityFeedback
	found, err := findOne(conn(ctx, r.db), &fb, "community_id = ? AND user_id = ?", communityID, userID)
	if err != nil || !found {
		return nil, err
	}
	return &fb, nil
}

func (r *feedbackRepository) List(ctx context.Context, communityID uint) ([]models.CommunityFeedback, error) {
	var out []models.CommunityFeedback
	if err := conn(ctx, r.db).Where("community_id = ?", communityID).Order("updated_at DESC").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// AverageRating returns the mean rating and the number of ratings. The mean is 0 with no ratings.
func (r *feedbackRepository) AverageRating(ctx context.Context, communityID uint) (float64, int64, error) {
	var row struct {
		Avg   *float64
		Count int64
	}
	err := conn(ctx, r.db).Model(&models.CommunityFeedback{}).
		Select("AVG(rating) AS avg, COUNT(*) AS count").
		Where("community_id = ?", communityID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	if row.Avg == nil {
		return 0, row.Count, nil
	}
	return *row.Avg, row.Count, nil
}

func (r *feedbackRepository) CreateLeaveReason(ctx context.Context, lr *models.CommunityLeaveReason) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(lr).Error, "Could not record leave reason.")
}

func (r *feedbackRepository) ListLeaveReasons(ctx context.Context, communityID uint) ([]models.CommunityLeaveReason, error) {
	var out []models.CommunityLeaveReason
	if err := conn(ctx, r.db).Where("community_id = ?", communityID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
