package repository

import (
	"context"

	"rockae/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PublicFeedRepository defines persistence operations for public feed posts.
type PublicFeedRepository interface {
	Create(ctx context.Context, feed *models.PublicFeed) error
	GetByID(ctx context.Context, id uint) (*models.PublicFeed, error)
	List(ctx context.Context, communityID uint, limit, offset int) ([]models.PublicFeed, error)
	ListReplies(ctx context.Context, feedID uint) ([]models.PublicFeed, error)
	Delete(ctx context.Context, id uint) error
	AddAttachment(ctx context.Context, a *models.PublicFeedAttachment) error
	Like(ctx context.Context, feedID, userID uint) error
	Unlike(ctx context.Context, feedID, userID uint) error
	CountLikes(ctx context.Context, feedID uint) (int64, error)
}

type publicFeedRepository struct {
	db *gorm.DB
}

func NewPublicFeedRepository(db *gorm.DB) PublicFeedRepository {
	return &publicFeedRepository{db: db}
}

func (r *publicFeedRepository) Create(ctx context.Context, feed *models.PublicFeed) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(feed).Error, "Could not save post.")
}

func (r *publicFeedRepository) GetByID(ctx context.Context, id uint) (*models.PublicFeed, error) {
	var f models.PublicFeed
	if err := conn(ctx, r.db).First(&f, id).Error; err != nil {
		return nil, readError(err, "PublicFeed", id)
	}
	return &f, nil
}

func (r *publicFeedRepository) List(ctx context.Context, communityID uint, limit, offset int) ([]models.PublicFeed, error) {
	var out []models.PublicFeed
	err := conn(ctx, r.db).Preload("PostedBy").
		Where("community_id = ? AND parent_feed_id IS NULL", communityID).
		Order("created_at DESC").Limit(pageBounds(limit)).Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *publicFeedRepository) ListReplies(ctx context.Context, feedID uint) ([]models.PublicFeed, error) {
	var out []models.PublicFeed
	if err := conn(ctx, r.db).Preload("PostedBy").Where("parent_feed_id = ?", feedID).Order("created_at").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *publicFeedRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.PublicFeed{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("PublicFeed", id)
	}
	return nil
}

func (r *publicFeedRepository) AddAttachment(ctx context.Context, a *models.PublicFeedAttachment) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(a).Error, "Could not save attachment.")
}

func (r *publicFeedRepository) Like(ctx context.Context, feedID, userID uint) error {
	like := models.PublicFeedLike{PublicFeedID: feedID, UserID: userID}
	return writeError(conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error, "Post already liked.")
}

func (r *publicFeedRepository) Unlike(ctx context.Context, feedID, userID uint) error {
	if err := conn(ctx, r.db).Where("public_feed_id = ? AND user_id = ?", feedID, userID).Delete(&models.PublicFeedLike{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *publicFeedRepository) CountLikes(ctx context.Context, feedID uint) (int64, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&models.PublicFeedLike{}).Where("public_feed_id = ?", feedID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
