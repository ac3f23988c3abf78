package repository

import (
	"context"

	"rockae/internal/models"
	"rockae/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommunityRepository defines persistence operations for communities and their likes.
type CommunityRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Community, error)
	GetByAlias(ctx context.Context, alias string) (*models.Community, error)
	AliasExists(ctx context.Context, alias string, excludeID uint) (bool, error)
	Create(ctx context.Context, community *models.Community) error
	Update(ctx context.Context, community *models.Community) error
	ReplaceTags(ctx context.Context, community *models.Community, tags []models.Tag) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.Community, error)

	Like(ctx context.Context, communityID, userID uint) error
	Unlike(ctx context.Context, communityID, userID uint) error
	CountLikes(ctx context.Context, communityID uint) (int64, error)
}

type communityRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommunityRepository returns a new CommunityRepository implementation.
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db, log: observability.NewRepoLogger("Community")}
}

func (r *communityRepository) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	var c models.Community
	if err := conn(ctx, r.db).Preload("Tags").First(&c, id).Error; err != nil {
		return nil, readError(err, "Community", id)
	}
	return &c, nil
}

func (r *communityRepository) GetByAlias(ctx context.Context, alias string) (*models.Community, error) {
	var c models.Community
	found, err := findOne(conn(ctx, r.db).Preload("Tags"), &c, "alias = ?", alias)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.NewNotFoundError("Community", alias)
	}
	return &c, nil
}

func (r *communityRepository) AliasExists(ctx context.Context, alias string, excludeID uint) (bool, error) {
	q := conn(ctx, r.db).Where("alias = ?", alias)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	return exists(q, &models.Community{})
}

func (r *communityRepository) Create(ctx context.Context, community *models.Community) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(community).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return writeError(err, "A community with that alias already exists.")
	}
	r.log.LogCreate(ctx, map[string]any{"id": community.ID, "alias": community.Alias})
	return nil
}

func (r *communityRepository) Update(ctx context.Context, community *models.Community) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Save(community).Error; err != nil {
		r.log.LogError(ctx, err, "update")
		return writeError(err, "A community with that alias already exists.")
	}
	r.log.LogUpdate(ctx, map[string]any{"id": community.ID})
	return nil
}

func (r *communityRepository) ReplaceTags(ctx context.Context, community *models.Community, tags []models.Tag) error {
	if err := conn(ctx, r.db).Model(community).Association("Tags").Replace(tags); err != nil {
		return models.NewInternalError(err)
	}
	community.Tags = tags
	return nil
}

func (r *communityRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.Community{}, id)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Community", id)
	}
	r.log.LogDelete(ctx, map[string]any{"id": id})
	return nil
}

func (r *communityRepository) List(ctx context.Context, limit, offset int) ([]models.Community, error) {
	var out []models.Community
	if err := conn(ctx, r.db).Order("created_at DESC").Limit(pageBounds(limit)).Offset(offset).Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *communityRepository) Like(ctx context.Context, communityID, userID uint) error {
	like := models.CommunityLike{CommunityID: communityID, UserID: userID}
	err := conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error
	return writeError(err, "Community already liked.")
}

func (r *communityRepository) Unlike(ctx context.Context, communityID, userID uint) error {
	err := conn(ctx, r.db).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.CommunityLike{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *communityRepository) CountLikes(ctx context.Context, communityID uint) (int64, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&models.CommunityLike{}).Where("community_id = ?", communityID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
