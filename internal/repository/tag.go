package repository

import (
	"context"

	"rockae/internal/models"

	"gorm.io/gorm"
)

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	GetOrCreate(ctx context.Context, name, slug string) (*models.Tag, error)
	List(ctx context.Context) ([]models.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) GetOrCreate(ctx context.Context, name, slug string) (*models.Tag, error) {
	tag := models.Tag{Name: name, Slug: slug}
	if err := conn(ctx, r.db).Where(models.Tag{Slug: slug}).FirstOrCreate(&tag).Error; err != nil {
		return nil, writeError(err, "A tag with that slug already exists.")
	}
	return &tag, nil
}

func (r *tagRepository) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := conn(ctx, r.db).Order("name").Find(&tags).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}
