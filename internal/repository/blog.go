package repository

import (
	"context"

	"rockae/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlogRepository defines persistence operations for platform and community blog posts.
type BlogRepository interface {
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	CreatePost(ctx context.Context, post *models.BlogPost) error
	UpdatePost(ctx context.Context, post *models.BlogPost) error
	GetPost(ctx context.Context, id uint) (*models.BlogPost, error)
	GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	ListPosts(ctx context.Context, limit, offset int) ([]models.BlogPost, error)

	CommunitySlugExists(ctx context.Context, communityID uint, slug string, excludeID uint) (bool, error)
	CreateCommunityPost(ctx context.Context, post *models.CommunityBlogPost) error
	UpdateCommunityPost(ctx context.Context, post *models.CommunityBlogPost) error
	GetCommunityPost(ctx context.Context, id uint) (*models.CommunityBlogPost, error)
	GetCommunityPostBySlug(ctx context.Context, communityID uint, slug string) (*models.CommunityBlogPost, error)
	ListCommunityPosts(ctx context.Context, communityID uint, limit, offset int) ([]models.CommunityBlogPost, error)

	CreateReply(ctx context.Context, reply *models.CommunityBlogPostReply) error
	ListReplies(ctx context.Context, postID uint) ([]models.CommunityBlogPostReply, error)
}

type blogRepository struct {
	db *gorm.DB
}

func NewBlogRepository(db *gorm.DB) BlogRepository {
	return &blogRepository{db: db}
}

func (r *blogRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	q := conn(ctx, r.db).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	return exists(q, &models.BlogPost{})
}

func (r *blogRepository) CreatePost(ctx context.Context, post *models.BlogPost) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(post).Error, "A blog post with this slug already exists.")
}

func (r *blogRepository) UpdatePost(ctx context.Context, post *models.BlogPost) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Save(post).Error, "A blog post with this slug already exists.")
}

func (r *blogRepository) GetPost(ctx context.Context, id uint) (*models.BlogPost, error) {
	var p models.BlogPost
	if err := conn(ctx, r.db).Preload("Writer").First(&p, id).Error; err != nil {
		return nil, readError(err, "BlogPost", id)
	}
	return &p, nil
}

func (r *blogRepository) GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var p models.BlogPost
	found, err := findOne(conn(ctx, r.db).Preload("Writer"), &p, "slug = ?", slug)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.NewNotFoundError("BlogPost", slug)
	}
	return &p, nil
}

func (r *blogRepository) ListPosts(ctx context.Context, limit, offset int) ([]models.BlogPost, error) {
	var out []models.BlogPost
	err := conn(ctx, r.db).Order("created_at DESC").Limit(pageBounds(limit)).Offset(offset).Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *blogRepository) CommunitySlugExists(ctx context.Context, communityID uint, slug string, excludeID uint) (bool, error) {
	q := conn(ctx, r.db).Where("community_id = ? AND slug = ?", communityID, slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	return exists(q, &models.CommunityBlogPost{})
}

func (r *blogRepository) CreateCommunityPost(ctx context.Context, post *models.CommunityBlogPost) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(post).Error, "A blog post with this slug already exists in this community.")
}

func (r *blogRepository) UpdateCommunityPost(ctx context.Context, post *models.CommunityBlogPost) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Save(post).Error, "A blog post with this slug already exists in this community.")
}

func (r *blogRepository) GetCommunityPost(ctx context.Context, id uint) (*models.CommunityBlogPost, error) {
	var p models.CommunityBlogPost
	if err := conn(ctx, r.db).Preload("Writer").First(&p, id).Error; err != nil {
		return nil, readError(err, "CommunityBlogPost", id)
	}
	return &p, nil
}

func (r *blogRepository) GetCommunityPostBySlug(ctx context.Context, communityID uint, slug string) (*models.CommunityBlogPost, error) {
	var p models.CommunityBlogPost
	found, err := findOne(conn(ctx, r.db).Preload("Writer"), &p, "community_id = ? AND slug = ?", communityID, slug)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.NewNotFoundError("CommunityBlogPost", slug)
	}
	return &p, nil
}

func (r *blogRepository) ListCommunityPosts(ctx context.Context, communityID uint, limit, offset int) ([]models.CommunityBlogPost, error) {
	var out []models.CommunityBlogPost
	err := conn(ctx, r.db).Where("community_id = ?", communityID).
		Order("created_at DESC").Limit(pageBounds(limit)).Offset(offset).Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *blogRepository) CreateReply(ctx context.Context, reply *models.CommunityBlogPostReply) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(reply).Error, "Could not save reply.")
}

func (r *blogRepository) ListReplies(ctx context.Context, postID uint) ([]models.CommunityBlogPostReply, error) {
	var out []models.CommunityBlogPostReply
	err := conn(ctx, r.db).Preload("User").Where("community_blog_post_id = ?", postID).Order("created_at").Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
