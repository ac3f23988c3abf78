package repository

import (
	"context"

	"rockae/internal/models"
	"rockae/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForumRepository defines persistence operations for forums, posts, attachments and likes.
type ForumRepository interface {
	Create(ctx context.Context, forum *models.Forum) error
	Update(ctx context.Context, forum *models.Forum) error
	GetByID(ctx context.Context, id uint) (*models.Forum, error)
	GetByName(ctx context.Context, communityID uint, name string) (*models.Forum, error)
	List(ctx context.Context, communityID uint) ([]models.Forum, error)
	ReplacePlans(ctx context.Context, forum *models.Forum, plans []models.PaymentPlan) error

	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	ListPosts(ctx context.Context, forumID uint, limit, offset int) ([]models.Post, error)
	ListReplies(ctx context.Context, postID uint) ([]models.Post, error)
	DeletePost(ctx context.Context, id uint) error
	AddAttachment(ctx context.Context, a *models.PostAttachment) error

	Like(ctx context.Context, postID, userID uint) error
	Unlike(ctx context.Context, postID, userID uint) error
	CountLikes(ctx context.Context, postID uint) (int64, error)
}

type forumRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewForumRepository returns a new ForumRepository implementation.
func NewForumRepository(db *gorm.DB) ForumRepository {
	return &forumRepository{db: db, log: observability.NewRepoLogger("Forum")}
}

func (r *forumRepository) Create(ctx context.Context, forum *models.Forum) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(forum).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return writeError(err, "A forum with this name already exists in this community.")
	}
	r.log.LogCreate(ctx, map[string]any{"id": forum.ID, "community_id": forum.CommunityID})
	return nil
}

func (r *forumRepository) Update(ctx context.Context, forum *models.Forum) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Save(forum).Error; err != nil {
		return writeError(err, "A forum with this name already exists in this community.")
	}
	r.log.LogUpdate(ctx, map[string]any{"id": forum.ID})
	return nil
}

func (r *forumRepository) GetByID(ctx context.Context, id uint) (*models.Forum, error) {
	var f models.Forum
	if err := conn(ctx, r.db).Preload("PaymentPlans").First(&f, id).Error; err != nil {
		return nil, readError(err, "Forum", id)
	}
	return &f, nil
}

// GetByName returns nil, nil when the community has no forum of that name.
func (r *forumRepository) GetByName(ctx context.Context, communityID uint, name string) (*models.Forum, error) {
	var f models.Forum
	found, err := findOne(conn(ctx, r.db), &f, "community_id = ? AND name = ?", communityID, name)
	if err != nil || !found {
		return nil, err
	}
	return &f, nil
}

func (r *forumRepository) List(ctx context.Context, communityID uint) ([]models.Forum, error) {
	var out []models.Forum
	if err := conn(ctx, r.db).Where("community_id = ?", communityID).Order("created_at").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *forumRepository) ReplacePlans(ctx context.Context, forum *models.Forum, plans []models.PaymentPlan) error {
	if err := conn(ctx, r.db).Model(forum).Association("PaymentPlans").Replace(plans); err != nil {
		return models.NewInternalError(err)
	}
	forum.PaymentPlans = plans
	return nil
}

func (r *forumRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(post).Error, "Could not save post.")
}

func (r *forumRepository) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var p models.Post
	if err := conn(ctx, r.db).First(&p, id).Error; err != nil {
		return nil, readError(err, "Post", id)
	}
	return &p, nil
}

// ListPosts returns top-level posts, newest first.
func (r *forumRepository) ListPosts(ctx context.Context, forumID uint, limit, offset int) ([]models.Post, error) {
	var out []models.Post
	err := conn(ctx, r.db).Preload("User").
		Where("forum_id = ? AND parent_post_id IS NULL", forumID).
		Order("created_at DESC").Limit(pageBounds(limit)).Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *forumRepository) ListReplies(ctx context.Context, postID uint) ([]models.Post, error) {
	var out []models.Post
	err := conn(ctx, r.db).Preload("User").Where("parent_post_id = ?", postID).Order("created_at").Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *forumRepository) DeletePost(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.Post{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *forumRepository) AddAttachment(ctx context.Context, a *models.PostAttachment) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(a).Error, "Could not save attachment.")
}

func (r *forumRepository) Like(ctx context.Context, postID, userID uint) error {
	like := models.PostLike{PostID: postID, UserID: userID}
	return writeError(conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error, "Post already liked.")
}

func (r *forumRepository) Unlike(ctx context.Context, postID, userID uint) error {
	err := conn(ctx, r.db).Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *forumRepository) CountLikes(ctx context.Context, postID uint) (int64, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
