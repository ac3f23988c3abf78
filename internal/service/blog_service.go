package service

import (
	"context"

	"rockae/internal/models"
	"rockae/internal/repository"
	"rockae/internal/validation"
)

// BlogService manages platform articles and community blog posts.
type BlogService struct {
	blogs   repository.BlogRepository
	members repository.MembershipRepository
}

func NewBlogService(blogs repository.BlogRepository, members repository.MembershipRepository) *BlogService {
	return &BlogService{blogs: blogs, members: members}
}

// BlogPostInput is shared by platform and community posts.
type BlogPostInput struct {
	Title       string  `json:"title" validate:"max=255"`
	Description *string `json:"description"`
	BlogMessage string  `json:"blog_message" validate:"required"`
	ImageURL    *string `json:"image_url" validate:"omitempty,max=200"`
}

// CreatePost publishes a platform article. The slug is derived from the title
// and made globally unique.
func (s *BlogService) CreatePost(ctx context.Context, writerID *uint, input BlogPostInput) (*models.BlogPost, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	post := &models.BlogPost{WriterID: writerID}
	applyBlogInput(&post.Title, &post.Description, &post.BlogMessage, &post.ImageURL, input)

	slug, err := s.postSlug(ctx, post.Title, 0)
	if err != nil {
		return nil, err
	}
	post.Slug = slug
	if err := s.blogs.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdatePost edits a platform article. The slug is kept so published links
// stay valid; a post without one gets a fresh slug.
func (s *BlogService) UpdatePost(ctx context.Context, id uint, input BlogPostInput) (*models.BlogPost, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	post, err := s.blogs.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	applyBlogInput(&post.Title, &post.Description, &post.BlogMessage, &post.ImageURL, input)
	if post.Slug == "" {
		if post.Slug, err = s.postSlug(ctx, post.Title, post.ID); err != nil {
			return nil, err
		}
	}
	if err := s.blogs.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *BlogService) GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	return s.blogs.GetPostBySlug(ctx, slug)
}

func (s *BlogService) ListPosts(ctx context.Context, limit, offset int) ([]models.BlogPost, error) {
	return s.blogs.ListPosts(ctx, limit, offset)
}

func (s *BlogService) postSlug(ctx context.Context, title string, excludeID uint) (string, error) {
	base := validation.TimestampedSlug(title, models.BlogPostSlugPlaceholder, now())
	slug, err := validation.UniqueSlug(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
		return s.blogs.SlugExists(ctx, candidate, excludeID)
	})
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return slug, nil
}

// CreateCommunityPost publishes a community article written by staff.
// Slugs are unique within the community.
func (s *BlogService) CreateCommunityPost(ctx context.Context, writerID, communityID uint, input BlogPostInput) (*models.CommunityBlogPost, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, communityID, writerID, StaffRoles...); err != nil {
		return nil, err
	}
	post := &models.CommunityBlogPost{CommunityID: communityID, WriterID: ptr(writerID)}
	applyBlogInput(&post.Title, &post.Description, &post.BlogMessage, &post.ImageURL, input)

	slug, err := s.communityPostSlug(ctx, communityID, post.Title, 0)
	if err != nil {
		return nil, err
	}
	post.Slug = slug
	if err := s.blogs.CreateCommunityPost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdateCommunityPost edits a community article under the same slug rules as UpdatePost.
func (s *BlogService) UpdateCommunityPost(ctx context.Context, actorID, id uint, input BlogPostInput) (*models.CommunityBlogPost, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	post, err := s.blogs.GetCommunityPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, post.CommunityID, actorID, StaffRoles...); err != nil {
		return nil, err
	}
	applyBlogInput(&post.Title, &post.Description, &post.BlogMessage, &post.ImageURL, input)
	if post.Slug == "" {
		if post.Slug, err = s.communityPostSlug(ctx, post.CommunityID, post.Title, post.ID); err != nil {
			return nil, err
		}
	}
	if err := s.blogs.UpdateCommunityPost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *BlogService) GetCommunityPostBySlug(ctx context.Context, communityID uint, slug string) (*models.CommunityBlogPost, error) {
	return s.blogs.GetCommunityPostBySlug(ctx, communityID, slug)
}

func (s *BlogService) ListCommunityPosts(ctx context.Context, communityID uint, limit, offset int) ([]models.CommunityBlogPost, error) {
	return s.blogs.ListCommunityPosts(ctx, communityID, limit, offset)
}

func (s *BlogService) communityPostSlug(ctx context.Context, communityID uint, title string, excludeID uint) (string, error) {
	base := validation.TimestampedSlug(title, models.CommunityBlogPostSlugPlaceholder, now())
	slug, err := validation.UniqueSlug(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
		return s.blogs.CommunitySlugExists(ctx, communityID, candidate, excludeID)
	})
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return slug, nil
}

// Reply comments on a community blog post. Any signed-in user may reply.
func (s *BlogService) Reply(ctx context.Context, userID, postID uint, message string) (*models.CommunityBlogPostReply, error) {
	message = trimmed(message)
	if message == "" {
		return nil, models.NewFieldValidationError("message", "This field is required.")
	}
	if _, err := s.blogs.GetCommunityPost(ctx, postID); err != nil {
		return nil, err
	}
	reply := &models.CommunityBlogPostReply{
		CommunityBlogPostID: postID,
		UserID:              userID,
		Message:             message,
	}
	if err := s.blogs.CreateReply(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *BlogService) ListReplies(ctx context.Context, postID uint) ([]models.CommunityBlogPostReply, error) {
	return s.blogs.ListReplies(ctx, postID)
}

func applyBlogInput(title *string, description **string, message *string, image **string, input BlogPostInput) {
	*title = trimmed(input.Title)
	*description = input.Description
	*message = input.BlogMessage
	*image = input.ImageURL
}
