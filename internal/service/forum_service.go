package service

import (
	"context"

	"rockae/internal/models"
	"rockae/internal/repository"
	"rockae/internal/validation"
)

// ForumService provides forum and post business logic.
type ForumService struct {
	tx          repository.Transactor
	communities repository.CommunityRepository
	members     repository.MembershipRepository
	plans       repository.PlanRepository
	forums      repository.ForumRepository
	access      *AccessService
}

// NewForumService returns a new ForumService.
func NewForumService(
	tx repository.Transactor,
	communities repository.CommunityRepository,
	members repository.MembershipRepository,
	plans repository.PlanRepository,
	forums repository.ForumRepository,
	access *AccessService,
) *ForumService {
	return &ForumService{
		tx:          tx,
		communities: communities,
		members:     members,
		plans:       plans,
		forums:      forums,
		access:      access,
	}
}

// ForumInput describes a forum. PaymentPlanIDs limits access; empty means every member.
type ForumInput struct {
	Name            string  `json:"name" validate:"required,max=255"`
	Description     *string `json:"description"`
	RestrictPosting bool    `json:"restrict_posting_to_owners_moderators"`
	PaymentPlanIDs  []uint  `json:"payment_plans"`
}

// CreateForum adds a forum. Names are unique within a community.
func (s *ForumService) CreateForum(ctx context.Context, actorID, communityID uint, input ForumInput) (*models.Forum, error) {
	input.Name = trimmed(input.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, communityID, actorID, ManagerRoles...); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, communityID, input.Name, 0); err != nil {
		return nil, err
	}
	plans, err := resolvePlans(ctx, s.plans, communityID, input.PaymentPlanIDs)
	if err != nil {
		return nil, err
	}

	forum := &models.Forum{
		CommunityID:                       communityID,
		Name:                              input.Name,
		Description:                       input.Description,
		RestrictPostingToOwnersModerators: input.RestrictPosting,
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.forums.Create(ctx, forum); err != nil {
			return err
		}
		return s.forums.ReplacePlans(ctx, forum, plans)
	})
	if err != nil {
		return nil, err
	}
	return forum, nil
}

func (s *ForumService) UpdateForum(ctx context.Context, actorID, forumID uint, input ForumInput) (*models.Forum, error) {
	input.Name = trimmed(input.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	forum, err := s.forums.GetByID(ctx, forumID)
	if err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, forum.CommunityID, actorID, ManagerRoles...); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, forum.CommunityID, input.Name, forum.ID); err != nil {
		return nil, err
	}
	plans, err := resolvePlans(ctx, s.plans, forum.CommunityID, input.PaymentPlanIDs)
	if err != nil {
		return nil, err
	}

	forum.Name = input.Name
	forum.Description = input.Description
	forum.RestrictPostingToOwnersModerators = input.RestrictPosting
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.forums.Update(ctx, forum); err != nil {
			return err
		}
		return s.forums.ReplacePlans(ctx, forum, plans)
	})
	if err != nil {
		return nil, err
	}
	return forum, nil
}

func (s *ForumService) checkName(ctx context.Context, communityID uint, name string, excludeID uint) error {
	existing, err := s.forums.GetByName(ctx, communityID, name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != excludeID {
		return models.NewFieldValidationError("name", "A forum with this name already exists in this community.")
	}
	return nil
}

func (s *ForumService) ListForums(ctx context.Context, communityID uint) ([]models.Forum, error) {
	return s.forums.List(ctx, communityID)
}

// PostInput describes a forum post. ParentPostID turns the post into a reply.
type PostInput struct {
	Message      string `json:"message" validate:"required"`
	AllowReplies *bool  `json:"allow_replies"`
	ParentPostID *uint  `json:"parent_post_id"`
}

// CreatePost writes a post or a reply. When the community or the forum restricts
// posting, only staff may start threads. Replies need a parent in the same forum
// that accepts replies.
func (s *ForumService) CreatePost(ctx context.Context, userID, forumID uint, input PostInput) (*models.Post, error) {
	input.Message = trimmed(input.Message)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	forum, err := s.forums.GetByID(ctx, forumID)
	if err != nil {
		return nil, err
	}
	member, err := requireRole(ctx, s.members, forum.CommunityID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireAccess(ctx, userID, forum.CommunityID, forum.PaymentPlans); err != nil {
		return nil, err
	}

	if input.ParentPostID == nil {
		community, err := s.communities.GetByID(ctx, forum.CommunityID)
		if err != nil {
			return nil, err
		}
		restricted := community.RestrictPostingToOwnersModerators || forum.RestrictPostingToOwnersModerators
		if restricted && !member.Role.IsStaff() {
			return nil, models.NewForbiddenError("Only owners and moderators can post in this forum.")
		}
	} else {
		parent, err := s.forums.GetPost(ctx, *input.ParentPostID)
		if err != nil {
			return nil, err
		}
		if parent.ForumID != forumID {
			return nil, models.NewFieldValidationError("parent_post_id", "The parent post belongs to another forum.")
		}
		if !parent.AllowReplies {
			return nil, models.NewFieldValidationError("parent_post_id", "This post does not accept replies.")
		}
	}

	post := &models.Post{
		ForumID:      forumID,
		UserID:       userID,
		ParentPostID: input.ParentPostID,
		Message:      input.Message,
		AllowReplies: derefOr(input.AllowReplies, true),
	}
	if err := s.forums.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// ListPosts returns top-level posts of a forum the user may access.
func (s *ForumService) ListPosts(ctx context.Context, userID, forumID uint, limit, offset int) ([]models.Post, error) {
	forum, err := s.forums.GetByID(ctx, forumID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireAccess(ctx, userID, forum.CommunityID, forum.PaymentPlans); err != nil {
		return nil, err
	}
	return s.forums.ListPosts(ctx, forumID, limit, offset)
}

func (s *ForumService) ListReplies(ctx context.Context, postID uint) ([]models.Post, error) {
	return s.forums.ListReplies(ctx, postID)
}

// DeletePost removes a post and its replies. Authors and staff may delete.
func (s *ForumService) DeletePost(ctx context.Context, actorID, postID uint) error {
	post, forum, err := s.postWithForum(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != actorID {
		if _, err := requireRole(ctx, s.members, forum.CommunityID, actorID, StaffRoles...); err != nil {
			return err
		}
	}
	return s.forums.DeletePost(ctx, postID)
}

// AddAttachment attaches an uploaded image or video to the author's own post.
func (s *ForumService) AddAttachment(ctx context.Context, userID, postID uint, fileURL string, fileType models.MediaType) (*models.PostAttachment, error) {
	if err := checkMedia(fileURL, fileType); err != nil {
		return nil, err
	}
	post, err := s.forums.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, models.NewForbiddenError("Only the author can attach files to a post.")
	}
	a := &models.PostAttachment{PostID: postID, FileURL: fileURL, FileType: fileType}
	if err := s.forums.AddAttachment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Like records a like from a community member and returns the new count.
func (s *ForumService) Like(ctx context.Context, userID, postID uint) (int64, error) {
	_, forum, err := s.postWithForum(ctx, postID)
	if err != nil {
		return 0, err
	}
	if _, err := requireRole(ctx, s.members, forum.CommunityID, userID); err != nil {
		return 0, err
	}
	if err := s.forums.Like(ctx, postID, userID); err != nil {
		return 0, err
	}
	return s.forums.CountLikes(ctx, postID)
}

func (s *ForumService) Unlike(ctx context.Context, userID, postID uint) (int64, error) {
	if err := s.forums.Unlike(ctx, postID, userID); err != nil {
		return 0, err
	}
	return s.forums.CountLikes(ctx, postID)
}

func (s *ForumService) postWithForum(ctx context.Context, postID uint) (*models.Post, *models.Forum, error) {
	post, err := s.forums.GetPost(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	forum, err := s.forums.GetByID(ctx, post.ForumID)
	if err != nil {
		return nil, nil, err
	}
	return post, forum, nil
}

func checkMedia(fileURL string, fileType models.MediaType) error {
	if trimmed(fileURL) == "" {
		return models.NewFieldValidationError("file_url", "This field is required.")
	}
	if len(fileURL) > 200 {
		return models.NewFieldValidationError("file_url", "Ensure this field has at most 200 characters.")
	}
	if !fileType.Valid() {
		return models.NewFieldValidationError("file_type", "file_type must be image or video.")
	}
	return nil
}
