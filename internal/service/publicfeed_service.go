package service

import (
	"context"

	"rockae/internal/models"
	"rockae/internal/repository"
)

// PublicFeedService manages posts on a community's public page.
type PublicFeedService struct {
	members repository.MembershipRepository
	feeds   repository.PublicFeedRepository
}

func NewPublicFeedService(members repository.MembershipRepository, feeds repository.PublicFeedRepository) *PublicFeedService {
	return &PublicFeedService{members: members, feeds: feeds}
}

// Post publishes a top-level entry. Only owners, co-owners and moderators may post.
func (s *PublicFeedService) Post(ctx context.Context, userID, communityID uint, message string, allowReplies bool) (*models.PublicFeed, error) {
	if message = trimmed(message); message == "" {
		return nil, models.NewFieldValidationError("message", "This field is required.")
	}
	if _, err := requireRole(ctx, s.members, communityID, userID, StaffRoles...); err != nil {
		return nil, err
	}
	feed := &models.PublicFeed{
		CommunityID:  communityID,
		PostedByID:   userID,
		Message:      message,
		AllowReplies: allowReplies,
	}
	if err := s.feeds.Create(ctx, feed); err != nil {
		return nil, err
	}
	return feed, nil
}

// Reply answers an entry that accepts replies. Any active member may reply.
func (s *PublicFeedService) Reply(ctx context.Context, userID, parentID uint, message string) (*models.PublicFeed, error) {
	if message = trimmed(message); message == "" {
		return nil, models.NewFieldValidationError("message", "This field is required.")
	}
	parent, err := s.feeds.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if !parent.AllowReplies {
		return nil, models.NewValidationError("This post does not accept replies.")
	}
	if _, err := requireRole(ctx, s.members, parent.CommunityID, userID); err != nil {
		return nil, err
	}
	reply := &models.PublicFeed{
		CommunityID:  parent.CommunityID,
		PostedByID:   userID,
		ParentFeedID: &parent.ID,
		Message:      message,
	}
	if err := s.feeds.Create(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *PublicFeedService) List(ctx context.Context, communityID uint, limit, offset int) ([]models.PublicFeed, error) {
	return s.feeds.List(ctx, communityID, limit, offset)
}

func (s *PublicFeedService) ListReplies(ctx context.Context, feedID uint) ([]models.PublicFeed, error) {
	return s.feeds.ListReplies(ctx, feedID)
}

// Delete removes an entry. Authors and staff may delete.
func (s *PublicFeedService) Delete(ctx context.Context, actorID, feedID uint) error {
	feed, err := s.feeds.GetByID(ctx, feedID)
	if err != nil {
		return err
	}
	if feed.PostedByID != actorID {
		if _, err := requireRole(ctx, s.members, feed.CommunityID, actorID, StaffRoles...); err != nil {
			return err
		}
	}
	return s.feeds.Delete(ctx, feedID)
}

// AddAttachment attaches media to the author's own entry.
func (s *PublicFeedService) AddAttachment(ctx context.Context, userID, feedID uint, fileURL string, fileType models.MediaType) (*models.PublicFeedAttachment, error) {
	if err := checkMedia(fileURL, fileType); err != nil {
		return nil, err
	}
	feed, err := s.feeds.GetByID(ctx, feedID)
	if err != nil {
		return nil, err
	}
	if feed.PostedByID != userID {
		return nil, models.NewForbiddenError("Only the author can attach files to a post.")
	}
	a := &models.PublicFeedAttachment{PublicFeedID: feedID, FileURL: fileURL, FileType: fileType}
	if err := s.feeds.AddAttachment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Like is open to any signed-in user since the feed is public.
func (s *PublicFeedService) Like(ctx context.Context, userID, feedID uint) (int64, error) {
	if _, err := s.feeds.GetByID(ctx, feedID); err != nil {
		return 0, err
	}
	if err := s.feeds.Like(ctx, feedID, userID); err != nil {
		return 0, err
	}
	return s.feeds.CountLikes(ctx, feedID)
}

func (s *PublicFeedService) Unlike(ctx context.Context, userID, feedID uint) (int64, error) {
	if err := s.feeds.Unlike(ctx, feedID, userID); err != nil {
		return 0, err
	}
	return s.feeds.CountLikes(ctx, feedID)
}
