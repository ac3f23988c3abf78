package service

import (
	"context"
	"fmt"

	"rockae/internal/models"
	"rockae/internal/repository"
)

// FeedbackService stores community ratings.
type FeedbackService struct {
	feedback repository.FeedbackRepository
	members  repository.MembershipRepository
}

func NewFeedbackService(feedback repository.FeedbackRepository, members repository.MembershipRepository) *FeedbackService {
	return &FeedbackService{feedback: feedback, members: members}
}

// RatingSummary is the average rating of a community.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// Rate creates or replaces the member's rating of a community.
func (s *FeedbackService) Rate(ctx context.Context, userID, communityID uint, rating int, message *string) (*models.CommunityFeedback, error) {
	if rating < models.MinFeedbackRating || rating > models.MaxFeedbackRating {
		return nil, models.NewFieldValidationError("rating",
			fmt.Sprintf("Rating must be between %d and %d.", models.MinFeedbackRating, models.MaxFeedbackRating))
	}
	if _, err := requireRole(ctx, s.members, communityID, userID); err != nil {
		return nil, err
	}

	fb := &models.CommunityFeedback{
		UserID:      userID,
		CommunityID: communityID,
		Rating:      rating,
		Message:     message,
	}
	if err := s.feedback.Upsert(ctx, fb); err != nil {
		return nil, err
	}
	return s.feedback.Get(ctx, communityID, userID)
}

func (s *FeedbackService) List(ctx context.Context, communityID uint) ([]models.CommunityFeedback, error) {
	return s.feedback.List(ctx, communityID)
}

// Summary returns the average rating, zero when nobody rated yet.
func (s *FeedbackService) Summary(ctx context.Context, communityID uint) (RatingSummary, error) {
	avg, n, err := s.feedback.AverageRating(ctx, communityID)
	if err != nil {
		return RatingSummary{}, err
	}
	return RatingSummary{Average: avg, Count: n}, nil
}

// ListLeaveReasons returns exit surveys for staff.
func (s *FeedbackService) ListLeaveReasons(ctx context.Context, actorID, communityID uint) ([]models.CommunityLeaveReason, error) {
	if _, err := requireRole(ctx, s.members, communityID, actorID, ManagerRoles...); err != nil {
		return nil, err
	}
	return s.feedback.ListLeaveReasons(ctx, communityID)
}
