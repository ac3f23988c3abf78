package service

import (
	"context"
	"fmt"

	"rockae/internal/models"
	"rockae/internal/observability"
	"rockae/internal/repository"
	"rockae/internal/validation"
)

// PollService provides poll and voting business logic.
type PollService struct {
	tx      repository.Transactor
	members repository.MembershipRepository
	plans   repository.PlanRepository
	polls   repository.PollRepository
	access  *AccessService
}

// NewPollService returns a new PollService.
func NewPollService(
	tx repository.Transactor,
	members repository.MembershipRepository,
	plans repository.PlanRepository,
	polls repository.PollRepository,
	access *AccessService,
) *PollService {
	return &PollService{tx: tx, members: members, plans: plans, polls: polls, access: access}
}

type PollInput struct {
	Title          string   `json:"title" validate:"required,max=255"`
	Description    *string  `json:"description"`
	Options        []string `json:"options" validate:"dive,required,max=255"`
	PaymentPlanIDs []uint   `json:"payment_plans"`
}

// CreatePoll opens a poll with at least two options. Staff only.
func (s *PollService) CreatePoll(ctx context.Context, actorID, communityID uint, input PollInput) (*models.Poll, error) {
	input.Title = trimmed(input.Title)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	options := make([]models.PollOption, 0, len(input.Options))
	for i, text := range input.Options {
		if text = trimmed(text); text != "" {
			options = append(options, models.PollOption{Text: text, Order: i})
		}
	}
	if len(options) < models.MinPollOptions {
		return nil, models.NewFieldValidationError("options",
			fmt.Sprintf("A poll needs at least %d options.", models.MinPollOptions))
	}
	if _, err := requireRole(ctx, s.members, communityID, actorID, StaffRoles...); err != nil {
		return nil, err
	}
	plans, err := resolvePlans(ctx, s.plans, communityID, input.PaymentPlanIDs)
	if err != nil {
		return nil, err
	}

	poll := &models.Poll{
		CommunityID: communityID,
		Title:       input.Title,
		Description: input.Description,
		IsActive:    true,
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.polls.Create(ctx, poll, options); err != nil {
			return err
		}
		return s.polls.ReplacePlans(ctx, poll, plans)
	})
	if err != nil {
		return nil, err
	}
	return poll, nil
}

// Close stops a poll from accepting votes.
func (s *PollService) Close(ctx context.Context, actorID, pollID uint) (*models.Poll, error) {
	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, poll.CommunityID, actorID, StaffRoles...); err != nil {
		return nil, err
	}
	poll.IsActive = false
	if err := s.polls.Update(ctx, poll); err != nil {
		return nil, err
	}
	return poll, nil
}

func (s *PollService) ListPolls(ctx context.Context, communityID uint, activeOnly bool) ([]models.Poll, error) {
	return s.polls.List(ctx, communityID, activeOnly)
}

// Vote records the user's choice. Each user votes once per poll.
func (s *PollService) Vote(ctx context.Context, userID, pollID, optionID uint) (*models.PollVote, error) {
	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if !poll.IsActive {
		return nil, models.NewValidationError("This poll is closed.")
	}
	belongs := false
	for _, o := range poll.Options {
		if o.ID == optionID {
			belongs = true
			break
		}
	}
	if !belongs {
		return nil, models.NewFieldValidationError("option", "This option does not belong to the poll.")
	}
	if err := s.access.RequireAccess(ctx, userID, poll.CommunityID, poll.PaymentPlans); err != nil {
		return nil, err
	}

	existing, err := s.polls.GetVote(ctx, pollID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("You have already voted in this poll.")
	}
	vote := &models.PollVote{PollID: pollID, OptionID: optionID, UserID: userID}
	if err := s.polls.CreateVote(ctx, vote); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventPollVoteCast)
	return vote, nil
}

// Results returns the tally for every option in display order.
func (s *PollService) Results(ctx context.Context, pollID uint) ([]models.PollResult, error) {
	if _, err := s.polls.GetByID(ctx, pollID); err != nil {
		return nil, err
	}
	return s.polls.Results(ctx, pollID)
}
