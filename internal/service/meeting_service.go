package service

import (
	"context"
	"time"

	"rockae/internal/models"
	"rockae/internal/repository"
	"rockae/internal/validation"
)

// MeetingService schedules community meetings and tracks attendees.
type MeetingService struct {
	tx       repository.Transactor
	members  repository.MembershipRepository
	plans    repository.PlanRepository
	meetings repository.MeetingRepository
	users    repository.UserRepository
	access   *AccessService
}

// NewMeetingService returns a new MeetingService.
func NewMeetingService(
	tx repository.Transactor,
	members repository.MembershipRepository,
	plans repository.PlanRepository,
	meetings repository.MeetingRepository,
	users repository.UserRepository,
	access *AccessService,
) *MeetingService {
	return &MeetingService{
		tx:       tx,
		members:  members,
		plans:    plans,
		meetings: meetings,
		users:    users,
		access:   access,
	}
}

type MeetingInput struct {
	Title          string    `json:"title" validate:"required,max=255"`
	Description    *string   `json:"description"`
	StartDatetime  time.Time `json:"start_datetime" validate:"required"`
	EndDatetime    time.Time `json:"end_datetime" validate:"required"`
	Location       *string   `json:"location" validate:"omitempty,max=500"`
	MeetingURL     *string   `json:"meeting_url" validate:"omitempty,max=200"`
	PaymentPlanIDs []uint    `json:"payment_plans"`
}

func (in MeetingInput) check() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if !in.EndDatetime.After(in.StartDatetime) {
		return models.NewFieldValidationError("end_datetime", "The meeting must end after it starts.")
	}
	return nil
}

func (in MeetingInput) apply(m *models.Meeting) {
	m.Title = trimmed(in.Title)
	m.Description = in.Description
	m.StartDatetime = in.StartDatetime.UTC()
	m.EndDatetime = in.EndDatetime.UTC()
	m.Location = in.Location
	m.MeetingURL = in.MeetingURL
}

// CreateMeeting schedules a meeting. Staff only.
func (s *MeetingService) CreateMeeting(ctx context.Context, actorID, communityID uint, input MeetingInput) (*models.Meeting, error) {
	if err := input.check(); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, communityID, actorID, StaffRoles...); err != nil {
		return nil, err
	}
	plans, err := resolvePlans(ctx, s.plans, communityID, input.PaymentPlanIDs)
	if err != nil {
		return nil, err
	}

	m := &models.Meeting{CommunityID: communityID, CreatedByID: actorID}
	input.apply(m)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.meetings.Create(ctx, m); err != nil {
			return err
		}
		return s.meetings.ReplacePlans(ctx, m, plans)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MeetingService) UpdateMeeting(ctx context.Context, actorID, meetingID uint, input MeetingInput) (*models.Meeting, error) {
	if err := input.check(); err != nil {
		return nil, err
	}
	m, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, m.CommunityID, actorID, StaffRoles...); err != nil {
		return nil, err
	}
	plans, err := resolvePlans(ctx, s.plans, m.CommunityID, input.PaymentPlanIDs)
	if err != nil {
		return nil, err
	}

	input.apply(m)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.meetings.Update(ctx, m); err != nil {
			return err
		}
		return s.meetings.ReplacePlans(ctx, m, plans)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListUpcoming returns meetings that have not ended yet.
func (s *MeetingService) ListUpcoming(ctx context.Context, communityID uint, limit int) ([]models.Meeting, error) {
	return s.meetings.ListUpcoming(ctx, communityID, now(), limit)
}

// Attend adds userID to the attendee list when their plan allows it.
func (s *MeetingService) Attend(ctx context.Context, userID, meetingID uint) (*models.Meeting, error) {
	m, user, err := s.meetingAndUser(ctx, userID, meetingID)
	if err != nil {
		return nil, err
	}
	if !m.EndDatetime.After(now()) {
		return nil, models.NewValidationError("This meeting has already ended.")
	}
	if err := s.access.RequireAccess(ctx, userID, m.CommunityID, m.PaymentPlans); err != nil {
		return nil, err
	}
	if err := s.meetings.AddAttendee(ctx, m, user); err != nil {
		return nil, err
	}
	return s.meetings.GetByID(ctx, meetingID)
}

func (s *MeetingService) Unattend(ctx context.Context, userID, meetingID uint) (*models.Meeting, error) {
	m, user, err := s.meetingAndUser(ctx, userID, meetingID)
	if err != nil {
		return nil, err
	}
	if err := s.meetings.RemoveAttendee(ctx, m, user); err != nil {
		return nil, err
	}
	return s.meetings.GetByID(ctx, meetingID)
}

func (s *MeetingService) meetingAndUser(ctx context.Context, userID, meetingID uint) (*models.Meeting, *models.User, error) {
	m, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return m, user, nil
}
