package repository

import (
	"context"
	"time"

	"rockae/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MeetingRepository defines persistence operations for meetings and attendance.
type MeetingRepository interface {
	Create(ctx context.Context, m *models.Meeting) error
	Update(ctx context.Context, m *models.Meeting) error
	GetByID(ctx context.Context, id uint) (*models.Meeting, error)
	ListUpcoming(ctx context.Context, communityID uint, now time.Time, limit int) ([]models.Meeting, error)
	ReplacePlans(ctx context.Context, m *models.Meeting, plans []models.PaymentPlan) error
	AddAttendee(ctx context.Context, m *models.Meeting, user *models.User) error
	RemoveAttendee(ctx context.Context, m *models.Meeting, user *models.User) error
}

type meetingRepository struct {
	db *gorm.DB
}

func NewMeetingRepository(db *gorm.DB) MeetingRepository {
	return &meetingRepository{db: db}
}

func (r *meetingRepository) Create(ctx context.Context, m *models.Meeting) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(m).Error, "Could not save meeting.")
}

func (r *meetingRepository) Update(ctx context.Context, m *models.Meeting) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Save(m).Error, "Could not save meeting.")
}

func (r *meetingRepository) GetByID(ctx context.Context, id uint) (*models.Meeting, error) {
	var m models.Meeting
	if err := conn(ctx, r.db).Preload("PaymentPlans").Preload("Attendees").First(&m, id).Error; err != nil {
		return nil, readError(err, "Meeting", id)
	}
	return &m, nil
}

// ListUpcoming returns meetings that have not ended by now, soonest first.
func (r *meetingRepository) ListUpcoming(ctx context.Context, communityID uint, now time.Time, limit int) ([]models.Meeting, error) {
	var out []models.Meeting
	err := conn(ctx, r.db).
		Where("community_id = ? AND end_datetime >= ?", communityID, now).
		Order("start_datetime").Limit(pageBounds(limit)).
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *meetingRepository) ReplacePlans(ctx context.Context, m *models.Meeting, plans []models.PaymentPlan) error {
	if err := conn(ctx, r.db).Model(m).Association("PaymentPlans").Replace(plans); err != nil {
		return models.NewInternalError(err)
	}
	m.PaymentPlans = plans
	return nil
}

func (r *meetingRepository) AddAttendee(ctx context.Context, m *models.Meeting, user *models.User) error {
	if err := conn(ctx, r.db).Model(m).Omit("Attendees.*").Association("Attendees").Append(user); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *meetingRepository) RemoveAttendee(ctx context.Context, m *models.Meeting, user *models.User) error {
	if err := conn(ctx, r.db).Model(m).Association("Attendees").Delete(user); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
