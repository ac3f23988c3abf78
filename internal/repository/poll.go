package repository

import (
	"context"

	"rockae/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PollRepository defines persistence operations for polls, options and votes.
type PollRepository interface {
	Create(ctx context.Context, poll *models.Poll, options []models.PollOption) error
	Update(ctx context.Context, poll *models.Poll) error
	GetByID(ctx context.Context, id uint) (*models.Poll, error)
	List(ctx context.Context, communityID uint, activeOnly bool) ([]models.Poll, error)
	ReplacePlans(ctx context.Context, poll *models.Poll, plans []models.PaymentPlan) error

	CreateVote(ctx context.Context, vote *models.PollVote) error
	GetVote(ctx context.Context, pollID, userID uint) (*models.PollVote, error)
	Results(ctx context.Context, pollID uint) ([]models.PollResult, error)
}

type pollRepository struct {
	db *gorm.DB
}

func NewPollRepository(db *gorm.DB) PollRepository {
	return &pollRepository{db: db}
}

// Create inserts the poll with its options in one transaction.
func (r *pollRepository) Create(ctx context.Context, poll *models.Poll, options []models.PollOption) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(poll).Error; err != nil {
			return models.NewInternalError(err)
		}
		for i := range options {
			options[i].PollID = poll.ID
		}
		if err := tx.Omit(clause.Associations).Create(&options).Error; err != nil {
			return models.NewInternalError(err)
		}
		poll.Options = options
		return nil
	})
}

func (r *pollRepository) Update(ctx context.Context, poll *models.Poll) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Save(poll).Error, "Could not save poll.")
}

func (r *pollRepository) GetByID(ctx context.Context, id uint) (*models.Poll, error) {
	var p models.Poll
	err := conn(ctx, r.db).
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order(orderColumn()).Order("id") }).
		Preload("PaymentPlans").
		First(&p, id).Error
	if err != nil {
		return nil, readError(err, "Poll", id)
	}
	return &p, nil
}

func (r *pollRepository) List(ctx context.Context, communityID uint, activeOnly bool) ([]models.Poll, error) {
	q := conn(ctx, r.db).Where("community_id = ?", communityID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []models.Poll
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *pollRepository) ReplacePlans(ctx context.Context, poll *models.Poll, plans []models.PaymentPlan) error {
	if err := conn(ctx, r.db).Model(poll).Association("PaymentPlans").Replace(plans); err != nil {
		return models.NewInternalError(err)
	}
	poll.PaymentPlans = plans
	return nil
}

func (r *pollRepository) CreateVote(ctx context.Context, vote *models.PollVote) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(vote).Error, "You have already voted in this poll.")
}

// GetVote returns nil, nil when the user has not voted.
func (r *pollRepository) GetVote(ctx context.Context, pollID, userID uint) (*models.PollVote, error) {
	var v models.PollVote
	found, err := findOne(conn(ctx, r.db), &v, "poll_id = ? AND user_id = ?", pollID, userID)
	if err != nil || !found {
		return nil, err
	}
	return &v, nil
}

// Results tallies votes per option, including options nobody picked.
func (r *pollRepository) Results(ctx context.Context, pollID uint) ([]models.PollResult, error) {
	var out []models.PollResult
	err := conn(ctx, r.db).Model(&models.PollOption{}).
		Select(`"PollOption".id AS option_id, "PollOption".text AS text, COUNT("PollVote".id) AS votes`).
		Joins(`LEFT JOIN "PollVote" ON "PollVote".option_id = "PollOption".id`).
		Where(`"PollOption".poll_id = ?`, pollID).
		Group(`"PollOption".id, "PollOption".text, "PollOption"."order"`).
		Order(`"PollOption"."order", "PollOption".id`).
		Scan(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
