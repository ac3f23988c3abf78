package repository

import (
	"context"

	"rockae/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuizRepository defines persistence operations for quizzes, submissions and generation jobs.
type QuizRepository interface {
	Create(ctx context.Context, q *models.Quiz) error
	Update(ctx context.Context, q *models.Quiz) error
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	List(ctx context.Context, communityID uint) ([]models.Quiz, error)
	ReplacePlans(ctx context.Context, q *models.Quiz, plans []models.PaymentPlan) error

	CreateSubmission(ctx context.Context, s *models.QuizSubmission) error
	CountSubmissions(ctx context.Context, quizID, userID uint) (int64, error)
	ListSubmissions(ctx context.Context, quizID, userID uint) ([]models.QuizSubmission, error)

	CreateJob(ctx context.Context, job *models.QuizGenerationJob) error
	GetJob(ctx context.Context, jobID string) (*models.QuizGenerationJob, error)
	UpdateJob(ctx context.Context, job *models.QuizGenerationJob) error
	ListJobs(ctx context.Context, status models.JobStatus, limit int) ([]models.QuizGenerationJob, error)
}

type quizRepository struct {
	db *gorm.DB
}

func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) Create(ctx context.Context, q *models.Quiz) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(q).Error, "Could not save quiz.")
}

func (r *quizRepository) Update(ctx context.Context, q *models.Quiz) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Save(q).Error, "Could not save quiz.")
}

func (r *quizRepository) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	var q models.Quiz
	if err := conn(ctx, r.db).Preload("PaymentPlans").First(&q, id).Error; err != nil {
		return nil, readError(err, "Quiz", id)
	}
	return &q, nil
}

func (r *quizRepository) List(ctx context.Context, communityID uint) ([]models.Quiz, error) {
	var out []models.Quiz
	if err := conn(ctx, r.db).Where("community_id = ?", communityID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *quizRepository) ReplacePlans(ctx context.Context, q *models.Quiz, plans []models.PaymentPlan) error {
	if err := conn(ctx, r.db).Model(q).Association("PaymentPlans").Replace(plans); err != nil {
		return models.NewInternalError(err)
	}
	q.PaymentPlans = plans
	return nil
}

func (r *quizRepository) CreateSubmission(ctx context.Context, s *models.QuizSubmission) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(s).Error, "Could not save submission.")
}

func (r *quizRepository) CountSubmissions(ctx context.Context, quizID, userID uint) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.QuizSubmission{}).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).Count(&n).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *quizRepository) ListSubmissions(ctx context.Context, quizID, userID uint) ([]models.QuizSubmission, error) {
	var out []models.QuizSubmission
	err := conn(ctx, r.db).Where("quiz_id = ? AND user_id = ?", quizID, userID).Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *quizRepository) CreateJob(ctx context.Context, job *models.QuizGenerationJob) error {
	return writeError(conn(ctx, r.db).Create(job).Error, "A job with this ID already exists.")
}

func (r *quizRepository) GetJob(ctx context.Context, jobID string) (*models.QuizGenerationJob, error) {
	var job models.QuizGenerationJob
	found, err := findOne(conn(ctx, r.db), &job, "job_id = ?", jobID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.NewNotFoundError("QuizGenerationJob", jobID)
	}
	return &job, nil
}

func (r *quizRepository) UpdateJob(ctx context.Context, job *models.QuizGenerationJob) error {
	return writeError(conn(ctx, r.db).Save(job).Error, "Could not update job.")
}

// ListJobs returns the oldest jobs in status first.
func (r *quizRepository) ListJobs(ctx context.Context, status models.JobStatus, limit int) ([]models.QuizGenerationJob, error) {
	var out []models.QuizGenerationJob
	err := conn(ctx, r.db).Where("status = ?", status).Order("created_at").Limit(pageBounds(limit)).Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
