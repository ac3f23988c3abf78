package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"rockae/internal/models"
	"rockae/internal/observability"
	"rockae/internal/repository"
	"rockae/internal/validation"

	"github.com/google/uuid"
)

// QuizService manages quizzes, submissions and generation jobs.
type QuizService struct {
	tx      repository.Transactor
	members repository.MembershipRepository
	plans   repository.PlanRepository
	quizzes repository.QuizRepository
	access  *AccessService
}

// NewQuizService returns a new QuizService.
func NewQuizService(
	tx repository.Transactor,
	members repository.MembershipRepository,
	plans repository.PlanRepository,
	quizzes repository.QuizRepository,
	access *AccessService,
) *QuizService {
	return &QuizService{tx: tx, members: members, plans: plans, quizzes: quizzes, access: access}
}

// QuizDocument is the shape of Quiz.QuizData used for scoring. Other keys are kept as-is.
type QuizDocument struct {
	Questions []QuizQuestion `json:"questions"`
}

type QuizQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Answer   string   `json:"answer"`
}

// QuestionResult is stored per question in QuizSubmission.SubmissionData.
type QuestionResult struct {
	QuestionID string `json:"question_id"`
	Given      string `json:"given"`
	Correct    bool   `json:"correct"`
}

type submissionRecord struct {
	Answers map[string]string `json:"answers"`
	Results []QuestionResult  `json:"results"`
}

type QuizInput struct {
	Title           string          `json:"title" validate:"required,max=255"`
	Description     *string         `json:"description"`
	QuizData        json.RawMessage `json:"quiz_data" validate:"required"`
	IsTimed         bool            `json:"is_timed"`
	HasAttemptLimit bool            `json:"has_attempt_limit"`
	MaxAttempts     *uint           `json:"max_attempts"`
	PaymentPlanIDs  []uint          `json:"payment_plans"`
}

func (in QuizInput) apply(q *models.Quiz) error {
	if !json.Valid(in.QuizData) {
		return models.NewFieldValidationError("quiz_data", "quiz_data must be valid JSON.")
	}
	q.Title = trimmed(in.Title)
	q.Description = in.Description
	q.QuizData = string(in.QuizData)
	q.IsTimed = in.IsTimed
	q.HasAttemptLimit = in.HasAttemptLimit
	q.MaxAttempts = in.MaxAttempts
	q.Normalize()
	return nil
}

// CreateQuiz stores a quiz. A max_attempts of zero turns the attempt limit off.
func (s *QuizService) CreateQuiz(ctx context.Context, actorID, communityID uint, input QuizInput) (*models.Quiz, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, communityID, actorID, StaffRoles...); err != nil {
		return nil, err
	}
	plans, err := resolvePlans(ctx, s.plans, communityID, input.PaymentPlanIDs)
	if err != nil {
		return nil, err
	}

	quiz := &models.Quiz{CommunityID: communityID}
	if err := input.apply(quiz); err != nil {
		return nil, err
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.quizzes.Create(ctx, quiz); err != nil {
			return err
		}
		return s.quizzes.ReplacePlans(ctx, quiz, plans)
	})
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) UpdateQuiz(ctx context.Context, actorID, quizID uint, input QuizInput) (*models.Quiz, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, quiz.CommunityID, actorID, StaffRoles...); err != nil {
		return nil, err
	}
	plans, err := resolvePlans(ctx, s.plans, quiz.CommunityID, input.PaymentPlanIDs)
	if err != nil {
		return nil, err
	}
	if err := input.apply(quiz); err != nil {
		return nil, err
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.quizzes.Update(ctx, quiz); err != nil {
			return err
		}
		return s.quizzes.ReplacePlans(ctx, quiz, plans)
	})
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) ListQuizzes(ctx context.Context, communityID uint) ([]models.Quiz, error) {
	return s.quizzes.List(ctx, communityID)
}

// Submit scores answers (question id to chosen answer) and stores the attempt.
// Quizzes with an attempt limit reject submissions past max_attempts.
func (s *QuizService) Submit(ctx context.Context, userID, quizID uint, answers map[string]string) (*models.QuizSubmission, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireAccess(ctx, userID, quiz.CommunityID, quiz.PaymentPlans); err != nil {
		return nil, err
	}
	if quiz.HasAttemptLimit && quiz.MaxAttempts != nil {
		used, err := s.quizzes.CountSubmissions(ctx, quizID, userID)
		if err != nil {
			return nil, err
		}
		if used >= int64(*quiz.MaxAttempts) {
			return nil, models.NewValidationError(
				fmt.Sprintf("You have used all %d attempts for this quiz.", *quiz.MaxAttempts))
		}
	}

	sub, err := ScoreSubmission(quiz, answers)
	if err != nil {
		return nil, err
	}
	sub.UserID = userID
	if err := s.quizzes.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ScoreSubmission compares answers with the quiz document. Answers are matched
// case-insensitively after trimming. Score is a percentage with two decimals
// and stays nil for quizzes without questions.
func ScoreSubmission(quiz *models.Quiz, answers map[string]string) (*models.QuizSubmission, error) {
	var doc QuizDocument
	if err := json.Unmarshal([]byte(quiz.QuizData), &doc); err != nil {
		return nil, models.NewValidationError("This quiz cannot be scored: its questions are malformed.")
	}

	rec := submissionRecord{Answers: answers, Results: make([]QuestionResult, 0, len(doc.Questions))}
	correct := 0
	for _, q := range doc.Questions {
		given := answers[q.ID]
		ok := given != "" && strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(q.Answer))
		if ok {
			correct++
		}
		rec.Results = append(rec.Results, QuestionResult{QuestionID: q.ID, Given: given, Correct: ok})
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	sub := &models.QuizSubmission{
		QuizID:           quiz.ID,
		SubmissionData:   string(data),
		TotalQuestions:   len(doc.Questions),
		CorrectAnswers:   correct,
		IncorrectAnswers: len(doc.Questions) - correct,
	}
	if sub.TotalQuestions > 0 {
		score := math.Round(float64(correct)*10000/float64(sub.TotalQuestions)) / 100
		sub.Score = &score
	}
	return sub, nil
}

func (s *QuizService) ListSubmissions(ctx context.Context, userID, quizID uint) ([]models.QuizSubmission, error) {
	return s.quizzes.ListSubmissions(ctx, quizID, userID)
}

// EnqueueGenerationJob queues a request for the external quiz generator.
func (s *QuizService) EnqueueGenerationJob(ctx context.Context, metaData json.RawMessage, fileURL string) (*models.QuizGenerationJob, error) {
	if !json.Valid(metaData) {
		return nil, models.NewFieldValidationError("meta_data", "meta_data must be valid JSON.")
	}
	if trimmed(fileURL) == "" {
		return nil, models.NewFieldValidationError("file_url", "This field is required.")
	}
	job := &models.QuizGenerationJob{
		JobID:    uuid.NewString(),
		MetaData: string(metaData),
		FileURL:  fileURL,
		Status:   models.JobQueued,
	}
	if err := s.quizzes.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventQuizJobChanged)
	return job, nil
}

// TransitionJob moves a job to next. Completing a job stamps completed_at.
func (s *QuizService) TransitionJob(ctx context.Context, jobID string, next models.JobStatus) (*models.QuizGenerationJob, error) {
	if !next.Valid() {
		return nil, models.NewFieldValidationError("status", fmt.Sprintf("%q is not a valid job status.", next))
	}
	job, err := s.quizzes.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.Status.CanTransitionTo(next) {
		return nil, models.NewBadRequestError(
			fmt.Sprintf("A %s job cannot become %s.", job.Status, next), "INVALID_TRANSITION")
	}
	job.Status = next
	if next == models.JobCompleted {
		job.CompletedAt = ptr(now())
	}
	if err := s.quizzes.UpdateJob(ctx, job); err != nil {
		return nil, err
	}

	observability.RecordEvent(observability.EventQuizJobChanged)
	observability.Logger.InfoContext(ctx, "quiz generation job updated",
		slog.String("job_id", jobID),
		slog.String("status", string(next)),
	)
	return job, nil
}

// PendingJobs lists queued jobs, oldest first, for the worker to claim.
func (s *QuizService) PendingJobs(ctx context.Context, limit int) ([]models.QuizGenerationJob, error) {
	return s.quizzes.ListJobs(ctx, models.JobQueued, limit)
}
