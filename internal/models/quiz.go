package models

import "time"

// Quiz holds a JSON document of questions. Access may be limited to some payment plans.
type Quiz struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	CommunityID     uint          `gorm:"not null;index" json:"community_id"`
	Community       *Community    `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	Title           string        `gorm:"size:255;not null" json:"title"`
	Description     *string       `gorm:"type:text" json:"description,omitempty"`
	QuizData        string        `gorm:"type:text;not null" json:"quiz_data"`
	IsTimed         bool          `gorm:"not null" json:"is_timed"`
	HasAttemptLimit bool          `gorm:"not null" json:"has_attempt_limit"`
	MaxAttempts     *uint         `json:"max_attempts,omitempty"`
	PaymentPlans    []PaymentPlan `gorm:"many2many:Quiz_payment_plans;constraint:OnDelete:CASCADE" json:"payment_plans,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (Quiz) TableName() string {
	return "Quiz"
}

// Normalize applies the attempt-limit rule: zero allowed attempts means no limit.
func (q *Quiz) Normalize() {
	if q.MaxAttempts != nil && *q.MaxAttempts == 0 {
		q.HasAttemptLimit = false
	}
}

// QuizGenerationJob is picked up by an external worker that turns notes into a quiz.
type QuizGenerationJob struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	JobID       string     `gorm:"size:36;not null;uniqueIndex" json:"job_id"`
	MetaData    string     `gorm:"type:text;not null" json:"meta_data"`
	FileURL     string     `gorm:"size:500;not null" json:"file_url"`
	Status      JobStatus  `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (QuizGenerationJob) TableName() string {
	return "QuizGenerationJob"
}

type QuizSubmission struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	QuizID           uint      `gorm:"not null;index:idx_quiz_submission_user" json:"quiz_id"`
	Quiz             *Quiz     `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"-"`
	UserID           uint      `gorm:"not null;index:idx_quiz_submission_user" json:"user_id"`
	User             *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	SubmissionData   string    `gorm:"type:text;not null" json:"submission_data"`
	Score            *float64  `gorm:"type:decimal(5,2)" json:"score,omitempty"`
	TotalQuestions   int       `gorm:"not null" json:"total_questions"`
	CorrectAnswers   int       `gorm:"not null" json:"correct_answers"`
	IncorrectAnswers int       `gorm:"not null" json:"incorrect_answers"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (QuizSubmission) TableName() string {
	return "QuizSubmission"
}
