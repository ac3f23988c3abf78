package service

import (
	"context"
	"encoding/json"
	"testing"

	"rockae/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threeQuestions = `{"questions":[
	{"id":"q1","question":"2+2?","options":["3","4"],"answer":"4"},
	{"id":"q2","question":"Capital of France?","answer":"Paris"},
	{"id":"q3","question":"Go mascot?","answer":"gopher"}
]}`

func TestScoreSubmission(t *testing.T) {
	quiz := &models.Quiz{ID: 7, QuizData: threeQuestions}

	sub, err := ScoreSubmission(quiz, map[string]string{"q1": "4", "q2": " paris ", "q3": "rabbit"})
	require.NoError(t, err)
	assert.Equal(t, 3, sub.TotalQuestions)
	assert.Equal(t, 2, sub.CorrectAnswers)
	assert.Equal(t, 1, sub.IncorrectAnswers)
	require.NotNil(t, sub.Score)
	assert.Equal(t, 66.67, *sub.Score)

	var rec submissionRecord
	require.NoError(t, json.Unmarshal([]byte(sub.SubmissionData), &rec))
	require.Len(t, rec.Results, 3)
	assert.False(t, rec.Results[2].Correct)
	assert.Equal(t, "rabbit", rec.Answers["q3"])

	empty, err := ScoreSubmission(&models.Quiz{QuizData: `{"questions":[]}`}, nil)
	require.NoError(t, err)
	assert.Nil(t, empty.Score)

	_, err = ScoreSubmission(&models.Quiz{QuizData: `["not","a","quiz"]`}, nil)
	assertCode(t, err, models.CodeValidation)
}

func TestSubmit_AttemptLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Quizzers")
	student := env.member(t, c.ID, models.RoleMember)

	one := uint(1)
	limited, err := env.quizzes.CreateQuiz(ctx, owner.ID, c.ID, QuizInput{
		Title:           "Once",
		QuizData:        json.RawMessage(threeQuestions),
		HasAttemptLimit: true,
		MaxAttempts:     &one,
	})
	require.NoError(t, err)

	sub, err := env.quizzes.Submit(ctx, student.ID, limited.ID, map[string]string{"q1": "4"})
	require.NoError(t, err)
	assert.Equal(t, student.ID, sub.UserID)
	_, err = env.quizzes.Submit(ctx, student.ID, limited.ID, map[string]string{"q1": "4"})
	assertCode(t, err, models.CodeValidation)

	// max_attempts of zero means no limit.
	zero := uint(0)
	unlimited, err := env.quizzes.CreateQuiz(ctx, owner.ID, c.ID, QuizInput{
		Title:           "Forever",
		QuizData:        json.RawMessage(threeQuestions),
		HasAttemptLimit: true,
		MaxAttempts:     &zero,
	})
	require.NoError(t, err)
	assert.False(t, unlimited.HasAttemptLimit)
	for range 3 {
		_, err = env.quizzes.Submit(ctx, student.ID, unlimited.ID, nil)
		require.NoError(t, err)
	}
	subs, err := env.quizzes.ListSubmissions(ctx, student.ID, unlimited.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 3)
}

func TestCreateQuiz_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Quizzers")
	member := env.member(t, c.ID, models.RoleMember)

	_, err := env.quizzes.CreateQuiz(ctx, owner.ID, c.ID, QuizInput{Title: "Broken", QuizData: json.RawMessage(`{`)})
	assertFieldError(t, err, "quiz_data")

	_, err = env.quizzes.CreateQuiz(ctx, member.ID, c.ID, QuizInput{Title: "Mine", QuizData: json.RawMessage(threeQuestions)})
	assertCode(t, err, models.CodeForbidden)

	gold := env.paidPlan(t, c.ID, "Gold")
	gated, err := env.quizzes.CreateQuiz(ctx, owner.ID, c.ID, QuizInput{
		Title:          "Gold only",
		QuizData:       json.RawMessage(threeQuestions),
		PaymentPlanIDs: []uint{gold.ID},
	})
	require.NoError(t, err)
	_, err = env.quizzes.Submit(ctx, member.ID, gated.ID, nil)
	assertCode(t, err, models.CodeForbidden)
}

func TestGenerationJobs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.quizzes.EnqueueGenerationJob(ctx, json.RawMessage(`{"topic":"go"}`), "")
	assertFieldError(t, err, "file_url")

	job, err := env.quizzes.EnqueueGenerationJob(ctx, json.RawMessage(`{"topic":"go"}`), "https://cdn.example.com/book.pdf")
	require.NoError(t, err)
	assert.Len(t, job.JobID, 36)
	assert.Equal(t, models.JobQueued, job.Status)

	pending, err := env.quizzes.PendingJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = env.quizzes.TransitionJob(ctx, job.JobID, models.JobCompleted)
	assertCode(t, err, "INVALID_TRANSITION")

	job, err = env.quizzes.TransitionJob(ctx, job.JobID, models.JobProcessing)
	require.NoError(t, err)
	assert.Nil(t, job.CompletedAt)
	job, err = env.quizzes.TransitionJob(ctx, job.JobID, models.JobCompleted)
	require.NoError(t, err)
	assert.NotNil(t, job.CompletedAt)

	pending, err = env.quizzes.PendingJobs(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
