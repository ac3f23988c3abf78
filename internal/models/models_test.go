package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuizNormalize(t *testing.T) {
	zero, three := uint(0), uint(3)

	q := &Quiz{HasAttemptLimit: true, MaxAttempts: &zero}
	q.Normalize()
	assert.False(t, q.HasAttemptLimit)

	q = &Quiz{HasAttemptLimit: true, MaxAttempts: &three}
	q.Normalize()
	assert.True(t, q.HasAttemptLimit)
}

func TestPaymentPlanNormalize(t *testing.T) {
	p := &PaymentPlan{IsFree: true, Fee: 12, IsRecurring: true}
	p.Normalize()
	assert.Zero(t, p.Fee)
	assert.False(t, p.IsRecurring)
	assert.JSONEq(t, `{}`, string(p.Offerings))
}

func TestFeaturedContentValidate(t *testing.T) {
	url := "https://cdn.example.com/a.png"
	empty := ""

	require.NoError(t, (&CommunityFeaturedContent{ContentType: FeaturedImage, ImageURL: &url}).Validate())
	require.NoError(t, (&CommunityFeaturedContent{ContentType: FeaturedVideo, VideoURL: &url}).Validate())

	tests := []struct {
		content *CommunityFeaturedContent
		field   string
	}{
		{&CommunityFeaturedContent{ContentType: FeaturedImage}, "image_url"},
		{&CommunityFeaturedContent{ContentType: FeaturedImage, ImageURL: &empty, VideoURL: &url}, "image_url"},
		{&CommunityFeaturedContent{ContentType: FeaturedVideo, ImageURL: &url}, "video_url"},
		{&CommunityFeaturedContent{ContentType: "gif"}, "content_type"},
	}
	for _, tt := range tests {
		err := tt.content.Validate()
		var appErr *AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, CodeValidation, appErr.Code)
		assert.Contains(t, appErr.Fields, tt.field)
	}
}

func TestClassroomProgressPercent(t *testing.T) {
	assert.Zero(t, ClassroomProgress{}.Percent())
	assert.Equal(t, 50.0, ClassroomProgress{Total: 4, Completed: 2}.Percent())
}

func TestUsernameOrEmail(t *testing.T) {
	name := "ada"
	assert.Equal(t, "ada", (&User{Email: "ada@example.com", Username: &name}).UsernameOrEmail())
	assert.Equal(t, "ada@example.com", (&User{Email: "ada@example.com"}).UsernameOrEmail())
}

func TestAppErrors(t *testing.T) {
	err := NewFieldsValidationError(map[string]string{"name": "required", "email": "invalid"})
	assert.Equal(t, "email: invalid; name: required", err.Message)
	assert.Len(t, err.Fields, 2)

	bad := NewBadRequestError("", "")
	assert.Equal(t, CodeBadRequest, bad.Code)
	assert.Equal(t, "Something went wrong.", bad.Message)

	cause := errors.New("connection reset")
	internal := NewInternalError(cause)
	assert.ErrorIs(t, internal, cause)
	assert.Equal(t, DefaultInternalMessage, internal.ToResponse().Error)
	assert.Equal(t, "connection reset", internal.ToResponse().Details)

	wrapped := fmt.Errorf("loading plan: %w", NewNotFoundError("PaymentPlan", 7))
	assert.True(t, IsCode(wrapped, CodeNotFound))
	assert.False(t, IsCode(wrapped, CodeConflict))
	assert.False(t, IsCode(cause, CodeInternal))
}
