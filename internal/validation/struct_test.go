package validation

import (
	"testing"

	"rockae/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,slug,max=10"`
	Note  string `json:"-" validate:"omitempty,max=3"`
}

func TestStruct(t *testing.T) {
	t.Parallel()

	require.NoError(t, Struct(sampleInput{Email: "a@b.co", Name: "ok_name"}))

	err := Struct(sampleInput{Email: "nope", Name: "bad name", Note: "long"})
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "email")
	assert.Contains(t, appErr.Fields, "name")
	assert.Contains(t, appErr.Fields, "Note")
	assert.Equal(t, "Only letters, numbers, underscores and hyphens are allowed.", appErr.Fields["name"])
}

func TestStruct_Required(t *testing.T) {
	t.Parallel()
	err := Struct(sampleInput{})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "This field is required.", appErr.Fields["email"])
	assert.Equal(t, "This field is required.", appErr.Fields["name"])
}
