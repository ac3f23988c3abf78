package service

import (
	"context"
	"testing"
	"time"

	"rockae/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Corr3ct-Horse-Battery"

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.CreateUser(ctx, CreateUserInput{Email: "weak@example.com", Password: "short"})
	assertFieldError(t, err, "password")
	_, err = env.users.CreateUser(ctx, CreateUserInput{Email: "weak@example.com", Password: "alllowercaseletters1!"})
	assertFieldError(t, err, "password")
	_, err = env.users.CreateUser(ctx, CreateUserInput{Email: "not-an-email", Password: strongPassword})
	assertFieldError(t, err, "email")
	_, err = env.users.CreateUser(ctx, CreateUserInput{Email: "a@example.com", Password: strongPassword, Username: ptr("bad name")})
	assertFieldError(t, err, "username")

	user, err := env.users.CreateUser(ctx, CreateUserInput{Email: " Ada@EXAMPLE.com ", Password: strongPassword, Username: ptr("ada")})
	require.NoError(t, err)
	assert.Equal(t, "Ada@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role.Name)
	assert.NotEqual(t, strongPassword, user.Password)
	assert.True(t, CheckPassword(user, strongPassword))
	assert.False(t, CheckPassword(user, "wrong"))

	_, err = env.users.CreateUser(ctx, CreateUserInput{Email: "Ada@example.com", Password: strongPassword})
	assertFieldError(t, err, "email")
	_, err = env.users.CreateUser(ctx, CreateUserInput{Email: "other@example.com", Password: strongPassword, Username: ptr("ada")})
	assertFieldError(t, err, "username")

	admin, err := env.users.CreateSuperuser(ctx, CreateUserInput{Email: "root@example.com", Password: strongPassword})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role.Name)
	assert.True(t, admin.IsVerified)
}

func TestVerifyEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, err := env.users.CreateUser(ctx, CreateUserInput{Email: "v@example.com", Password: strongPassword})
	require.NoError(t, err)

	token, err := env.users.GenerateVerificationToken(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	_, err = env.users.VerifyEmail(ctx, "nope")
	assertCode(t, err, "INVALID_TOKEN")

	verified, err := env.users.VerifyEmail(ctx, token)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	assert.Nil(t, verified.VerificationToken)

	// Tokens are single use.
	_, err = env.users.VerifyEmail(ctx, token)
	assertCode(t, err, "INVALID_TOKEN")
}

func TestResetPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, err := env.users.CreateUser(ctx, CreateUserInput{Email: "r@example.com", Password: strongPassword})
	require.NoError(t, err)

	_, err = env.users.GenerateResetToken(ctx, "ghost@example.com")
	assertCode(t, err, models.CodeNotFound)

	token, err := env.users.GenerateResetToken(ctx, "r@EXAMPLE.com")
	require.NoError(t, err)

	assertFieldError(t, env.users.ResetPassword(ctx, token, "weak"), "password")
	require.NoError(t, env.users.ResetPassword(ctx, token, "N3w-Password-Here"))
	assertCode(t, env.users.ResetPassword(ctx, token, "N3w-Password-Again"), "INVALID_TOKEN")

	var stored models.User
	require.NoError(t, env.db.First(&stored, user.ID).Error)
	assert.True(t, CheckPassword(&stored, "N3w-Password-Here"))

	expired, err := env.users.GenerateResetToken(ctx, "r@example.com")
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("token_expires_at", time.Now().UTC().Add(-time.Minute)).Error)
	assertCode(t, env.users.ResetPassword(ctx, expired, "N3w-Password-Later"), "INVALID_TOKEN")
}

func TestEmailChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, err := env.users.CreateUser(ctx, CreateUserInput{Email: "old@example.com", Password: strongPassword})
	require.NoError(t, err)
	_, err = env.users.CreateUser(ctx, CreateUserInput{Email: "taken@example.com", Password: strongPassword})
	require.NoError(t, err)

	_, err = env.users.RequestEmailChange(ctx, user.ID, "old@example.com")
	assertFieldError(t, err, "email")
	_, err = env.users.RequestEmailChange(ctx, user.ID, "taken@example.com")
	assertFieldError(t, err, "email")

	code, err := env.users.RequestEmailChange(ctx, user.ID, "new@example.com")
	require.NoError(t, err)
	assert.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = env.users.ConfirmEmailChange(ctx, user.ID, wrong)
	assertCode(t, err, "INVALID_CODE")

	updated, err := env.users.ConfirmEmailChange(ctx, user.ID, code)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Nil(t, updated.PendingEmail)
}

func TestSaveProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, err := env.users.CreateUser(ctx, CreateUserInput{Email: "p@example.com", Password: strongPassword})
	require.NoError(t, err)

	future := time.Now().Add(48 * time.Hour)
	_, err = env.users.SaveProfile(ctx, user.ID, ProfileInput{FirstName: "Ada", LastName: "L", DateOfBirth: &future})
	assertFieldError(t, err, "date_of_birth")

	gender := models.Gender("robot")
	_, err = env.users.SaveProfile(ctx, user.ID, ProfileInput{FirstName: "Ada", LastName: "L", Gender: &gender})
	assertFieldError(t, err, "gender")

	profile, err := env.users.SaveProfile(ctx, user.ID, ProfileInput{
		FirstName: " Ada ",
		LastName:  "Lovelace",
		Interests: []string{"Books", "books", "Math"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.FirstName)
	assert.Len(t, profile.Interests, 2)

	profile, err = env.users.SaveProfile(ctx, user.ID, ProfileInput{FirstName: "Ada", LastName: "King", Interests: []string{"Math"}})
	require.NoError(t, err)
	assert.Equal(t, "King", profile.LastName)
	require.Len(t, profile.Interests, 1)
	assert.Equal(t, "math", profile.Interests[0].Slug)
}
