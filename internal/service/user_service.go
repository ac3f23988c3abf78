package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"slices"
	"strings"
	"time"

	"rockae/internal/models"
	"rockae/internal/observability"
	"rockae/internal/repository"
	"rockae/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// Token lifetimes.
const (
	VerificationTokenTTL = 24 * time.Hour
	ResetTokenTTL        = time.Hour
	EmailChangeCodeTTL   = 15 * time.Minute
)

const tokenBytes = 32

// UserService provides account lifecycle business logic.
type UserService struct {
	tx    repository.Transactor
	users repository.UserRepository
	tags  repository.TagRepository
}

// NewUserService returns a new UserService.
func NewUserService(tx repository.Transactor, users repository.UserRepository, tags repository.TagRepository) *UserService {
	return &UserService{tx: tx, users: users, tags: tags}
}

// CreateUserInput holds the fields accepted when registering an account.
type CreateUserInput struct {
	Email    string          `json:"email" validate:"required,email,max=254"`
	Password string          `json:"password" validate:"required"`
	Username *string         `json:"username" validate:"omitempty,slug,max=150"`
	Role     models.RoleName `json:"role" validate:"omitempty,oneof=admin user"`
}

// NormalizeEmail lowercases the domain part of an address and trims spaces.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// CreateUser registers an account. The role defaults to user.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	input.Email = NormalizeEmail(input.Email)
	if input.Username != nil {
		input.Username = ptr(trimmed(*input.Username))
		if *input.Username == "" {
			input.Username = nil
		}
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = models.RoleUser
	}

	user := &models.User{
		Email:      input.Email,
		Username:   input.Username,
		Password:   hash,
		IsActive:   true,
		DateJoined: now(),
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureAvailable(ctx, user); err != nil {
			return err
		}
		role, err := s.users.EnsureRole(ctx, input.Role)
		if err != nil {
			return err
		}
		user.RoleID = &role.ID
		user.Role = role
		return s.users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	observability.RecordEvent(observability.EventUserCreated)
	observability.Logger.InfoContext(ctx, "user created",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("role", string(input.Role)),
	)
	return user, nil
}

// CreateSuperuser registers an account with the admin role, already verified.
func (s *UserService) CreateSuperuser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	input.Role = models.RoleAdmin
	user, err := s.CreateUser(ctx, input)
	if err != nil {
		return nil, err
	}
	user.IsVerified = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail returns the account registered under email, or nil when there is none.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.users.GetByEmail(ctx, NormalizeEmail(email))
}

func (s *UserService) ensureAvailable(ctx context.Context, user *models.User) error {
	existing, err := s.users.GetByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != user.ID {
		return models.NewFieldValidationError("email", "A user with this email already exists.")
	}
	if user.Username == nil {
		return nil
	}
	existing, err = s.users.GetByUsername(ctx, *user.Username)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != user.ID {
		return models.NewFieldValidationError("username", "A user with this username already exists.")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	if err := validation.ValidatePassword(password); err != nil {
		return "", models.NewFieldValidationError("password", err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", models.NewFieldValidationError("password", "Password is too long.")
	}
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

// GenerateVerificationToken stores a fresh email verification token valid for a day.
func (s *UserService) GenerateVerificationToken(ctx context.Context, userID uint) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	user.VerificationToken = &token
	user.TokenExpiresAt = ptr(now().Add(VerificationTokenTTL))
	if err := s.users.Update(ctx, user); err != nil {
		return "", err
	}
	return token, nil
}

// GenerateResetToken stores a fresh password reset token valid for an hour.
func (s *UserService) GenerateResetToken(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", models.NewNotFoundError("User", email)
	}
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	user.ResetPasswordToken = &token
	user.TokenExpiresAt = ptr(now().Add(ResetTokenTTL))
	if err := s.users.Update(ctx, user); err != nil {
		return "", err
	}
	return token, nil
}

// VerifyEmail marks the owner of token as verified.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	user, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil || tokenExpired(user.TokenExpiresAt) {
		return nil, models.NewBadRequestError("The verification link is invalid or has expired.", "INVALID_TOKEN")
	}
	user.IsVerified = true
	user.VerificationToken = nil
	user.TokenExpiresAt = nil
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResetPassword sets a new password for the owner of token.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		return err
	}
	if user == nil || tokenExpired(user.TokenExpiresAt) {
		return models.NewBadRequestError("The reset link is invalid or has expired.", "INVALID_TOKEN")
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = hash
	user.ResetPasswordToken = nil
	user.TokenExpiresAt = nil
	return s.users.Update(ctx, user)
}

// RequestEmailChange stores newEmail as pending and returns a six digit confirmation code.
func (s *UserService) RequestEmailChange(ctx context.Context, userID uint, newEmail string) (string, error) {
	input := struct {
		Email string `json:"email" validate:"required,email,max=254"`
	}{Email: NormalizeEmail(newEmail)}
	if err := validation.Struct(input); err != nil {
		return "", err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(user.Email, input.Email) {
		return "", models.NewFieldValidationError("email", "This is already your email address.")
	}
	existing, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", models.NewFieldValidationError("email", "A user with this email already exists.")
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	code := fmt.Sprintf("%06d", n.Int64())
	user.PendingEmail = &input.Email
	user.EmailChangeCode = &code
	user.EmailChangeCodeExpiresAt = ptr(now().Add(EmailChangeCodeTTL))
	if err := s.users.Update(ctx, user); err != nil {
		return "", err
	}
	return code, nil
}

// ConfirmEmailChange swaps in the pending email when code matches and has not expired.
func (s *UserService) ConfirmEmailChange(ctx context.Context, userID uint, code string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.PendingEmail == nil || user.EmailChangeCode == nil || *user.EmailChangeCode != code ||
		tokenExpired(user.EmailChangeCodeExpiresAt) {
		return nil, models.NewBadRequestError("The confirmation code is invalid or has expired.", "INVALID_CODE")
	}

	user.Email = *user.PendingEmail
	user.PendingEmail = nil
	user.EmailChangeCode = nil
	user.EmailChangeCodeExpiresAt = nil
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ProfileInput holds the editable profile fields. Interests are tag names.
type ProfileInput struct {
	FirstName      string         `json:"first_name" validate:"required,max=100"`
	LastName       string         `json:"last_name" validate:"required,max=100"`
	MiddleName     *string        `json:"middle_name" validate:"omitempty,max=100"`
	Gender         *models.Gender `json:"gender" validate:"omitempty,oneof=male female other prefer_not_to_say"`
	PhoneNumber    *string        `json:"phone_number" validate:"omitempty,max=20"`
	DateOfBirth    *time.Time     `json:"date_of_birth"`
	Country        *string        `json:"country" validate:"omitempty,max=100"`
	CountryFlagURL *string        `json:"country_flag_url" validate:"omitempty,max=200"`
	ThumbnailURL   *string        `json:"thumbnail_url" validate:"omitempty,max=200"`
	Bio            *string        `json:"bio"`
	About          *string        `json:"about"`
	Interests      []string       `json:"interests" validate:"omitempty,max=30,dive,required,max=50"`
}

// SaveProfile creates or replaces the profile of userID.
func (s *UserService) SaveProfile(ctx context.Context, userID uint, input ProfileInput) (*models.UserProfile, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if input.DateOfBirth != nil && input.DateOfBirth.After(now()) {
		return nil, models.NewFieldValidationError("date_of_birth", "Date of birth cannot be in the future.")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		if !models.IsCode(err, models.CodeNotFound) {
			return nil, err
		}
		profile = &models.UserProfile{UserID: userID}
	}
	profile.FirstName = trimmed(input.FirstName)
	profile.LastName = trimmed(input.LastName)
	profile.MiddleName = input.MiddleName
	profile.Gender = input.Gender
	profile.PhoneNumber = input.PhoneNumber
	profile.DateOfBirth = input.DateOfBirth
	profile.Country = input.Country
	profile.CountryFlagURL = input.CountryFlagURL
	profile.ThumbnailURL = input.ThumbnailURL
	profile.Bio = input.Bio
	profile.About = input.About

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		interests := make([]models.Tag, 0, len(input.Interests))
		for _, name := range input.Interests {
			if name = trimmed(name); name == "" {
				continue
			}
			tag, err := s.tags.GetOrCreate(ctx, name, tagSlug(name))
			if err != nil {
				return err
			}
			if !slices.ContainsFunc(interests, func(t models.Tag) bool { return t.ID == tag.ID }) {
				interests = append(interests, *tag)
			}
		}
		return s.users.SaveProfile(ctx, profile, interests)
	})
	if err != nil {
		return nil, err
	}
	return s.users.GetProfile(ctx, userID)
}

func randomToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", models.NewInternalError(err)
	}
	return hex.EncodeToString(buf), nil
}

func tokenExpired(expiresAt *time.Time) bool {
	return expiresAt == nil || now().After(*expiresAt)
}
