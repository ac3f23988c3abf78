package repository

import (
	"context"

	"rockae/internal/models"
	"rockae/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users, roles and profiles.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)

	EnsureRole(ctx context.Context, name models.RoleName) (*models.UserRole, error)

	GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile, interests []models.Tag) error
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("User")}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).Preload("Role").First(&user, id).Error; err != nil {
		return nil, readError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) getBy(ctx context.Context, column, value string) (*models.User, error) {
	var user models.User
	found, err := findOne(conn(ctx, r.db).Preload("Role"), &user, column+" = ?", value)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *userRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return r.getBy(ctx, "verification_token", token)
}

func (r *userRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	return r.getBy(ctx, "reset_password_token", token)
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(user).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return writeError(err, "A user with that email or username already exists.")
	}
	r.log.LogCreate(ctx, map[string]any{"id": user.ID})
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Save(user).Error; err != nil {
		r.log.LogError(ctx, err, "update")
		return writeError(err, "A user with that email or username already exists.")
	}
	r.log.LogUpdate(ctx, map[string]any{"id": user.ID})
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.User{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	r.log.LogDelete(ctx, map[string]any{"id": id})
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := conn(ctx, r.db).Order("id").Limit(pageBounds(limit)).Offset(offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) EnsureRole(ctx context.Context, name models.RoleName) (*models.UserRole, error) {
	role := models.UserRole{Name: name}
	if err := conn(ctx, r.db).Where(models.UserRole{Name: name}).FirstOrCreate(&role).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &role, nil
}

func (r *userRepository) GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	found, err := findOne(conn(ctx, r.db).Preload("Interests"), &profile, "user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.NewNotFoundError("UserProfile", userID)
	}
	return &profile, nil
}

// SaveProfile inserts or updates the profile and replaces its interests.
func (r *userRepository) SaveProfile(ctx context.Context, profile *models.UserProfile, interests []models.Tag) error {
	db := conn(ctx, r.db)
	if err := db.Omit(clause.Associations).Save(profile).Error; err != nil {
		return writeError(err, "This user already has a profile.")
	}
	if err := db.Model(profile).Association("Interests").Replace(interests); err != nil {
		return models.NewInternalError(err)
	}
	profile.Interests = interests
	r.log.LogUpdate(ctx, map[string]any{"user_id": profile.UserID, "interests": len(interests)})
	return nil
}
