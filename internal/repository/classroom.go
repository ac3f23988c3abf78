package repository

import (
	"context"
	"database/sql"

	"rockae/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClassroomRepository defines persistence operations for classrooms, lessons and progress.
type ClassroomRepository interface {
	Create(ctx context.Context, c *models.Classroom) error
	Update(ctx context.Context, c *models.Classroom) error
	GetByID(ctx context.Context, id uint) (*models.Classroom, error)
	List(ctx context.Context, communityID uint) ([]models.Classroom, error)
	ReplacePlans(ctx context.Context, c *models.Classroom, plans []models.PaymentPlan) error

	CreateContent(ctx context.Context, content *models.ClassroomContent) error
	UpdateContent(ctx context.Context, content *models.ClassroomContent) error
	GetContent(ctx context.Context, id uint) (*models.ClassroomContent, error)
	ListContents(ctx context.Context, classroomID uint, activeOnly bool) ([]models.ClassroomContent, error)
	NextContentOrder(ctx context.Context, classroomID uint) (int, error)
	AddAttachment(ctx context.Context, a *models.ClassroomAttachment) error
	ListAttachments(ctx context.Context, contentID uint) ([]models.ClassroomAttachment, error)

	CreateCompletion(ctx context.Context, c *models.ClassroomContentCompletion) error
	CompletedContentIDs(ctx context.Context, classroomID, userID uint) ([]uint, error)
	GetCertificate(ctx context.Context, classroomID, userID uint) (*models.ClassroomCertificate, error)
	CreateCertificate(ctx context.Context, cert *models.ClassroomCertificate) error
}

type classroomRepository struct {
	db *gorm.DB
}

func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

func orderColumn() clause.OrderByColumn {
	return clause.OrderByColumn{Column: clause.Column{Name: "order"}}
}

func (r *classroomRepository) Create(ctx context.Context, c *models.Classroom) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(c).Error, "A classroom with this name already exists in this community.")
}

func (r *classroomRepository) Update(ctx context.Context, c *models.Classroom) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Save(c).Error, "A classroom with this name already exists in this community.")
}

func (r *classroomRepository) GetByID(ctx context.Context, id uint) (*models.Classroom, error) {
	var c models.Classroom
	if err := conn(ctx, r.db).Preload("PaymentPlans").First(&c, id).Error; err != nil {
		return nil, readError(err, "Classroom", id)
	}
	return &c, nil
}

func (r *classroomRepository) List(ctx context.Context, communityID uint) ([]models.Classroom, error) {
	var out []models.Classroom
	if err := conn(ctx, r.db).Where("community_id = ?", communityID).Order("created_at").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *classroomRepository) ReplacePlans(ctx context.Context, c *models.Classroom, plans []models.PaymentPlan) error {
	if err := conn(ctx, r.db).Model(c).Association("PaymentPlans").Replace(plans); err != nil {
		return models.NewInternalError(err)
	}
	c.PaymentPlans = plans
	return nil
}

func (r *classroomRepository) CreateContent(ctx context.Context, content *models.ClassroomContent) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(content).Error, "Could not save classroom content.")
}

func (r *classroomRepository) UpdateContent(ctx context.Context, content *models.ClassroomContent) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Save(content).Error, "Could not save classroom content.")
}

func (r *classroomRepository) GetContent(ctx context.Context, id uint) (*models.ClassroomContent, error) {
	var c models.ClassroomContent
	if err := conn(ctx, r.db).First(&c, id).Error; err != nil {
		return nil, readError(err, "ClassroomContent", id)
	}
	return &c, nil
}

// ListContents returns lessons by order, then id.
func (r *classroomRepository) ListContents(ctx context.Context, classroomID uint, activeOnly bool) ([]models.ClassroomContent, error) {
	q := conn(ctx, r.db).Where(&models.ClassroomContent{ClassroomID: classroomID})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []models.ClassroomContent
	if err := q.Order(orderColumn()).Order("id").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *classroomRepository) NextContentOrder(ctx context.Context, classroomID uint) (int, error) {
	var maxOrder sql.NullInt64
	err := conn(ctx, r.db).Model(&models.ClassroomContent{}).
		Where("classroom_id = ?", classroomID).
		Select(`MAX("order")`).Row().Scan(&maxOrder)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return int(maxOrder.Int64) + 1, nil
}

func (r *classroomRepository) AddAttachment(ctx context.Context, a *models.ClassroomAttachment) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(a).Error, "Could not save attachment.")
}

func (r *classroomRepository) ListAttachments(ctx context.Context, contentID uint) ([]models.ClassroomAttachment, error) {
	var out []models.ClassroomAttachment
	if err := conn(ctx, r.db).Where("content_id = ?", contentID).Order("created_at").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *classroomRepository) CreateCompletion(ctx context.Context, c *models.ClassroomContentCompletion) error {
	err := conn(ctx, r.db).Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(c).Error
	return writeError(err, "Content already completed.")
}

// CompletedContentIDs lists the active lessons of a classroom the user has completed.
func (r *classroomRepository) CompletedContentIDs(ctx context.Context, classroomID, userID uint) ([]uint, error) {
	var ids []uint
	err := conn(ctx, r.db).Model(&models.ClassroomContentCompletion{}).
		Joins(`JOIN "ClassroomContent" ON "ClassroomContent".id = "ClassroomContentCompletion".content_id`).
		Where(`"ClassroomContent".classroom_id = ? AND "ClassroomContent".is_active = ? AND "ClassroomContentCompletion".user_id = ?`,
			classroomID, true, userID).
		Pluck(`"ClassroomContentCompletion".content_id`, &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// GetCertificate returns nil, nil when no certificate was issued.
func (r *classroomRepository) GetCertificate(ctx context.Context, classroomID, userID uint) (*models.ClassroomCertificate, error) {
	var c models.ClassroomCertificate
	found, err := findOne(conn(ctx, r.db), &c, "classroom_id = ? AND user_id = ?", classroomID, userID)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

func (r *classroomRepository) CreateCertificate(ctx context.Context, cert *models.ClassroomCertificate) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(cert).Error, "Certificate already issued.")
}
