package repository

import (
	"context"
	"database/sql"

	"rockae/internal/models"
	"rockae/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WheelRepository defines persistence operations for wheels, participants and handoffs.
type WheelRepository interface {
	Create(ctx context.Context, w *models.Wheel) error
	Update(ctx context.Context, w *models.Wheel) error
	GetByID(ctx context.Context, id uint) (*models.Wheel, error)
	List(ctx context.Context, communityID uint) ([]models.Wheel, error)

	AddParticipant(ctx context.Context, p *models.WheelParticipant) error
	UpdateParticipant(ctx context.Context, p *models.WheelParticipant) error
	GetParticipant(ctx context.Context, id uint) (*models.WheelParticipant, error)
	GetParticipantByUser(ctx context.Context, wheelID, userID uint) (*models.WheelParticipant, error)
	ListParticipants(ctx context.Context, wheelID uint) ([]models.WheelParticipant, error)
	CountParticipants(ctx context.Context, wheelID uint) (int64, error)
	MaxOrder(ctx context.Context, wheelID uint) (uint, error)

	GetOrCreateHandoff(ctx context.Context, h *models.WheelHandoff) (bool, error)
	UpdateHandoff(ctx context.Context, h *models.WheelHandoff) error
	GetHandoff(ctx context.Context, id uint) (*models.WheelHandoff, error)
	ListHandoffs(ctx context.Context, wheelID uint) ([]models.WheelHandoff, error)
	AddHandoffAttachment(ctx context.Context, a *models.WheelHandoffAttachment) error
}

type wheelRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewWheelRepository returns a new WheelRepository implementation.
func NewWheelRepository(db *gorm.DB) WheelRepository {
	return &wheelRepository{db: db, log: observability.NewRepoLogger("Wheel")}
}

func (r *wheelRepository) Create(ctx context.Context, w *models.Wheel) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(w).Error; err != nil {
		return writeError(err, "Could not save wheel.")
	}
	r.log.LogCreate(ctx, map[string]any{"id": w.ID, "community_id": w.CommunityID})
	return nil
}

func (r *wheelRepository) Update(ctx context.Context, w *models.Wheel) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Save(w).Error; err != nil {
		return writeError(err, "Could not save wheel.")
	}
	r.log.LogUpdate(ctx, map[string]any{"id": w.ID, "status": w.Status})
	return nil
}

func (r *wheelRepository) GetByID(ctx context.Context, id uint) (*models.Wheel, error) {
	var w models.Wheel
	if err := conn(ctx, r.db).First(&w, id).Error; err != nil {
		return nil, readError(err, "Wheel", id)
	}
	return &w, nil
}

func (r *wheelRepository) List(ctx context.Context, communityID uint) ([]models.Wheel, error) {
	var out []models.Wheel
	if err := conn(ctx, r.db).Where("community_id = ?", communityID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *wheelRepository) AddParticipant(ctx context.Context, p *models.WheelParticipant) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(p).Error; err != nil {
		r.log.LogError(ctx, err, "add_participant")
		return writeError(err, "This user is already in the wheel, or the position is taken.")
	}
	return nil
}

func (r *wheelRepository) UpdateParticipant(ctx context.Context, p *models.WheelParticipant) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Save(p).Error, "The position is already taken in this wheel.")
}

func (r *wheelRepository) GetParticipant(ctx context.Context, id uint) (*models.WheelParticipant, error) {
	var p models.WheelParticipant
	if err := conn(ctx, r.db).First(&p, id).Error; err != nil {
		return nil, readError(err, "WheelParticipant", id)
	}
	return &p, nil
}

// GetParticipantByUser returns nil, nil when the user has not joined the wheel.
func (r *wheelRepository) GetParticipantByUser(ctx context.Context, wheelID, userID uint) (*models.WheelParticipant, error) {
	var p models.WheelParticipant
	found, err := findOne(conn(ctx, r.db), &p, "wheel_id = ? AND user_id = ?", wheelID, userID)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

// ListParticipants returns participants by position.
func (r *wheelRepository) ListParticipants(ctx context.Context, wheelID uint) ([]models.WheelParticipant, error) {
	var out []models.WheelParticipant
	if err := conn(ctx, r.db).Where("wheel_id = ?", wheelID).Order(orderColumn()).Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *wheelRepository) CountParticipants(ctx context.Context, wheelID uint) (int64, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&models.WheelParticipant{}).Where("wheel_id = ?", wheelID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// MaxOrder returns the highest position in the wheel, or 0 when it is empty.
func (r *wheelRepository) MaxOrder(ctx context.Context, wheelID uint) (uint, error) {
	var maxOrder sql.NullInt64
	err := conn(ctx, r.db).Model(&models.WheelParticipant{}).
		Where("wheel_id = ?", wheelID).
		Select(`MAX("order")`).Row().Scan(&maxOrder)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return uint(maxOrder.Int64), nil
}

// GetOrCreateHandoff loads the handoff for h's from participant, inserting h when
// none exists. The boolean reports whether a row was created.
func (r *wheelRepository) GetOrCreateHandoff(ctx context.Context, h *models.WheelHandoff) (bool, error) {
	var existing models.WheelHandoff
	found, err := findOne(conn(ctx, r.db), &existing,
		"wheel_id = ? AND from_participant_id = ?", h.WheelID, h.FromParticipantID)
	if err != nil {
		return false, err
	}
	if found {
		*h = existing
		return false, nil
	}
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(h).Error; err != nil {
		return false, writeError(err, "A handoff already exists for this participant.")
	}
	return true, nil
}

func (r *wheelRepository) UpdateHandoff(ctx context.Context, h *models.WheelHandoff) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Save(h).Error; err != nil {
		return writeError(err, "Could not update handoff.")
	}
	r.log.LogUpdate(ctx, map[string]any{"handoff_id": h.ID, "status": h.Status})
	return nil
}

func (r *wheelRepository) GetHandoff(ctx context.Context, id uint) (*models.WheelHandoff, error) {
	var h models.WheelHandoff
	if err := conn(ctx, r.db).Preload("FromParticipant").Preload("ToParticipant").First(&h, id).Error; err != nil {
		return nil, readError(err, "WheelHandoff", id)
	}
	return &h, nil
}

func (r *wheelRepository) ListHandoffs(ctx context.Context, wheelID uint) ([]models.WheelHandoff, error) {
	var out []models.WheelHandoff
	err := conn(ctx, r.db).Preload("FromParticipant").Preload("ToParticipant").
		Where("wheel_id = ?", wheelID).Order("id").Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *wheelRepository) AddHandoffAttachment(ctx context.Context, a *models.WheelHandoffAttachment) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Create(a).Error, "Could not save attachment.")
}
