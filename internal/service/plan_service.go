package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"rockae/internal/models"
	"rockae/internal/observability"
	"rockae/internal/repository"
	"rockae/internal/validation"

	"gorm.io/datatypes"
)

// PlanService manages community payment plans and featured content.
type PlanService struct {
	plans   repository.PlanRepository
	members repository.MembershipRepository
}

func NewPlanService(plans repository.PlanRepository, members repository.MembershipRepository) *PlanService {
	return &PlanService{plans: plans, members: members}
}

// PlanInput describes a payment plan. IsActive defaults to true on create.
type PlanInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description *string         `json:"description"`
	Fee         float64         `json:"fee" validate:"gte=0,lte=99999999"`
	IsRecurring bool            `json:"is_recurring"`
	IsFree      bool            `json:"is_free"`
	Offerings   json.RawMessage `json:"offerings"`
	IsActive    *bool           `json:"is_active"`
}

func (in *PlanInput) apply(plan *models.PaymentPlan) error {
	if len(in.Offerings) > 0 && !json.Valid(in.Offerings) {
		return models.NewFieldValidationError("offerings", "Offerings must be valid JSON.")
	}
	plan.Name = in.Name
	plan.Description = in.Description
	plan.Fee = in.Fee
	plan.IsRecurring = in.IsRecurring
	plan.IsFree = in.IsFree
	if len(in.Offerings) > 0 {
		plan.Offerings = datatypes.JSON(in.Offerings)
	}
	if in.IsActive != nil {
		plan.IsActive = *in.IsActive
	}
	plan.Normalize()
	return nil
}

// CreatePlan adds a plan to the community. Free plans are stored with a zero
// fee and without recurrence whatever the input says.
func (s *PlanService) CreatePlan(ctx context.Context, actorID, communityID uint, input PlanInput) (*models.PaymentPlan, error) {
	input.Name = trimmed(input.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, communityID, actorID, ManagerRoles...); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, communityID, input.Name, 0); err != nil {
		return nil, err
	}

	plan := &models.PaymentPlan{CommunityID: communityID, IsActive: true}
	if err := input.apply(plan); err != nil {
		return nil, err
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}

	observability.RecordEvent(observability.EventPaymentPlanSaved)
	observability.Logger.InfoContext(ctx, "payment plan created",
		slog.Uint64("community_id", uint64(communityID)),
		slog.Uint64("plan_id", uint64(plan.ID)),
		slog.Bool("is_free", plan.IsFree),
	)
	return plan, nil
}

// UpdatePlan replaces the editable fields of a plan.
func (s *PlanService) UpdatePlan(ctx context.Context, actorID, planID uint, input PlanInput) (*models.PaymentPlan, error) {
	input.Name = trimmed(input.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, plan.CommunityID, actorID, ManagerRoles...); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, plan.CommunityID, input.Name, plan.ID); err != nil {
		return nil, err
	}
	if err := input.apply(plan); err != nil {
		return nil, err
	}
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventPaymentPlanSaved)
	return plan, nil
}

func (s *PlanService) checkName(ctx context.Context, communityID uint, name string, excludeID uint) error {
	taken, err := s.plans.NameExists(ctx, communityID, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return models.NewFieldValidationError("name", "A payment plan with this name already exists in this community.")
	}
	return nil
}

// ListPlans returns the plans of a community.
func (s *PlanService) ListPlans(ctx context.Context, communityID uint, activeOnly bool) ([]models.PaymentPlan, error) {
	return s.plans.List(ctx, communityID, activeOnly)
}

// AssignUserPlan records the plan a member picked. A nil expiresAt means the plan never lapses.
func (s *PlanService) AssignUserPlan(ctx context.Context, userID, communityID, planID uint, expiresAt *time.Time) (*models.UserPaymentPlan, error) {
	if _, err := requireRole(ctx, s.members, communityID, userID); err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.CommunityID != communityID {
		return nil, models.NewFieldValidationError("payment_plan", "This payment plan does not belong to the community.")
	}
	if !plan.IsActive {
		return nil, models.NewFieldValidationError("payment_plan", "This payment plan is no longer available.")
	}

	up := &models.UserPaymentPlan{
		UserID:        userID,
		CommunityID:   communityID,
		PaymentPlanID: planID,
		SubscribedAt:  now(),
		ExpiresAt:     expiresAt,
		IsActive:      true,
	}
	if err := s.plans.UpsertUserPlan(ctx, up); err != nil {
		return nil, err
	}
	return s.plans.GetUserPlan(ctx, communityID, userID)
}

// FeaturedContentInput describes an image or video on the community page.
type FeaturedContentInput struct {
	ContentType models.FeaturedContentType `json:"content_type" validate:"required,oneof=image video"`
	Title       *string                    `json:"title" validate:"omitempty,max=255"`
	Description *string                    `json:"description"`
	ImageURL    *string                    `json:"image_url" validate:"omitempty,max=200"`
	VideoURL    *string                    `json:"video_url" validate:"omitempty,max=200"`
	Order       int                        `json:"order" validate:"gte=0"`
	IsActive    *bool                      `json:"is_active"`
}

func (in FeaturedContentInput) apply(fc *models.CommunityFeaturedContent) error {
	fc.ContentType = in.ContentType
	fc.Title = in.Title
	fc.Description = in.Description
	fc.ImageURL = in.ImageURL
	fc.VideoURL = in.VideoURL
	fc.Order = in.Order
	if in.IsActive != nil {
		fc.IsActive = *in.IsActive
	}
	return fc.Validate()
}

// CreateFeaturedContent adds featured media. Image content needs image_url and video content needs video_url.
func (s *PlanService) CreateFeaturedContent(ctx context.Context, actorID, communityID uint, input FeaturedContentInput) (*models.CommunityFeaturedContent, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, communityID, actorID, ManagerRoles...); err != nil {
		return nil, err
	}
	fc := &models.CommunityFeaturedContent{CommunityID: communityID, IsActive: true}
	if err := input.apply(fc); err != nil {
		return nil, err
	}
	if err := s.plans.CreateFeatured(ctx, fc); err != nil {
		return nil, err
	}
	return fc, nil
}

func (s *PlanService) UpdateFeaturedContent(ctx context.Context, actorID, id uint, input FeaturedContentInput) (*models.CommunityFeaturedContent, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	fc, err := s.plans.GetFeatured(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, fc.CommunityID, actorID, ManagerRoles...); err != nil {
		return nil, err
	}
	if err := input.apply(fc); err != nil {
		return nil, err
	}
	if err := s.plans.UpdateFeatured(ctx, fc); err != nil {
		return nil, err
	}
	return fc, nil
}

// ListActiveFeatured returns active featured content by order, newest first within the same order.
func (s *PlanService) ListActiveFeatured(ctx context.Context, communityID uint) ([]models.CommunityFeaturedContent, error) {
	return s.plans.ListActiveFeatured(ctx, communityID)
}
