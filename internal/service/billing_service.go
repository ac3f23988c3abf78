package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rockae/internal/cache"
	"rockae/internal/models"
	"rockae/internal/observability"
	"rockae/internal/repository"
	"rockae/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const bytesPerGB = int64(1) << 30

// BillingService handles platform tiers, subscriptions, payment transactions
// and storage quotas.
type BillingService struct {
	tx         repository.Transactor
	billing    repository.BillingRepository
	plans      repository.PlanRepository
	members    repository.MembershipRepository
	cache      *cache.Cache
	feePercent float64
}

// NewBillingService returns a new BillingService. feePercent is the platform's
// cut of community member payments.
func NewBillingService(
	tx repository.Transactor,
	billing repository.BillingRepository,
	plans repository.PlanRepository,
	members repository.MembershipRepository,
	c *cache.Cache,
	feePercent float64,
) *BillingService {
	return &BillingService{
		tx:         tx,
		billing:    billing,
		plans:      plans,
		members:    members,
		cache:      c,
		feePercent: feePercent,
	}
}

// ListActiveTiers returns the purchasable tiers, cheapest first.
func (s *BillingService) ListActiveTiers(ctx context.Context) ([]models.AppSubscriptionTier, error) {
	var tiers []models.AppSubscriptionTier
	err := s.cache.Aside(ctx, cache.NameTiers, cache.ActiveTiersKey, &tiers, cache.TierTTL, func() error {
		var err error
		tiers, err = s.billing.ListActiveTiers(ctx)
		return err
	})
	return tiers, err
}

// UpsertTier stores tier by name and drops the cached tier list.
func (s *BillingService) UpsertTier(ctx context.Context, tier *models.AppSubscriptionTier) error {
	if !tier.TierName.Valid() {
		return models.NewFieldValidationError("tier_name", fmt.Sprintf("%q is not a valid tier.", tier.TierName))
	}
	if tier.Price < 0 {
		return models.NewFieldValidationError("price", "Price cannot be negative.")
	}
	if err := s.billing.UpsertTier(ctx, tier); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.ActiveTiersKey)
	return nil
}

// Subscribe creates a pending platform subscription for userID.
func (s *BillingService) Subscribe(ctx context.Context, userID uint, tierName models.TierName) (*models.AppSubscription, error) {
	tier, err := s.billing.GetTierByName(ctx, tierName)
	if err != nil {
		return nil, err
	}
	if !tier.IsActive {
		return nil, models.NewValidationError("This tier is no longer offered.")
	}
	sub := &models.AppSubscription{
		UserID:       userID,
		TierID:       tier.ID,
		Status:       models.SubscriptionPending,
		SubscribedAt: now(),
	}
	if err := s.billing.CreateAppSubscription(ctx, sub); err != nil {
		return nil, err
	}
	sub.Tier = tier
	s.subscriptionChanged(ctx, "app", sub.ID, sub.Status)
	return sub, nil
}

// TransitionAppSubscription moves a platform subscription to next. Activating
// stamps activated_at and sets expiresAt (nil for no expiry). Cancelling stamps
// cancelled_at.
func (s *BillingService) TransitionAppSubscription(ctx context.Context, id uint, next models.SubscriptionStatus, expiresAt *time.Time) (sub *models.AppSubscription, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "billing", "TransitionAppSubscription")
	defer span.Finish(&err)

	sub, err = s.billing.GetAppSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkSubscriptionMove(sub.Status, next, expiresAt); err != nil {
		return nil, err
	}
	applySubscriptionMove(next, &sub.Status, &sub.ActivatedAt, &sub.ExpiresAt, &sub.CancelledAt, expiresAt)
	if err := s.billing.UpdateAppSubscription(ctx, sub); err != nil {
		return nil, err
	}

	span.AddAttributes(attribute.String("subscription.status", string(next)))
	s.subscriptionChanged(ctx, "app", sub.ID, next)
	return sub, nil
}

// ActiveAppSubscription returns the user's current platform subscription, or nil.
func (s *BillingService) ActiveAppSubscription(ctx context.Context, userID uint) (*models.AppSubscription, error) {
	return s.billing.GetActiveAppSubscription(ctx, userID, now())
}

// SubscribeMember subscribes a member to one of the community's active plans.
// Free plans activate at once. A user holds one subscription per community, so
// a cancelled or expired one is reused for the new plan.
func (s *BillingService) SubscribeMember(ctx context.Context, userID, communityID, planID uint) (sub *models.CommunityMemberSubscription, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "billing", "SubscribeMember")
	defer span.Finish(&err)

	if _, err := requireRole(ctx, s.members, communityID, userID); err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.CommunityID != communityID {
		return nil, models.NewFieldValidationError("payment_plan", "This plan does not belong to the community.")
	}
	if !plan.IsActive {
		return nil, models.NewFieldValidationError("payment_plan", "This plan is no longer offered.")
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.billing.FindMemberSubscription(ctx, communityID, userID)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status == models.SubscriptionActive && !existing.IsActive(now()) {
			if err := s.expireMemberSubscription(ctx, existing); err != nil {
				return err
			}
		}
		if existing != nil && (existing.Status == models.SubscriptionPending || existing.IsActive(now())) {
			return models.NewValidationError("You already have a subscription for this community.")
		}

		sub = existing
		if sub == nil {
			sub = &models.CommunityMemberSubscription{UserID: userID, CommunityID: communityID}
		}
		sub.PaymentPlanID = plan.ID
		sub.Status = models.SubscriptionPending
		sub.SubscribedAt = now()
		sub.ActivatedAt, sub.ExpiresAt, sub.CancelledAt = nil, nil, nil
		if plan.IsFree {
			sub.Status = models.SubscriptionActive
			sub.ActivatedAt = ptr(now())
		}

		if existing == nil {
			return s.billing.CreateMemberSubscription(ctx, sub)
		}
		return s.billing.UpdateMemberSubscription(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	sub.PaymentPlan = plan
	span.AddAttributes(
		attribute.Int64("community.id", int64(communityID)),
		attribute.Bool("plan.free", plan.IsFree),
	)
	s.subscriptionChanged(ctx, "member", sub.ID, sub.Status)
	return sub, nil
}

// expireMemberSubscription records that an active subscription ran past its
// expiry, so the row can be reused for a renewal.
func (s *BillingService) expireMemberSubscription(ctx context.Context, sub *models.CommunityMemberSubscription) error {
	if err := checkSubscriptionMove(sub.Status, models.SubscriptionExpired, nil); err != nil {
		return err
	}
	applySubscriptionMove(models.SubscriptionExpired, &sub.Status, &sub.ActivatedAt, &sub.ExpiresAt, &sub.CancelledAt, nil)
	if err := s.billing.UpdateMemberSubscription(ctx, sub); err != nil {
		return err
	}
	s.subscriptionChanged(ctx, "member", sub.ID, sub.Status)
	return nil
}

// TransitionMemberSubscription moves a member subscription to next with the
// same timestamp rules as TransitionAppSubscription.
func (s *BillingService) TransitionMemberSubscription(ctx context.Context, id uint, next models.SubscriptionStatus, expiresAt *time.Time) (*models.CommunityMemberSubscription, error) {
	sub, err := s.billing.GetMemberSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkSubscriptionMove(sub.Status, next, expiresAt); err != nil {
		return nil, err
	}
	applySubscriptionMove(next, &sub.Status, &sub.ActivatedAt, &sub.ExpiresAt, &sub.CancelledAt, expiresAt)
	if err := s.billing.UpdateMemberSubscription(ctx, sub); err != nil {
		return nil, err
	}
	s.subscriptionChanged(ctx, "member", sub.ID, next)
	return sub, nil
}

func (s *BillingService) MemberSubscription(ctx context.Context, communityID, userID uint) (*models.CommunityMemberSubscription, error) {
	return s.billing.FindMemberSubscription(ctx, communityID, userID)
}

// checkSubscriptionMove validates a status change. Activation with an expiry
// that has already passed is refused.
func checkSubscriptionMove(from, next models.SubscriptionStatus, expiresAt *time.Time) error {
	if !next.Valid() {
		return models.NewFieldValidationError("status", fmt.Sprintf("%q is not a valid subscription status.", next))
	}
	if !from.CanTransitionTo(next) {
		return models.NewBadRequestError(
			fmt.Sprintf("A %s subscription cannot become %s.", from, next), "INVALID_TRANSITION")
	}
	if next == models.SubscriptionActive && expiresAt != nil && expiresAt.Before(now()) {
		return models.NewFieldValidationError("expires_at", "Expiry must be in the future.")
	}
	return nil
}

func applySubscriptionMove(next models.SubscriptionStatus, status *models.SubscriptionStatus, activatedAt, expires, cancelledAt **time.Time, expiresAt *time.Time) {
	*status = next
	switch next {
	case models.SubscriptionActive:
		*activatedAt = ptr(now())
		*expires = expiresAt
	case models.SubscriptionCancelled:
		*cancelledAt = ptr(now())
	}
}

func (s *BillingService) subscriptionChanged(ctx context.Context, kind string, id uint, status models.SubscriptionStatus) {
	observability.RecordEvent(observability.EventSubscriptionChanged)
	observability.Logger.InfoContext(ctx, "subscription changed",
		slog.String("kind", kind),
		slog.Uint64("subscription_id", uint64(id)),
		slog.String("status", string(status)),
	)
}

type TransactionInput struct {
	TransactionType               models.TransactionType `json:"transaction_type" validate:"required,oneof=app_subscription community_member_subscription"`
	AppSubscriptionID             *uint                  `json:"app_subscription_id"`
	CommunityMemberSubscriptionID *uint                  `json:"community_member_subscription_id"`
	TotalAmount                   float64                `json:"total_amount" validate:"gte=0"`
	Currency                      string                 `json:"currency" validate:"omitempty,len=3,alpha"`
	StripePaymentIntentID         string                 `json:"stripe_payment_intent_id" validate:"required,max=255"`
	StripeChargeID                *string                `json:"stripe_charge_id" validate:"omitempty,max=255"`
}

// CreateTransaction records a pending payment. Exactly one subscription
// reference must be set and it must match the transaction type. Community
// payments are split between the platform and the owner; platform payments
// keep the whole amount.
func (s *BillingService) CreateTransaction(ctx context.Context, input TransactionInput) (t *models.PaymentTransaction, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "billing", "CreateTransaction")
	defer span.Finish(&err)

	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	t = &models.PaymentTransaction{
		TransactionType:       input.TransactionType,
		TotalAmount:           models.RoundCents(input.TotalAmount),
		Currency:              strings.ToUpper(input.Currency),
		Status:                models.TransactionPending,
		StripePaymentIntentID: input.StripePaymentIntentID,
		StripeChargeID:        input.StripeChargeID,
	}
	if t.Currency == "" {
		t.Currency = models.DefaultCurrency
	}

	switch input.TransactionType {
	case models.TransactionAppSubscription:
		if input.AppSubscriptionID == nil || input.CommunityMemberSubscriptionID != nil {
			return nil, models.NewValidationError("An app subscription payment must reference only an app subscription.")
		}
		if _, err := s.billing.GetAppSubscription(ctx, *input.AppSubscriptionID); err != nil {
			return nil, err
		}
		t.AppSubscriptionID = input.AppSubscriptionID
	case models.TransactionCommunityMemberSubscription:
		if input.CommunityMemberSubscriptionID == nil || input.AppSubscriptionID != nil {
			return nil, models.NewValidationError("A community payment must reference only a member subscription.")
		}
		if _, err := s.billing.GetMemberSubscription(ctx, *input.CommunityMemberSubscriptionID); err != nil {
			return nil, err
		}
		t.CommunityMemberSubscriptionID = input.CommunityMemberSubscriptionID
		t.PlatformFee, t.OwnerAmount = models.SplitCommunityPayment(t.TotalAmount, s.feePercent)
	}

	if err := s.billing.CreateTransaction(ctx, t); err != nil {
		return nil, err
	}
	span.AddAttributes(
		attribute.String("transaction.type", string(t.TransactionType)),
		attribute.Float64("transaction.total", t.TotalAmount),
	)
	s.transactionChanged(ctx, t)
	return t, nil
}

// TransitionTransaction moves a payment to next. Success stamps completed_at.
func (s *BillingService) TransitionTransaction(ctx context.Context, id uint, next models.TransactionStatus) (*models.PaymentTransaction, error) {
	if !next.Valid() {
		return nil, models.NewFieldValidationError("status", fmt.Sprintf("%q is not a valid transaction status.", next))
	}
	t, err := s.billing.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.Status.CanTransitionTo(next) {
		return nil, models.NewBadRequestError(
			fmt.Sprintf("A %s transaction cannot become %s.", t.Status, next), "INVALID_TRANSITION")
	}
	t.Status = next
	if next == models.TransactionSucceeded {
		t.CompletedAt = ptr(now())
	}
	if err := s.billing.UpdateTransaction(ctx, t); err != nil {
		return nil, err
	}
	s.transactionChanged(ctx, t)
	return t, nil
}

// MarkTransferred records the payout of the owner's share of a succeeded community payment.
func (s *BillingService) MarkTransferred(ctx context.Context, id uint, transferID string) (*models.PaymentTransaction, error) {
	t, err := s.billing.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.TransactionType != models.TransactionCommunityMemberSubscription {
		return nil, models.NewValidationError("Only community payments are transferred to owners.")
	}
	if t.Status != models.TransactionSucceeded {
		return nil, models.NewValidationError("Only succeeded payments can be transferred.")
	}
	if t.TransferredToOwner {
		return nil, models.NewValidationError("This payment was already transferred.")
	}
	t.TransferredToOwner = true
	t.TransferredAt = ptr(now())
	if transferID = trimmed(transferID); transferID != "" {
		t.StripeTransferID = &transferID
	}
	if err := s.billing.UpdateTransaction(ctx, t); err != nil {
		return nil, err
	}
	s.transactionChanged(ctx, t)
	return t, nil
}

func (s *BillingService) TransactionByIntent(ctx context.Context, intentID string) (*models.PaymentTransaction, error) {
	return s.billing.GetTransactionByIntent(ctx, intentID)
}

func (s *BillingService) transactionChanged(ctx context.Context, t *models.PaymentTransaction) {
	observability.RecordEvent(observability.EventTransactionChanged)
	observability.Logger.InfoContext(ctx, "payment transaction changed",
		slog.Uint64("transaction_id", uint64(t.ID)),
		slog.String("type", string(t.TransactionType)),
		slog.String("status", string(t.Status)),
	)
}

// StorageLimitBytes returns the owner's quota. Owners without an active
// subscription get the free tier's limit. ok is false when storage is unlimited.
func (s *BillingService) StorageLimitBytes(ctx context.Context, ownerID uint) (limit int64, ok bool, err error) {
	var tier *models.AppSubscriptionTier
	sub, err := s.billing.GetActiveAppSubscription(ctx, ownerID, now())
	if err != nil {
		return 0, false, err
	}
	if sub != nil {
		tier = sub.Tier
	} else {
		tier, err = s.billing.GetTierByName(ctx, models.TierFreeHobby)
		if models.IsCode(err, models.CodeNotFound) {
			return 0, false, nil
		}
		if err != nil {
			return 0, false, err
		}
	}
	if tier == nil || tier.StorageLimitGB == nil {
		return 0, false, nil
	}
	return int64(*tier.StorageLimitGB) * bytesPerGB, true, nil
}

// CheckStorageQuota fails when adding size bytes would exceed the owner's quota.
func (s *BillingService) CheckStorageQuota(ctx context.Context, ownerID uint, size int64) error {
	limit, limited, err := s.StorageLimitBytes(ctx, ownerID)
	if err != nil || !limited {
		return err
	}
	used, err := s.billing.StorageUsedBytes(ctx, ownerID)
	if err != nil {
		return err
	}
	if used+size > limit {
		return models.NewValidationError(fmt.Sprintf(
			"This upload needs %d bytes but only %d of your %d GB remain.", size, max(limit-used, 0), limit/bytesPerGB))
	}
	return nil
}

type StorageInput struct {
	CommunityID *uint                  `json:"community_id"`
	FilePath    string                 `json:"file_path" validate:"required,max=500"`
	FileSize    int64                  `json:"file_size" validate:"gte=0"`
	FileType    models.StorageFileType `json:"file_type" validate:"required"`
}

// RecordStorage checks the quota and records an upload against ownerID.
func (s *BillingService) RecordStorage(ctx context.Context, ownerID uint, input StorageInput) (*models.StorageUsage, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if !input.FileType.Valid() {
		return nil, models.NewFieldValidationError("file_type", fmt.Sprintf("%q is not a valid file type.", input.FileType))
	}
	if err := s.CheckStorageQuota(ctx, ownerID, input.FileSize); err != nil {
		return nil, err
	}
	u := &models.StorageUsage{
		CommunityID: input.CommunityID,
		OwnerID:     ownerID,
		FilePath:    input.FilePath,
		FileSize:    input.FileSize,
		FileType:    input.FileType,
	}
	if err := s.billing.CreateStorageUsage(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteStorage releases the quota held by filePath. It reports whether anything was removed.
func (s *BillingService) DeleteStorage(ctx context.Context, ownerID uint, filePath string) (bool, error) {
	n, err := s.billing.DeleteStorageUsage(ctx, ownerID, filePath)
	return n > 0, err
}

func (s *BillingService) StorageUsedBytes(ctx context.Context, ownerID uint) (int64, error) {
	return s.billing.StorageUsedBytes(ctx, ownerID)
}
