package models

import (
	"math"
	"time"
)

// TierName identifies a platform subscription tier.
type TierName string

const (
	TierFreeHobby    TierName = "free_hobby"
	TierHobby        TierName = "hobby"
	TierProfessional TierName = "professional"
	TierEnterprise   TierName = "enterprise"
)

func (t TierName) Valid() bool {
	switch t {
	case TierFreeHobby, TierHobby, TierProfessional, TierEnterprise:
		return true
	}
	return false
}

// AppSubscriptionTier defines the limits and features of a platform plan.
// Nil limits mean unlimited.
type AppSubscriptionTier struct {
	ID                         uint     `gorm:"primaryKey" json:"id" yaml:"-"`
	TierName                   TierName `gorm:"type:varchar(50);not null;uniqueIndex" json:"tier_name" yaml:"tier_name"`
	DisplayName                string   `gorm:"size:255;not null" json:"display_name" yaml:"display_name"`
	Price                      float64  `gorm:"type:decimal(10,2);not null" json:"price" yaml:"price"`
	MaxCommunities             *int     `json:"max_communities" yaml:"max_communities"`
	MaxMembers                 *int     `json:"max_members" yaml:"max_members"`
	MaxAdmins                  *int     `json:"max_admins" yaml:"max_admins"`
	MaxFreePaymentPlans        *int     `json:"max_free_payment_plans" yaml:"max_free_payment_plans"`
	MaxPaidPaymentPlans        *int     `json:"max_paid_payment_plans" yaml:"max_paid_payment_plans"`
	MaxQuizGenerationsPerMonth *int     `json:"max_quiz_generations_per_month" yaml:"max_quiz_generations_per_month"`
	MaxForums                  *int     `json:"max_forums" yaml:"max_forums"`
	MaxClassrooms              *int     `json:"max_classrooms" yaml:"max_classrooms"`
	StorageLimitGB             *int     `gorm:"column:storage_limit_gb" json:"storage_limit_gb" yaml:"storage_limit_gb"`

	HasBasicAnalytics          bool `gorm:"not null" json:"has_basic_analytics" yaml:"has_basic_analytics"`
	HasAdvancedAnalytics       bool `gorm:"not null" json:"has_advanced_analytics" yaml:"has_advanced_analytics"`
	HasCustomReports           bool `gorm:"not null" json:"has_custom_reports" yaml:"has_custom_reports"`
	HasStandardSupport         bool `gorm:"not null" json:"has_standard_support" yaml:"has_standard_support"`
	HasPrioritySupport         bool `gorm:"not null" json:"has_priority_support" yaml:"has_priority_support"`
	Has247Support              bool `gorm:"column:has_24_7_support;not null" json:"has_24_7_support" yaml:"has_24_7_support"`
	HasCustomBranding          bool `gorm:"not null" json:"has_custom_branding" yaml:"has_custom_branding"`
	HasWhiteLabel              bool `gorm:"not null" json:"has_white_label" yaml:"has_white_label"`
	HasMeetingFeatures         bool `gorm:"not null" json:"has_meeting_features" yaml:"has_meeting_features"`
	HasAdvancedMeetingFeatures bool `gorm:"not null" json:"has_advanced_meeting_features" yaml:"has_advanced_meeting_features"`
	HasExportData              bool `gorm:"not null" json:"has_export_data" yaml:"has_export_data"`
	HasAPIAccess               bool `gorm:"column:has_api_access;not null" json:"has_api_access" yaml:"has_api_access"`
	HasCustomIntegrations      bool `gorm:"not null" json:"has_custom_integrations" yaml:"has_custom_integrations"`
	HasRevenueAnalytics        bool `gorm:"not null" json:"has_revenue_analytics" yaml:"has_revenue_analytics"`
	HasDedicatedManager        bool `gorm:"not null" json:"has_dedicated_manager" yaml:"has_dedicated_manager"`
	HasCustomDevelopment       bool `gorm:"not null" json:"has_custom_development" yaml:"has_custom_development"`
	HasSSOSAML                 bool `gorm:"column:has_sso_saml;not null" json:"has_sso_saml" yaml:"has_sso_saml"`
	HasAdvancedSecurity        bool `gorm:"not null" json:"has_advanced_security" yaml:"has_advanced_security"`
	HasCustomSLA               bool `gorm:"column:has_custom_sla;not null" json:"has_custom_sla" yaml:"has_custom_sla"`
	HasMultiCommunityDashboard bool `gorm:"not null" json:"has_multi_community_dashboard" yaml:"has_multi_community_dashboard"`

	IsActive  bool      `gorm:"not null" json:"is_active" yaml:"is_active"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

func (AppSubscriptionTier) TableName() string {
	return "AppSubscriptionTier"
}

// AppSubscription is a community owner's subscription to the platform.
type AppSubscription struct {
	ID                    uint                 `gorm:"primaryKey" json:"id"`
	UserID                uint                 `gorm:"not null;index:idx_app_subscription_user_status" json:"user_id"`
	User                  *User                `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TierID                uint                 `gorm:"not null;index" json:"tier_id"`
	Tier                  *AppSubscriptionTier `gorm:"foreignKey:TierID;constraint:OnDelete:RESTRICT" json:"tier,omitempty"`
	Status                SubscriptionStatus   `gorm:"type:varchar(20);not null;index:idx_app_subscription_user_status;index:idx_app_subscription_status_expiry" json:"status"`
	SubscribedAt          time.Time            `gorm:"not null" json:"subscribed_at"`
	ActivatedAt           *time.Time           `json:"activated_at,omitempty"`
	ExpiresAt             *time.Time           `gorm:"index:idx_app_subscription_status_expiry" json:"expires_at,omitempty"`
	CancelledAt           *time.Time           `json:"cancelled_at,omitempty"`
	StripeSubscriptionID  *string              `gorm:"size:255" json:"stripe_subscription_id,omitempty"`
	StripeCustomerID      *string              `gorm:"size:255" json:"stripe_customer_id,omitempty"`
	StripePaymentIntentID *string              `gorm:"size:255" json:"stripe_payment_intent_id,omitempty"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

func (AppSubscription) TableName() string {
	return "AppSubscription"
}

// IsActive reports whether the subscription is active and not past its expiry at now.
func (s *AppSubscription) IsActive(now time.Time) bool {
	return subscriptionActive(s.Status, s.ExpiresAt, now)
}

// StorageFileType classifies tracked uploads.
type StorageFileType string

const (
	StorageAvatar              StorageFileType = "avatar"
	StorageBanner              StorageFileType = "banner"
	StorageClassroomContent    StorageFileType = "classroom_content"
	StorageClassroomAttachment StorageFileType = "classroom_attachment"
	StorageForumAttachment     StorageFileType = "forum_attachment"
	StoragePostAttachment      StorageFileType = "post_attachment"
	StorageQuizFile            StorageFileType = "quiz_file"
	StorageBlogImage           StorageFileType = "blog_image"
	StorageFeaturedContent     StorageFileType = "featured_content"
	StorageOther               StorageFileType = "other"
)

func (f StorageFileType) Valid() bool {
	switch f {
	case StorageAvatar, StorageBanner, StorageClassroomContent, StorageClassroomAttachment,
		StorageForumAttachment, StoragePostAttachment, StorageQuizFile, StorageBlogImage,
		StorageFeaturedContent, StorageOther:
		return true
	}
	return false
}

// StorageUsage records one stored object against an owner's quota.
type StorageUsage struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CommunityID *uint           `gorm:"index:idx_storage_community_owner" json:"community_id,omitempty"`
	Community   *Community      `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	OwnerID     uint            `gorm:"not null;index;index:idx_storage_community_owner" json:"owner_id"`
	Owner       *User           `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	FilePath    string          `gorm:"size:500;not null;index" json:"file_path"`
	FileSize    int64           `gorm:"not null" json:"file_size"`
	FileType    StorageFileType `gorm:"type:varchar(50);not null" json:"file_type"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (StorageUsage) TableName() string {
	return "StorageUsage"
}

// CommunityMemberSubscription is a member's paid access to a community plan.
type CommunityMemberSubscription struct {
	ID                    uint               `gorm:"primaryKey" json:"id"`
	UserID                uint               `gorm:"not null;uniqueIndex:idx_member_subscription_user_community" json:"user_id"`
	User                  *User              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CommunityID           uint               `gorm:"not null;uniqueIndex:idx_member_subscription_user_community" json:"community_id"`
	Community             *Community         `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	PaymentPlanID         uint               `gorm:"not null;index" json:"payment_plan_id"`
	PaymentPlan           *PaymentPlan       `gorm:"foreignKey:PaymentPlanID;constraint:OnDelete:CASCADE" json:"payment_plan,omitempty"`
	Status                SubscriptionStatus `gorm:"type:varchar(20);not null;index:idx_member_subscription_status_expiry" json:"status"`
	SubscribedAt          time.Time          `gorm:"not null" json:"subscribed_at"`
	ActivatedAt           *time.Time         `json:"activated_at,omitempty"`
	ExpiresAt             *time.Time         `gorm:"index:idx_member_subscription_status_expiry" json:"expires_at,omitempty"`
	CancelledAt           *time.Time         `json:"cancelled_at,omitempty"`
	StripeSubscriptionID  *string            `gorm:"size:255" json:"stripe_subscription_id,omitempty"`
	StripeCustomerID      *string            `gorm:"size:255" json:"stripe_customer_id,omitempty"`
	StripePaymentIntentID *string            `gorm:"size:255" json:"stripe_payment_intent_id,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

func (CommunityMemberSubscription) TableName() string {
	return "CommunityMemberSubscription"
}

// IsActive reports whether the subscription is active and not past its expiry at now.
func (s *CommunityMemberSubscription) IsActive(now time.Time) bool {
	return subscriptionActive(s.Status, s.ExpiresAt, now)
}

// DaysUntilExpiry returns whole days left before expiry, floored at zero.
// The second result is false for subscriptions without an expiry.
func (s *CommunityMemberSubscription) DaysUntilExpiry(now time.Time) (int, bool) {
	if s.ExpiresAt == nil {
		return 0, false
	}
	days := int(math.Floor(s.ExpiresAt.Sub(now).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return days, true
}

func subscriptionActive(status SubscriptionStatus, expiresAt *time.Time, now time.Time) bool {
	if status != SubscriptionActive {
		return false
	}
	return expiresAt == nil || !expiresAt.Before(now)
}

// TransactionType says which subscription kind a transaction pays for.
type TransactionType string

const (
	TransactionAppSubscription             TransactionType = "app_subscription"
	TransactionCommunityMemberSubscription TransactionType = "community_member_subscription"
)

func (t TransactionType) Valid() bool {
	return t == TransactionAppSubscription || t == TransactionCommunityMemberSubscription
}

// DefaultCurrency is applied to transactions created without one.
const DefaultCurrency = "USD"

// PaymentTransaction is a single payment against exactly one subscription.
type PaymentTransaction struct {
	ID                            uint                         `gorm:"primaryKey" json:"id"`
	TransactionType               TransactionType              `gorm:"type:varchar(50);not null" json:"transaction_type"`
	AppSubscriptionID             *uint                        `gorm:"index:idx_transaction_app_status" json:"app_subscription_id,omitempty"`
	AppSubscription               *AppSubscription             `gorm:"foreignKey:AppSubscriptionID;constraint:OnDelete:CASCADE" json:"-"`
	CommunityMemberSubscriptionID *uint                        `gorm:"index:idx_transaction_member_status" json:"community_member_subscription_id,omitempty"`
	CommunityMemberSubscription   *CommunityMemberSubscription `gorm:"foreignKey:CommunityMemberSubscriptionID;constraint:OnDelete:CASCADE" json:"-"`
	TotalAmount                   float64                      `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	PlatformFee                   float64                      `gorm:"type:decimal(10,2);not null" json:"platform_fee"`
	OwnerAmount                   float64                      `gorm:"type:decimal(10,2);not null" json:"owner_amount"`
	Currency                      string                       `gorm:"size:3;not null" json:"currency"`
	Status                        TransactionStatus            `gorm:"type:varchar(20);not null;index:idx_transaction_app_status;index:idx_transaction_member_status" json:"status"`
	StripePaymentIntentID         string                       `gorm:"size:255;not null;uniqueIndex" json:"stripe_payment_intent_id"`
	StripeChargeID                *string                      `gorm:"size:255" json:"stripe_charge_id,omitempty"`
	TransferredToOwner            bool                         `gorm:"not null;index" json:"transferred_to_owner"`
	TransferredAt                 *time.Time                   `json:"transferred_at,omitempty"`
	StripeTransferID              *string                      `gorm:"size:255" json:"stripe_transfer_id,omitempty"`
	CreatedAt                     time.Time                    `json:"created_at"`
	CompletedAt                   *time.Time                   `json:"completed_at,omitempty"`
}

func (PaymentTransaction) TableName() string {
	return "PaymentTransaction"
}

// SplitCommunityPayment divides a member payment into the platform fee and the owner's share.
// The fee is rounded to cents and the owner receives the remainder.
func SplitCommunityPayment(total, feePercent float64) (platformFee, ownerAmount float64) {
	platformFee = RoundCents(total * feePercent / 100)
	ownerAmount = RoundCents(total - platformFee)
	return platformFee, ownerAmount
}

// RoundCents rounds a money amount to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
