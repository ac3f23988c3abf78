package models

import (
	"time"

	"gorm.io/datatypes"
)

// Community is a tenant of the platform, addressed by its alias.
type Community struct {
	ID                                uint      `gorm:"primaryKey" json:"id"`
	Name                              string    `gorm:"size:255;not null" json:"name"`
	Alias                             string    `gorm:"size:255;not null;uniqueIndex" json:"alias"`
	Summary                           *string   `gorm:"size:500" json:"summary,omitempty"`
	Description                       *string   `gorm:"type:text" json:"description,omitempty"`
	PublicNotes                       *string   `gorm:"type:text" json:"public_notes,omitempty"`
	Category                          *string   `gorm:"size:100" json:"category,omitempty"`
	IsOpen                            bool      `gorm:"not null" json:"is_open"`
	RestrictPostingToOwnersModerators bool      `gorm:"not null" json:"restrict_posting_to_owners_moderators"`
	UseLogoOnly                       bool      `gorm:"not null" json:"use_logo_only"`
	AvatarURL                         *string   `gorm:"size:200" json:"avatar_url,omitempty"`
	BannerURL                         *string   `gorm:"size:200" json:"banner_url,omitempty"`
	Tags                              []Tag     `gorm:"many2many:Community_tags;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
	CreatedAt                         time.Time `gorm:"index" json:"created_at"`
	UpdatedAt                         time.Time `json:"updated_at"`
}

func (Community) TableName() string {
	return "Community"
}

// MemberRole is a member's standing inside one community.
type MemberRole string

const (
	RoleOwner       MemberRole = "owner"
	RoleCoOwner     MemberRole = "co_owner"
	RoleModerator   MemberRole = "moderator"
	RoleContributor MemberRole = "contributor"
	RoleMember      MemberRole = "member"
	RoleApplicant   MemberRole = "applicant"
)

// Valid reports whether r is one of the known membership roles.
func (r MemberRole) Valid() bool {
	switch r {
	case RoleOwner, RoleCoOwner, RoleModerator, RoleContributor, RoleMember, RoleApplicant:
		return true
	}
	return false
}

// IsStaff reports whether the role may moderate community content.
func (r MemberRole) IsStaff() bool {
	return r == RoleOwner || r == RoleCoOwner || r == RoleModerator
}

// CommunityMember links a user to a community. The partial unique index on
// community_id only covers owner rows, so at most one owner exists per community.
type CommunityMember struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;uniqueIndex:idx_community_member_user" json:"user_id"`
	User         *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CommunityID  uint       `gorm:"not null;uniqueIndex:idx_community_member_user;uniqueIndex:idx_community_single_owner,where:role = 'owner'" json:"community_id"`
	Community    *Community `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	Role         MemberRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt     time.Time  `gorm:"not null;index" json:"joined_at"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	ApprovedByID *uint      `json:"approved_by_id,omitempty"`
	ApprovedBy   *User      `gorm:"foreignKey:ApprovedByID;constraint:OnDelete:SET NULL" json:"-"`
	IsBlocked    bool       `gorm:"not null" json:"is_blocked"`
	BlockedAt    *time.Time `json:"blocked_at,omitempty"`
	BlockedByID  *uint      `json:"blocked_by_id,omitempty"`
	BlockedBy    *User      `gorm:"foreignKey:BlockedByID;constraint:OnDelete:SET NULL" json:"-"`
}

func (CommunityMember) TableName() string {
	return "CommunityMember"
}

// CommunityLike records that a user liked a community.
type CommunityLike struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;uniqueIndex:idx_community_like_user" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CommunityID uint       `gorm:"not null;uniqueIndex:idx_community_like_user" json:"community_id"`
	Community   *Community `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (CommunityLike) TableName() string {
	return "CommunityLike"
}

// Default rows provisioned for every new community.
const (
	DefaultPlanName         = "hobby plan"
	DefaultPlanDescription  = "Default free plan for the community"
	DefaultForumName        = "town_hall"
	DefaultForumDescription = "Town Hall discussion forum for the community"
)

// PaymentPlan is a community-defined paid (or free) access tier.
type PaymentPlan struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CommunityID uint           `gorm:"not null;uniqueIndex:idx_payment_plan_name" json:"community_id"`
	Community   *Community     `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	Name        string         `gorm:"size:255;not null;uniqueIndex:idx_payment_plan_name" json:"name"`
	Description *string        `gorm:"type:text" json:"description,omitempty"`
	Fee         float64        `gorm:"type:decimal(10,2);not null" json:"fee"`
	IsRecurring bool           `gorm:"not null" json:"is_recurring"`
	IsFree      bool           `gorm:"not null" json:"is_free"`
	Offerings   datatypes.JSON `json:"offerings"`
	IsActive    bool           `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (PaymentPlan) TableName() string {
	return "PaymentPlan"
}

// Normalize applies the free-plan rule: a free plan costs nothing and never recurs.
func (p *PaymentPlan) Normalize() {
	if p.IsFree {
		p.Fee = 0
		p.IsRecurring = false
	}
	if len(p.Offerings) == 0 {
		p.Offerings = datatypes.JSON("{}")
	}
}

// UserPaymentPlan tracks the plan a user picked in a community.
type UserPaymentPlan struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	UserID        uint         `gorm:"not null;uniqueIndex:idx_user_payment_plan" json:"user_id"`
	User          *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CommunityID   uint         `gorm:"not null;uniqueIndex:idx_user_payment_plan" json:"community_id"`
	Community     *Community   `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	PaymentPlanID uint         `gorm:"not null;index" json:"payment_plan_id"`
	PaymentPlan   *PaymentPlan `gorm:"foreignKey:PaymentPlanID;constraint:OnDelete:CASCADE" json:"payment_plan,omitempty"`
	SubscribedAt  time.Time    `gorm:"not null" json:"subscribed_at"`
	// ExpiresAt is nil for lifetime plans.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	IsActive  bool       `gorm:"not null" json:"is_active"`
}

func (UserPaymentPlan) TableName() string {
	return "UserPaymentPlan"
}

// FeaturedContentType is the media kind of a featured content row.
type FeaturedContentType string

const (
	FeaturedImage FeaturedContentType = "image"
	FeaturedVideo FeaturedContentType = "video"
)

func (t FeaturedContentType) Valid() bool {
	return t == FeaturedImage || t == FeaturedVideo
}

// CommunityFeaturedContent is an image or video shown on the community page.
type CommunityFeaturedContent struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	CommunityID uint                `gorm:"not null;index:idx_featured_community_active" json:"community_id"`
	Community   *Community          `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	ContentType FeaturedContentType `gorm:"type:varchar(20);not null" json:"content_type"`
	Title       *string             `gorm:"size:255" json:"title,omitempty"`
	Description *string             `gorm:"type:text" json:"description,omitempty"`
	ImageURL    *string             `gorm:"size:200" json:"image_url,omitempty"`
	VideoURL    *string             `gorm:"size:200" json:"video_url,omitempty"`
	Order       int                 `gorm:"not null" json:"order"`
	IsActive    bool                `gorm:"not null;index:idx_featured_community_active" json:"is_active"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (CommunityFeaturedContent) TableName() string {
	return "CommunityFeaturedContent"
}

// Validate enforces the media URL required by the content type.
func (c *CommunityFeaturedContent) Validate() error {
	switch c.ContentType {
	case FeaturedImage:
		if c.ImageURL == nil || *c.ImageURL == "" {
			return NewFieldValidationError("image_url", "Image URL is required when content_type is image")
		}
	case FeaturedVideo:
		if c.VideoURL == nil || *c.VideoURL == "" {
			return NewFieldValidationError("video_url", "Video URL is required when content_type is video")
		}
	default:
		return NewFieldValidationError("content_type", "content_type must be image or video")
	}
	return nil
}
