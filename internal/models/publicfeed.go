package models

import "time"

// PublicFeed is a post on the public page of a community. ParentFeedID is set on replies.
type PublicFeed struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	CommunityID  uint        `gorm:"not null;index" json:"community_id"`
	Community    *Community  `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	PostedByID   uint        `gorm:"not null;index" json:"posted_by_id"`
	PostedBy     *User       `gorm:"foreignKey:PostedByID;constraint:OnDelete:CASCADE" json:"posted_by,omitempty"`
	ParentFeedID *uint       `gorm:"index" json:"parent_feed_id,omitempty"`
	ParentFeed   *PublicFeed `gorm:"foreignKey:ParentFeedID;constraint:OnDelete:CASCADE" json:"-"`
	Message      string      `gorm:"type:text;not null" json:"message"`
	AllowReplies bool        `gorm:"not null" json:"allow_replies"`
	CreatedAt    time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (PublicFeed) TableName() string {
	return "PublicFeeds"
}

type PublicFeedAttachment struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	PublicFeedID uint        `gorm:"not null;index" json:"public_feed_id"`
	PublicFeed   *PublicFeed `gorm:"foreignKey:PublicFeedID;constraint:OnDelete:CASCADE" json:"-"`
	FileURL      string      `gorm:"size:200;not null" json:"file_url"`
	FileType     MediaType   `gorm:"type:varchar(10);not null" json:"file_type"`
	CreatedAt    time.Time   `json:"created_at"`
}

func (PublicFeedAttachment) TableName() string {
	return "PublicFeedsAttachment"
}

type PublicFeedLike struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	UserID       uint        `gorm:"not null;uniqueIndex:idx_public_feed_like_user" json:"user_id"`
	User         *User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PublicFeedID uint        `gorm:"not null;uniqueIndex:idx_public_feed_like_user" json:"public_feed_id"`
	PublicFeed   *PublicFeed `gorm:"foreignKey:PublicFeedID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
}

func (PublicFeedLike) TableName() string {
	return "PublicFeedsLike"
}
