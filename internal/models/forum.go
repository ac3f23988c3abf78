package models

import "time"

// Forum is a discussion board inside a community. Names are unique per community.
type Forum struct {
	ID                                uint          `gorm:"primaryKey" json:"id"`
	CommunityID                       uint          `gorm:"not null;uniqueIndex:idx_forum_community_name" json:"community_id"`
	Community                         *Community    `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	Name                              string        `gorm:"size:255;not null;uniqueIndex:idx_forum_community_name" json:"name"`
	Description                       *string       `gorm:"type:text" json:"description,omitempty"`
	RestrictPostingToOwnersModerators bool          `gorm:"not null" json:"restrict_posting_to_owners_moderators"`
	PaymentPlans                      []PaymentPlan `gorm:"many2many:Forum_payment_plans;constraint:OnDelete:CASCADE" json:"payment_plans,omitempty"`
	CreatedAt                         time.Time     `json:"created_at"`
	UpdatedAt                         time.Time     `json:"updated_at"`
}

func (Forum) TableName() string {
	return "Forum"
}

// Post is a forum message. ParentPostID is set on replies.
type Post struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ForumID      uint      `gorm:"not null;index" json:"forum_id"`
	Forum        *Forum    `gorm:"foreignKey:ForumID;constraint:OnDelete:CASCADE" json:"-"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	ParentPostID *uint     `gorm:"index" json:"parent_post_id,omitempty"`
	ParentPost   *Post     `gorm:"foreignKey:ParentPostID;constraint:OnDelete:CASCADE" json:"-"`
	Message      string    `gorm:"type:text;not null" json:"message"`
	AllowReplies bool      `gorm:"not null" json:"allow_replies"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Post) TableName() string {
	return "Post"
}

// MediaType is the kind of an uploaded attachment.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

func (m MediaType) Valid() bool {
	return m == MediaImage || m == MediaVideo
}

// PostAttachment is an image or video attached to a forum post.
type PostAttachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	FileURL   string    `gorm:"size:200;not null" json:"file_url"`
	FileType  MediaType `gorm:"type:varchar(10);not null" json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostAttachment) TableName() string {
	return "PostAttachment"
}

// PostLike records one user's like on a forum post.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_like_user" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_like_user" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostLike) TableName() string {
	return "PostLike"
}
