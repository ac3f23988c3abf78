package models

import "time"

// Slug placeholders used when a title normalizes to nothing.
const (
	BlogPostSlugPlaceholder          = "blog-post"
	CommunityBlogPostSlugPlaceholder = "community-blog-post"
)

// BlogPost is a platform-wide article (FAQs, stories). Slugs are globally unique.
type BlogPost struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Slug        string    `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	BlogMessage string    `gorm:"type:text;not null" json:"blog_message"`
	ImageURL    *string   `gorm:"size:200" json:"image_url,omitempty"`
	WriterID    *uint     `gorm:"index" json:"writer_id,omitempty"`
	Writer      *User     `gorm:"foreignKey:WriterID;constraint:OnDelete:SET NULL" json:"writer,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (BlogPost) TableName() string {
	return "BlogPost"
}

// CommunityBlogPost is an article owned by a community. Slugs are unique per community.
type CommunityBlogPost struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CommunityID uint       `gorm:"not null;uniqueIndex:idx_community_blog_slug" json:"community_id"`
	Community   *Community `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Slug        string     `gorm:"size:255;not null;uniqueIndex:idx_community_blog_slug" json:"slug"`
	Description *string    `gorm:"type:text" json:"description,omitempty"`
	BlogMessage string     `gorm:"type:text;not null" json:"blog_message"`
	ImageURL    *string    `gorm:"size:200" json:"image_url,omitempty"`
	WriterID    *uint      `gorm:"index" json:"writer_id,omitempty"`
	Writer      *User      `gorm:"foreignKey:WriterID;constraint:OnDelete:SET NULL" json:"writer,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (CommunityBlogPost) TableName() string {
	return "CommunityBlogPost"
}

// CommunityBlogPostReply is a comment on a community blog post. Membership is not required.
type CommunityBlogPostReply struct {
	ID                  uint               `gorm:"primaryKey" json:"id"`
	CommunityBlogPostID uint               `gorm:"not null;index" json:"community_blog_post_id"`
	CommunityBlogPost   *CommunityBlogPost `gorm:"foreignKey:CommunityBlogPostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID              uint               `gorm:"not null;index" json:"user_id"`
	User                *User              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Message             string             `gorm:"type:text;not null" json:"message"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

func (CommunityBlogPostReply) TableName() string {
	return "CommunityBlogPostReply"
}
