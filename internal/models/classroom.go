package models

import "time"

// Classroom is a course inside a community. Name follows the slug pattern and is unique per community.
type Classroom struct {
	ID                 uint          `gorm:"primaryKey" json:"id"`
	CommunityID        uint          `gorm:"not null;uniqueIndex:idx_classroom_community_name" json:"community_id"`
	Community          *Community    `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	Name               string        `gorm:"size:255;not null;uniqueIndex:idx_classroom_community_name" json:"name"`
	Title              string        `gorm:"size:255;not null" json:"title"`
	Description        *string       `gorm:"type:text" json:"description,omitempty"`
	BannerURL          *string       `gorm:"size:200" json:"banner_url,omitempty"`
	PaymentPlans       []PaymentPlan `gorm:"many2many:Classroom_payment_plans;constraint:OnDelete:CASCADE" json:"payment_plans,omitempty"`
	EnforceProgression bool          `gorm:"not null" json:"enforce_progression"`
	IssueCertificate   bool          `gorm:"not null" json:"issue_certificate"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

func (Classroom) TableName() string {
	return "Classroom"
}

// ContentType classifies classroom content.
type ContentType string

const (
	ContentVideo    ContentType = "video"
	ContentDocument ContentType = "document"
	ContentArticle  ContentType = "article"
	ContentLink     ContentType = "link"
	ContentOther    ContentType = "other"
)

func (c ContentType) Valid() bool {
	switch c {
	case ContentVideo, ContentDocument, ContentArticle, ContentLink, ContentOther:
		return true
	}
	return false
}

// ClassroomContent is one lesson. Lower Order values come first.
type ClassroomContent struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	ClassroomID uint        `gorm:"not null;index" json:"classroom_id"`
	Classroom   *Classroom  `gorm:"foreignKey:ClassroomID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string      `gorm:"size:255;not null" json:"title"`
	Description *string     `gorm:"type:text" json:"description,omitempty"`
	Notes       *string     `gorm:"type:text" json:"notes,omitempty"`
	ContentURL  *string     `gorm:"size:200" json:"content_url,omitempty"`
	ContentType ContentType `gorm:"type:varchar(20);not null" json:"content_type"`
	IsActive    bool        `gorm:"not null" json:"is_active"`
	Order       int         `gorm:"not null" json:"order"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (ClassroomContent) TableName() string {
	return "ClassroomContent"
}

// AttachmentType classifies classroom attachments.
type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentVideo AttachmentType = "video"
	AttachmentPDF   AttachmentType = "pdf"
	AttachmentFile  AttachmentType = "file"
)

func (a AttachmentType) Valid() bool {
	switch a {
	case AttachmentImage, AttachmentVideo, AttachmentPDF, AttachmentFile:
		return true
	}
	return false
}

type ClassroomAttachment struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	ContentID   uint              `gorm:"not null;index" json:"content_id"`
	Content     *ClassroomContent `gorm:"foreignKey:ContentID;constraint:OnDelete:CASCADE" json:"-"`
	FileURL     string            `gorm:"size:200;not null" json:"file_url"`
	FileType    AttachmentType    `gorm:"type:varchar(10);not null" json:"file_type"`
	Description *string           `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (ClassroomAttachment) TableName() string {
	return "ClassroomAttachment"
}

// ClassroomContentCompletion marks a lesson as finished by a user.
type ClassroomContentCompletion struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	ContentID   uint              `gorm:"not null;uniqueIndex:idx_content_completion_user" json:"content_id"`
	Content     *ClassroomContent `gorm:"foreignKey:ContentID;constraint:OnDelete:CASCADE" json:"-"`
	UserID      uint              `gorm:"not null;uniqueIndex:idx_content_completion_user" json:"user_id"`
	User        *User             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CompletedAt time.Time         `gorm:"not null" json:"completed_at"`
}

func (ClassroomContentCompletion) TableName() string {
	return "ClassroomContentCompletion"
}

// ClassroomCertificate is issued once per user per classroom.
type ClassroomCertificate struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ClassroomID    uint       `gorm:"not null;uniqueIndex:idx_classroom_certificate_user" json:"classroom_id"`
	Classroom      *Classroom `gorm:"foreignKey:ClassroomID;constraint:OnDelete:CASCADE" json:"-"`
	UserID         uint       `gorm:"not null;uniqueIndex:idx_classroom_certificate_user" json:"user_id"`
	User           *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CertificateURL *string    `gorm:"size:200" json:"certificate_url,omitempty"`
	IssuedAt       time.Time  `gorm:"not null" json:"issued_at"`
}

func (ClassroomCertificate) TableName() string {
	return "ClassroomCertificate"
}

// ClassroomProgress summarizes how far a user is through a classroom.
type ClassroomProgress struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
}

// Percent returns completion as a value between 0 and 100.
func (p ClassroomProgress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) * 100 / float64(p.Total)
}
