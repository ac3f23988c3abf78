package models

import "time"

// Rating bounds for community feedback.
const (
	MinFeedbackRating = 1
	MaxFeedbackRating = 5
)

// CommunityFeedback is one user's star rating of a community. Users update it in place.
type CommunityFeedback struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;uniqueIndex:idx_feedback_user_community" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CommunityID uint       `gorm:"not null;uniqueIndex:idx_feedback_user_community;index" json:"community_id"`
	Community   *Community `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	Rating      int        `gorm:"type:smallint;not null" json:"rating"`
	Message     *string    `gorm:"type:text" json:"message,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (CommunityFeedback) TableName() string {
	return "CommunityFeedback"
}

// CommunityLeaveReason is collected each time a user leaves a community.
type CommunityLeaveReason struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CommunityID uint       `gorm:"not null;index" json:"community_id"`
	Community   *Community `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	UserID      *uint      `json:"user_id,omitempty"`
	User        *User      `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
	FirstName   string     `gorm:"size:150;not null" json:"first_name"`
	LastName    string     `gorm:"size:150;not null" json:"last_name"`
	MiddleName  string     `gorm:"size:150;not null" json:"middle_name"`
	Email       string     `gorm:"size:254;not null" json:"email"`
	PhoneNumber string     `gorm:"size:50;not null" json:"phone_number"`
	Reason      string     `gorm:"type:text;not null" json:"reason"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

func (CommunityLeaveReason) TableName() string {
	return "CommunityLeaveReason"
}
