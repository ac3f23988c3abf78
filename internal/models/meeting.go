package models

import "time"

// Meeting is a scheduled community event, optionally limited to some payment plans.
type Meeting struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	CommunityID   uint          `gorm:"not null;index" json:"community_id"`
	Community     *Community    `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	Title         string        `gorm:"size:255;not null" json:"title"`
	Description   *string       `gorm:"type:text" json:"description,omitempty"`
	StartDatetime time.Time     `gorm:"not null;index" json:"start_datetime"`
	EndDatetime   time.Time     `gorm:"not null" json:"end_datetime"`
	Location      *string       `gorm:"size:500" json:"location,omitempty"`
	MeetingURL    *string       `gorm:"size:200" json:"meeting_url,omitempty"`
	CreatedByID   uint          `gorm:"not null;index" json:"created_by_id"`
	CreatedBy     *User         `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE" json:"-"`
	PaymentPlans  []PaymentPlan `gorm:"many2many:Meeting_payment_plans;constraint:OnDelete:CASCADE" json:"payment_plans,omitempty"`
	Attendees     []User        `gorm:"many2many:Meeting_attendees;constraint:OnDelete:CASCADE" json:"attendees,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (Meeting) TableName() string {
	return "Meeting"
}
