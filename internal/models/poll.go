package models

import "time"

// MinPollOptions is the smallest number of choices a poll may offer.
const MinPollOptions = 2

// Poll is a community vote, optionally limited to some payment plans.
type Poll struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	CommunityID  uint          `gorm:"not null;index" json:"community_id"`
	Community    *Community    `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	Title        string        `gorm:"size:255;not null" json:"title"`
	Description  *string       `gorm:"type:text" json:"description,omitempty"`
	PaymentPlans []PaymentPlan `gorm:"many2many:Poll_payment_plans;constraint:OnDelete:CASCADE" json:"payment_plans,omitempty"`
	Options      []PollOption  `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
	IsActive     bool          `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (Poll) TableName() string {
	return "Poll"
}

type PollOption struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PollID    uint      `gorm:"not null;index" json:"poll_id"`
	Poll      *Poll     `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE" json:"-"`
	Text      string    `gorm:"size:255;not null" json:"text"`
	Order     int       `gorm:"not null" json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

func (PollOption) TableName() string {
	return "PollOption"
}

// PollVote is a user's single choice in a poll.
type PollVote struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	PollID    uint        `gorm:"not null;uniqueIndex:idx_poll_vote_user" json:"poll_id"`
	Poll      *Poll       `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE" json:"-"`
	OptionID  uint        `gorm:"not null;index" json:"option_id"`
	Option    *PollOption `gorm:"foreignKey:OptionID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint        `gorm:"not null;uniqueIndex:idx_poll_vote_user" json:"user_id"`
	User      *User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time   `json:"created_at"`
}

func (PollVote) TableName() string {
	return "PollVote"
}

// PollResult is the vote tally for one option.
type PollResult struct {
	OptionID uint   `json:"option_id"`
	Text     string `json:"text"`
	Votes    int64  `json:"votes"`
}
