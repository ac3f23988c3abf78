package models

import "time"

// WheelMode decides who acts for whom.
type WheelMode string

const (
	// WheelChain has each participant act for the next one.
	WheelChain WheelMode = "chain"
	// WheelCollective has everyone act for one recipient, then rotate.
	WheelCollective WheelMode = "collective"
)

func (m WheelMode) Valid() bool {
	return m == WheelChain || m == WheelCollective
}

// Wheel is an ordered favor exchange among community members.
type Wheel struct {
	ID                   uint        `gorm:"primaryKey" json:"id"`
	CommunityID          uint        `gorm:"not null;index" json:"community_id"`
	Community            *Community  `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedByID          uint        `gorm:"not null;index" json:"created_by_id"`
	CreatedBy            *User       `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE" json:"-"`
	Title                *string     `gorm:"size:255" json:"title,omitempty"`
	RequestMessage       string      `gorm:"type:text;not null" json:"request_message"`
	Status               WheelStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Mode                 WheelMode   `gorm:"type:varchar(20);not null" json:"mode"`
	MaxFavorDurationDays *float64    `gorm:"type:decimal(5,2)" json:"max_favor_duration_days,omitempty"`
	MaxMembers           *uint       `json:"max_members,omitempty"`
	Notes                *string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

func (Wheel) TableName() string {
	return "Wheel"
}

// WheelParticipant holds a 1-based position unique within its wheel.
type WheelParticipant struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	WheelID           uint           `gorm:"not null;uniqueIndex:idx_wheel_participant_user;uniqueIndex:idx_wheel_participant_order" json:"wheel_id"`
	Wheel             *Wheel         `gorm:"foreignKey:WheelID;constraint:OnDelete:CASCADE" json:"-"`
	UserID            uint           `gorm:"not null;uniqueIndex:idx_wheel_participant_user" json:"user_id"`
	User              *User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Order             uint           `gorm:"not null;uniqueIndex:idx_wheel_participant_order" json:"order"`
	PreferenceMessage *string        `gorm:"type:text" json:"preference_message,omitempty"`
	ApprovalStatus    ApprovalStatus `gorm:"type:varchar(20);not null" json:"approval_status"`
	ApprovedByID      *uint          `json:"approved_by_id,omitempty"`
	ApprovedBy        *User          `gorm:"foreignKey:ApprovedByID;constraint:OnDelete:SET NULL" json:"-"`
	ApprovedAt        *time.Time     `json:"approved_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

func (WheelParticipant) TableName() string {
	return "WheelParticipant"
}

// WheelHandoff is one step: the from participant does the request for the to participant.
type WheelHandoff struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	WheelID           uint              `gorm:"not null;uniqueIndex:idx_wheel_handoff_from" json:"wheel_id"`
	Wheel             *Wheel            `gorm:"foreignKey:WheelID;constraint:OnDelete:CASCADE" json:"-"`
	FromParticipantID uint              `gorm:"not null;uniqueIndex:idx_wheel_handoff_from" json:"from_participant_id"`
	FromParticipant   *WheelParticipant `gorm:"foreignKey:FromParticipantID;constraint:OnDelete:CASCADE" json:"from_participant,omitempty"`
	ToParticipantID   uint              `gorm:"not null;index" json:"to_participant_id"`
	ToParticipant     *WheelParticipant `gorm:"foreignKey:ToParticipantID;constraint:OnDelete:CASCADE" json:"to_participant,omitempty"`
	Status            HandoffStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Note              *string           `gorm:"type:text" json:"note,omitempty"`
	AcknowledgedAt    *time.Time        `json:"acknowledged_at,omitempty"`
	AcknowledgedByID  *uint             `json:"acknowledged_by_id,omitempty"`
	AcknowledgedBy    *User             `gorm:"foreignKey:AcknowledgedByID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (WheelHandoff) TableName() string {
	return "WheelHandoff"
}

// WheelHandoffAttachment is evidence uploaded by the giver.
type WheelHandoffAttachment struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	WheelHandoffID uint          `gorm:"not null;index" json:"wheel_handoff_id"`
	WheelHandoff   *WheelHandoff `gorm:"foreignKey:WheelHandoffID;constraint:OnDelete:CASCADE" json:"-"`
	FileURL        string        `gorm:"size:200;not null" json:"file_url"`
	FileType       MediaType     `gorm:"type:varchar(10);not null" json:"file_type"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (WheelHandoffAttachment) TableName() string {
	return "WheelHandoffAttachment"
}

// HandoffPlan is a planned giver/receiver pair expressed as participant positions.
type HandoffPlan struct {
	From uint
	To   uint
}
