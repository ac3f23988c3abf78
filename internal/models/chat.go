package models

import "time"

// Conversation is a chat between two or more members of one community.
type Conversation struct {
	ID            uint                      `gorm:"primaryKey" json:"id"`
	CommunityID   uint                      `gorm:"not null;index" json:"community_id"`
	Community     *Community                `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	Participants  []ConversationParticipant `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	LastMessageAt *time.Time                `gorm:"index" json:"last_message_at,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

func (Conversation) TableName() string {
	return "Conversation"
}

// ConversationParticipant is the membership of a user in a conversation.
type ConversationParticipant struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	ConversationID uint          `gorm:"not null;uniqueIndex:idx_conversation_participant" json:"conversation_id"`
	Conversation   *Conversation `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
	UserID         uint          `gorm:"not null;uniqueIndex:idx_conversation_participant" json:"user_id"`
	User           *User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	JoinedAt       time.Time     `gorm:"not null" json:"joined_at"`
	LastReadAt     *time.Time    `json:"last_read_at,omitempty"`
	IsMuted        bool          `gorm:"not null" json:"is_muted"`
}

func (ConversationParticipant) TableName() string {
	return "ConversationParticipant"
}

// MessageType is the payload kind of a chat message.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageVideo MessageType = "video"
	MessageFile  MessageType = "file"
)

func (m MessageType) Valid() bool {
	switch m {
	case MessageText, MessageImage, MessageVideo, MessageFile:
		return true
	}
	return false
}

// Message is one chat message. Content holds text or a file URL depending on type.
type Message struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	ConversationID uint          `gorm:"not null;index" json:"conversation_id"`
	Conversation   *Conversation `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
	SenderID       uint          `gorm:"not null;index" json:"sender_id"`
	Sender         *User         `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
	MessageType    MessageType   `gorm:"type:varchar(10);not null" json:"message_type"`
	Content        string        `gorm:"type:text;not null" json:"content"`
	IsRead         bool          `gorm:"not null" json:"is_read"`
	CreatedAt      time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (Message) TableName() string {
	return "Message"
}
