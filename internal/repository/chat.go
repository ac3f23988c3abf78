package repository

import (
	"context"
	"time"

	"rockae/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository defines persistence operations for conversations and messages.
type ChatRepository interface {
	CreateConversation(ctx context.Context, conv *models.Conversation, userIDs []uint) error
	GetConversation(ctx context.Context, id uint) (*models.Conversation, error)
	ListConversations(ctx context.Context, communityID, userID uint) ([]models.Conversation, error)
	GetParticipant(ctx context.Context, conversationID, userID uint) (*models.ConversationParticipant, error)
	UpdateParticipant(ctx context.Context, p *models.ConversationParticipant) error

	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID uint, limit, offset int) ([]models.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID uint, at time.Time) (int64, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// CreateConversation inserts the conversation and one participant row per user.
func (r *chatRepository) CreateConversation(ctx context.Context, conv *models.Conversation, userIDs []uint) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(conv).Error; err != nil {
			return models.NewInternalError(err)
		}
		now := time.Now().UTC()
		participants := make([]models.ConversationParticipant, 0, len(userIDs))
		for _, id := range userIDs {
			participants = append(participants, models.ConversationParticipant{
				ConversationID: conv.ID,
				UserID:         id,
				JoinedAt:       now,
			})
		}
		if err := tx.Omit(clause.Associations).Create(&participants).Error; err != nil {
			return writeError(err, "Duplicate conversation participant.")
		}
		conv.Participants = participants
		return nil
	})
}

func (r *chatRepository) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	var c models.Conversation
	if err := conn(ctx, r.db).Preload("Participants").First(&c, id).Error; err != nil {
		return nil, readError(err, "Conversation", id)
	}
	return &c, nil
}

// ListConversations returns the user's conversations in a community, most recently active first.
func (r *chatRepository) ListConversations(ctx context.Context, communityID, userID uint) ([]models.Conversation, error) {
	var out []models.Conversation
	err := conn(ctx, r.db).Preload("Participants").
		Where("community_id = ?", communityID).
		Where("id IN (?)", conn(ctx, r.db).Model(&models.ConversationParticipant{}).
			Select("conversation_id").Where("user_id = ?", userID)).
		Order("last_message_at DESC").Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// GetParticipant returns nil, nil when the user is not in the conversation.
func (r *chatRepository) GetParticipant(ctx context.Context, conversationID, userID uint) (*models.ConversationParticipant, error) {
	var p models.ConversationParticipant
	found, err := findOne(conn(ctx, r.db), &p, "conversation_id = ? AND user_id = ?", conversationID, userID)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (r *chatRepository) UpdateParticipant(ctx context.Context, p *models.ConversationParticipant) error {
	return writeError(conn(ctx, r.db).Omit(clause.Associations).Save(p).Error, "Could not update participant.")
}

// CreateMessage stores msg and bumps the conversation's last_message_at.
func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(msg).Error; err != nil {
			return models.NewInternalError(err)
		}
		err := tx.Model(&models.Conversation{}).Where("id = ?", msg.ConversationID).
			Update("last_message_at", msg.CreatedAt).Error
		if err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

func (r *chatRepository) ListMessages(ctx context.Context, conversationID uint, limit, offset int) ([]models.Message, error) {
	var out []models.Message
	err := conn(ctx, r.db).Where("conversation_id = ?", conversationID).
		Order("created_at DESC").Order("id DESC").Limit(pageBounds(limit)).Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// MarkRead flags messages from other senders as read and records the reader's last_read_at.
func (r *chatRepository) MarkRead(ctx context.Context, conversationID, readerID uint, at time.Time) (int64, error) {
	var updated int64
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
			Update("is_read", true)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		updated = res.RowsAffected
		err := tx.Model(&models.ConversationParticipant{}).
			Where("conversation_id = ? AND user_id = ?", conversationID, readerID).
			Update("last_read_at", at).Error
		if err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	return updated, err
}
