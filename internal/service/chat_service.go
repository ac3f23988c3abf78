package service

import (
	"context"
	"slices"

	"rockae/internal/models"
	"rockae/internal/notifications"
	"rockae/internal/repository"
)

// ChatService provides conversation and messaging business logic.
type ChatService struct {
	chats   repository.ChatRepository
	members repository.MembershipRepository
	notify  Publisher
}

func NewChatService(chats repository.ChatRepository, members repository.MembershipRepository) *ChatService {
	return &ChatService{chats: chats, members: members}
}

// WithPublisher announces sent messages through p.
func (s *ChatService) WithPublisher(p Publisher) *ChatService {
	s.notify = p
	return s
}

// CreateConversation opens a conversation between the creator and participantIDs.
// Everyone must be an active member of the community.
func (s *ChatService) CreateConversation(ctx context.Context, creatorID, communityID uint, participantIDs []uint) (*models.Conversation, error) {
	ids := append([]uint{creatorID}, participantIDs...)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if len(ids) < 2 {
		return nil, models.NewFieldValidationError("participants", "A conversation needs at least two participants.")
	}

	ok, err := s.members.AreMembers(ctx, communityID, ids)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewFieldValidationError("participants", "All participants must be members of the community.")
	}

	conv := &models.Conversation{CommunityID: communityID}
	if err := s.chats.CreateConversation(ctx, conv, ids); err != nil {
		return nil, err
	}
	return conv, nil
}

// ListConversations returns the user's conversations in a community.
func (s *ChatService) ListConversations(ctx context.Context, userID, communityID uint) ([]models.Conversation, error) {
	return s.chats.ListConversations(ctx, communityID, userID)
}

// SendMessage posts a message. Only participants may write.
func (s *ChatService) SendMessage(ctx context.Context, senderID, conversationID uint, kind models.MessageType, content string) (*models.Message, error) {
	if kind == "" {
		kind = models.MessageText
	}
	if !kind.Valid() {
		return nil, models.NewFieldValidationError("message_type", "message_type must be text, image, video or file.")
	}
	if trimmed(content) == "" {
		return nil, models.NewFieldValidationError("content", "This field is required.")
	}
	if _, err := s.participant(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		MessageType:    kind,
		Content:        content,
	}
	if err := s.chats.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	if s.notify != nil {
		logPublishError(ctx, notifications.EventChatMessage, s.notify.PublishChatMessage(ctx, msg))
	}
	return msg, nil
}

// ListMessages returns a page of messages, newest first.
func (s *ChatService) ListMessages(ctx context.Context, userID, conversationID uint, limit, offset int) ([]models.Message, error) {
	if _, err := s.participant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return s.chats.ListMessages(ctx, conversationID, limit, offset)
}

// MarkRead marks other participants' messages as read and returns how many changed.
func (s *ChatService) MarkRead(ctx context.Context, readerID, conversationID uint) (int64, error) {
	if _, err := s.participant(ctx, conversationID, readerID); err != nil {
		return 0, err
	}
	return s.chats.MarkRead(ctx, conversationID, readerID, now())
}

// SetMuted toggles notifications for the participant.
func (s *ChatService) SetMuted(ctx context.Context, userID, conversationID uint, muted bool) (*models.ConversationParticipant, error) {
	p, err := s.participant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if p.IsMuted == muted {
		return p, nil
	}
	p.IsMuted = muted
	if err := s.chats.UpdateParticipant(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ChatService) participant(ctx context.Context, conversationID, userID uint) (*models.ConversationParticipant, error) {
	p, err := s.chats.GetParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		if _, err := s.chats.GetConversation(ctx, conversationID); err != nil {
			return nil, err
		}
		return nil, models.NewForbiddenError("You are not a participant in this conversation.")
	}
	return p, nil
}
