// Package notifications publishes domain events on Redis channels so that a
// realtime gateway can fan them out to connected clients.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"rockae/internal/models"
	"rockae/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Event kinds carried in Event.Type.
const (
	EventChatMessage  = "chat_message"
	EventHandoffDone  = "wheel_handoff_done"
	EventHandoffAcked = "wheel_handoff_acknowledged"
)

const (
	userChannelPrefix = "notifications:user:"
	convChannelPrefix = "chat:conv:"
)

// Event is the JSON envelope published on every channel.
type Event struct {
	Type    string    `json:"type"`
	SentAt  time.Time `json:"sent_at"`
	Payload any       `json:"payload"`
}

// Notifier publishes events through Redis. A nil client turns every call into a no-op.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier over rdb, which may be nil.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ConversationChannel derives the Redis channel name for a conversation.
func ConversationChannel(conversationID uint) string {
	return convChannelPrefix + strconv.FormatUint(uint64(conversationID), 10)
}

func (n *Notifier) publish(ctx context.Context, channel, kind string, payload any) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	body, err := json.Marshal(Event{Type: kind, SentAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", kind, err)
	}
	if err := n.rdb.Publish(ctx, channel, body).Err(); err != nil {
		observability.RedisErrorRate.WithLabelValues("publish").Inc()
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// PublishChatMessage announces a stored message to its conversation channel.
func (n *Notifier) PublishChatMessage(ctx context.Context, msg *models.Message) error {
	return n.publish(ctx, ConversationChannel(msg.ConversationID), EventChatMessage, msg)
}

// PublishUser sends an event to a single user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, kind string, payload any) error {
	return n.publish(ctx, UserChannel(userID), kind, payload)
}

// Subscribe listens on the user and conversation channel patterns and calls
// onMessage for each payload until ctx is cancelled. Panics in onMessage are
// logged and do not stop the subscription.
func (n *Notifier) Subscribe(ctx context.Context, onMessage func(channel, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*", convChannelPrefix+"*")
	// Wait for the subscription to be confirmed so no early publish is lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				deliver(msg, onMessage)
			}
		}
	}()
	return nil
}

func deliver(msg *redis.Message, onMessage func(channel, payload string)) {
	defer func() {
		if r := recover(); r != nil {
			observability.Logger.Error("panic in notification subscriber",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	onMessage(msg.Channel, msg.Payload)
}
