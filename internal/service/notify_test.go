package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"rockae/internal/models"
	"rockae/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	userID uint
	kind   string
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []*models.Message
	events   []published
	err      error
}

func (p *recordingPublisher) PublishChatMessage(_ context.Context, msg *models.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

func (p *recordingPublisher) PublishUser(_ context.Context, userID uint, kind string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{userID: userID, kind: kind})
	return p.err
}

func TestSendMessage_Publishes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Realtime")
	friend := env.member(t, c.ID, models.RoleMember)
	rec := &recordingPublisher{}
	env.chats.WithPublisher(rec)

	conv, err := env.chats.CreateConversation(ctx, owner.ID, c.ID, []uint{friend.ID})
	require.NoError(t, err)
	msg, err := env.chats.SendMessage(ctx, owner.ID, conv.ID, models.MessageText, "hello")
	require.NoError(t, err)
	require.Len(t, rec.messages, 1)
	assert.Equal(t, msg.ID, rec.messages[0].ID)

	// A failed publish does not undo the stored message.
	rec.err = errors.New("redis down")
	_, err = env.chats.SendMessage(ctx, owner.ID, conv.ID, models.MessageText, "still here")
	require.NoError(t, err)
	msgs, err := env.chats.ListMessages(ctx, friend.ID, conv.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestHandoff_PublishesToCounterparty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Favors")
	giver := env.member(t, c.ID, models.RoleMember)
	receiver := env.member(t, c.ID, models.RoleMember)
	rec := &recordingPublisher{}
	env.wheels.WithPublisher(rec)

	wheel, err := env.wheels.CreateWheel(ctx, owner.ID, c.ID, WheelInput{RequestMessage: "Water the plants"})
	require.NoError(t, err)
	for _, u := range []*models.User{giver, receiver} {
		_, err := env.wheels.AddParticipant(ctx, owner.ID, wheel.ID, u.ID, nil)
		require.NoError(t, err)
	}
	_, err = env.wheels.TransitionStatus(ctx, owner.ID, wheel.ID, models.WheelInProgress)
	require.NoError(t, err)
	handoffs, err := env.wheels.CreateHandoffs(ctx, owner.ID, wheel.ID, 0)
	require.NoError(t, err)
	require.Len(t, handoffs, 1)

	_, err = env.wheels.MarkActionDone(ctx, giver.ID, handoffs[0].ID, nil)
	require.NoError(t, err)
	_, err = env.wheels.Acknowledge(ctx, receiver.ID, handoffs[0].ID)
	require.NoError(t, err)

	assert.Equal(t, []published{
		{userID: receiver.ID, kind: notifications.EventHandoffDone},
		{userID: giver.ID, kind: notifications.EventHandoffAcked},
	}, rec.events)
}
