package service

import (
	"context"
	"testing"

	"rockae/internal/models"
	"rockae/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateConversation_NeedsTwoMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Talkers")
	friend := env.member(t, c.ID, models.RoleMember)
	stranger := testutil.CreateUser(t, env.db, "stranger")

	_, err := env.chats.CreateConversation(ctx, owner.ID, c.ID, nil)
	assertFieldError(t, err, "participants")
	_, err = env.chats.CreateConversation(ctx, owner.ID, c.ID, []uint{owner.ID})
	assertFieldError(t, err, "participants")
	_, err = env.chats.CreateConversation(ctx, owner.ID, c.ID, []uint{stranger.ID})
	assertFieldError(t, err, "participants")

	conv, err := env.chats.CreateConversation(ctx, owner.ID, c.ID, []uint{friend.ID, friend.ID})
	require.NoError(t, err)

	convs, err := env.chats.ListConversations(ctx, friend.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, conv.ID, convs[0].ID)
	assert.Len(t, convs[0].Participants, 2)
}

func TestChatMessages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Talkers")
	friend := env.member(t, c.ID, models.RoleMember)
	outsider := env.member(t, c.ID, models.RoleMember)
	conv, err := env.chats.CreateConversation(ctx, owner.ID, c.ID, []uint{friend.ID})
	require.NoError(t, err)

	msg, err := env.chats.SendMessage(ctx, owner.ID, conv.ID, "", "hi there")
	require.NoError(t, err)
	assert.Equal(t, models.MessageText, msg.MessageType)
	_, err = env.chats.SendMessage(ctx, owner.ID, conv.ID, models.MessageImage, "https://cdn.example.com/cat.png")
	require.NoError(t, err)

	_, err = env.chats.SendMessage(ctx, owner.ID, conv.ID, "sticker", "x")
	assertFieldError(t, err, "message_type")
	_, err = env.chats.SendMessage(ctx, owner.ID, conv.ID, models.MessageText, "   ")
	assertFieldError(t, err, "content")
	_, err = env.chats.SendMessage(ctx, outsider.ID, conv.ID, models.MessageText, "let me in")
	assertCode(t, err, models.CodeForbidden)
	_, err = env.chats.SendMessage(ctx, owner.ID, 9999, models.MessageText, "void")
	assertCode(t, err, models.CodeNotFound)

	n, err := env.chats.MarkRead(ctx, owner.ID, conv.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = env.chats.MarkRead(ctx, friend.ID, conv.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	msgs, err := env.chats.ListMessages(ctx, friend.ID, conv.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	p, err := env.chats.SetMuted(ctx, friend.ID, conv.ID, true)
	require.NoError(t, err)
	assert.True(t, p.IsMuted)
}
