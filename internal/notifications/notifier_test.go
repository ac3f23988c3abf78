package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"rockae/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannels(t *testing.T) {
	assert.Equal(t, "notifications:user:42", UserChannel(42))
	assert.Equal(t, "chat:conv:5", ConversationChannel(5))
}

func TestNilNotifierIsNoop(t *testing.T) {
	ctx := context.Background()
	var unset *Notifier
	assert.NoError(t, unset.PublishUser(ctx, 1, EventHandoffDone, nil))
	assert.NoError(t, NewNotifier(nil).PublishChatMessage(ctx, &models.Message{ConversationID: 1}))
	assert.NoError(t, NewNotifier(nil).Subscribe(ctx, func(string, string) {}))
}

type delivery struct {
	channel string
	event   Event
}

func TestPublishAndSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	n := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan delivery, 4)
	require.NoError(t, n.Subscribe(ctx, func(channel, payload string) {
		if payload == "boom" {
			panic("bad payload")
		}
		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err == nil {
			got <- delivery{channel: channel, event: ev}
		}
	}))

	// A panicking handler must not end the subscription.
	require.NoError(t, rdb.Publish(ctx, UserChannel(9), "boom").Err())

	require.NoError(t, n.PublishChatMessage(ctx, &models.Message{ID: 3, ConversationID: 7, Content: "hi"}))
	require.NoError(t, n.PublishUser(ctx, 9, EventHandoffAcked, map[string]uint{"handoff_id": 11}))

	var deliveries []delivery
	for len(deliveries) < 2 {
		select {
		case d := <-got:
			deliveries = append(deliveries, d)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d deliveries", len(deliveries))
		}
	}

	assert.Equal(t, "chat:conv:7", deliveries[0].channel)
	assert.Equal(t, EventChatMessage, deliveries[0].event.Type)
	assert.Equal(t, "notifications:user:9", deliveries[1].channel)
	assert.Equal(t, EventHandoffAcked, deliveries[1].event.Type)
	assert.False(t, deliveries[1].event.SentAt.IsZero())
}
