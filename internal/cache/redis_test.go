package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestAside_MissThenHit(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	calls := 0
	load := func(dest *payload) func() error {
		return func() error {
			calls++
			*dest = payload{Name: "chess-club", Count: 3}
			return nil
		}
	}

	var first payload
	require.NoError(t, c.Aside(ctx, NameCommunity, CommunityAliasKey("chess-club"), &first, time.Minute, load(&first)))
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists("community:alias:chess-club"))

	var second payload
	require.NoError(t, c.Aside(ctx, NameCommunity, CommunityAliasKey("chess-club"), &second, time.Minute, load(&second)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestAside_LoaderErrorIsNotCached(t *testing.T) {
	c, mr := newTestCache(t)
	boom := errors.New("boom")

	var dest payload
	err := c.Aside(context.Background(), NameCommunity, "k", &dest, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestAside_TTLAndInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var dest payload
	require.NoError(t, c.Aside(ctx, NameTiers, ActiveTiersKey, &dest, TierTTL, func() error {
		dest = payload{Name: "hobby"}
		return nil
	}))
	assert.Equal(t, TierTTL, mr.TTL(ActiveTiersKey))

	c.Invalidate(ctx, ActiveTiersKey)
	assert.False(t, mr.Exists(ActiveTiersKey))
}

func TestAside_RedisDownFallsBackToLoader(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	var dest payload
	err := c.Aside(context.Background(), NameCommunity, "k", &dest, time.Minute, func() error {
		dest = payload{Name: "fallback"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fallback", dest.Name)
}

func TestNilCache(t *testing.T) {
	var c *Cache
	called := false
	var dest payload
	require.NoError(t, c.Aside(context.Background(), NameCommunity, "k", &dest, time.Minute, func() error {
		called = true
		return nil
	}))
	assert.True(t, called)
	c.Invalidate(context.Background(), "k")
	assert.Nil(t, c.Client())
	assert.NoError(t, c.Close())
}

func TestConnect(t *testing.T) {
	c, err := Connect(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, c)

	mr := miniredis.RunT(t)
	c, err = Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.NoError(t, c.Close())

	_, err = Connect(context.Background(), "redis://%zz")
	assert.Error(t, err)
}
