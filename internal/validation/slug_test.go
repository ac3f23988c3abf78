package validation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Chess Club", "chess-club"},
		{"  Chess   Club  ", "chess-club"},
		{"Héllo Wörld!", "hello-world"},
		{"Already-a-slug", "already-a-slug"},
		{"under_score kept", "under_score-kept"},
		{"--Trim me--", "trim-me"},
		{"日本語", ""},
		{"!!!", ""},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Slugify(tc.in))
		})
	}
}

func TestSlugify_TruncatesLongInput(t *testing.T) {
	t.Parallel()
	got := Slugify(strings.Repeat("a", 300))
	assert.Len(t, got, maxSlugBase)
}

func TestIsSlug(t *testing.T) {
	t.Parallel()
	assert.True(t, IsSlug("python_devs-2"))
	assert.False(t, IsSlug("python devs"))
	assert.False(t, IsSlug(""))
	assert.False(t, IsSlug("café"))
}

func TestUniqueSlug(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	taken := map[string]bool{"chess-club": true, "chess-club-1": true}
	exists := func(_ context.Context, s string) (bool, error) { return taken[s], nil }

	got, err := UniqueSlug(ctx, "chess-club", exists)
	require.NoError(t, err)
	assert.Equal(t, "chess-club-2", got)

	got, err = UniqueSlug(ctx, "go-club", exists)
	require.NoError(t, err)
	assert.Equal(t, "go-club", got)
}

func TestUniqueSlug_PropagatesLookupError(t *testing.T) {
	t.Parallel()
	boom := errors.New("db down")
	_, err := UniqueSlug(context.Background(), "x", func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestUniqueSlug_GivesUp(t *testing.T) {
	t.Parallel()
	_, err := UniqueSlug(context.Background(), "x", func(context.Context, string) (bool, error) {
		return true, nil
	})
	assert.Error(t, err)
}

func TestTimestampedSlug(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 5, 14, 7, 9, 123456789, time.UTC)

	assert.Equal(t, "my-first-post-20240305140709123456", TimestampedSlug("My First Post", "blog-post", now))
	assert.Equal(t, "blog-post-20240305140709123456", TimestampedSlug("", "blog-post", now))
	assert.Equal(t, "community-blog-post-20240305140709123456", TimestampedSlug("???", "community-blog-post", now))
}
