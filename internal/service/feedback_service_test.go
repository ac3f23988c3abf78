package service

import (
	"context"
	"testing"

	"rockae/internal/models"
	"rockae/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Rated")
	member := env.member(t, c.ID, models.RoleMember)
	stranger := testutil.CreateUser(t, env.db, "stranger")

	for _, bad := range []int{0, 6} {
		_, err := env.feedback.Rate(ctx, member.ID, c.ID, bad, nil)
		assertFieldError(t, err, "rating")
	}
	_, err := env.feedback.Rate(ctx, stranger.ID, c.ID, 5, nil)
	assertCode(t, err, models.CodeForbidden)

	summary, err := env.feedback.Summary(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, summary.Average)
	assert.Zero(t, summary.Count)

	_, err = env.feedback.Rate(ctx, member.ID, c.ID, 2, nil)
	require.NoError(t, err)
	// A second rating replaces the first.
	fb, err := env.feedback.Rate(ctx, member.ID, c.ID, 3, ptr("better now"))
	require.NoError(t, err)
	assert.Equal(t, 3, fb.Rating)
	_, err = env.feedback.Rate(ctx, owner.ID, c.ID, 5, nil)
	require.NoError(t, err)

	summary, err = env.feedback.Summary(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.Count)
	assert.InDelta(t, 4.0, summary.Average, 0.001)

	all, err := env.feedback.List(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = env.feedback.ListLeaveReasons(ctx, member.ID, c.ID)
	assertCode(t, err, models.CodeForbidden)
	reasons, err := env.feedback.ListLeaveReasons(ctx, owner.ID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, reasons)
}
