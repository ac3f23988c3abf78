package service

import (
	"context"
	"testing"

	"rockae/internal/cache"
	"rockae/internal/models"
	"rockae/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCommunity_DerivesUniqueAlias(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, _ := env.community(t, "Chess Club")
	second, _ := env.community(t, "Chess Club")
	blank, _ := env.community(t, "!!!")

	assert.Equal(t, "chess-club", first.Alias)
	assert.Equal(t, "chess-club-1", second.Alias)
	assert.Equal(t, CommunityAliasPlaceholder, blank.Alias)

	owner := testutil.CreateUser(t, env.db, "owner")
	_, err := env.communities.CreateCommunity(ctx, owner.ID, CreateCommunityInput{Name: "Other", Alias: "chess-club"})
	assertFieldError(t, err, "alias")
}

func TestCreateCommunity_ProvisionsOwnerAndDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := testutil.CreateUser(t, env.db, "owner")
	c, err := env.communities.CreateCommunity(ctx, owner.ID, CreateCommunityInput{
		Name: "Go Readers",
		Tags: []string{"Books", " books ", "Go"},
	})
	require.NoError(t, err)

	members, err := env.memberships.ListMembers(ctx, c.ID, models.RoleOwner)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, owner.ID, members[0].UserID)

	plan, forum, err := env.communities.ProvisionDefaults(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPlanName, plan.Name)
	assert.True(t, plan.IsFree)
	assert.Zero(t, plan.Fee)
	assert.Equal(t, models.DefaultForumName, forum.Name)

	plans, err := env.plans.ListPlans(ctx, c.ID, false)
	require.NoError(t, err)
	assert.Len(t, plans, 1)
	forums, err := env.forums.ListForums(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, forums, 1)

	got, err := env.communities.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Tags, 2)
}

func TestGetByAlias_CachesAndInvalidates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Cached")

	got, err := env.communities.GetByAlias(ctx, "cached")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.True(t, env.redis.Exists(cache.CommunityAliasKey("cached")))

	newName := "Renamed"
	newAlias := "renamed"
	_, err = env.communities.UpdateCommunity(ctx, owner.ID, c.ID, UpdateCommunityInput{Name: &newName, Alias: &newAlias})
	require.NoError(t, err)
	assert.False(t, env.redis.Exists(cache.CommunityAliasKey("cached")))

	got, err = env.communities.GetByAlias(ctx, "renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	_, err = env.communities.GetByAlias(ctx, "cached")
	assertCode(t, err, models.CodeNotFound)
}

func TestUpdateCommunity_RequiresManager(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, _ := env.community(t, "Managed")
	mod := env.member(t, c.ID, models.RoleModerator)

	open := false
	_, err := env.communities.UpdateCommunity(ctx, mod.ID, c.ID, UpdateCommunityInput{IsOpen: &open})
	assertCode(t, err, models.CodeForbidden)

	empty := "  "
	coOwner := env.member(t, c.ID, models.RoleCoOwner)
	_, err = env.communities.UpdateCommunity(ctx, coOwner.ID, c.ID, UpdateCommunityInput{Name: &empty})
	assertFieldError(t, err, "name")
}

func TestDeleteCommunity_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Doomed")
	coOwner := env.member(t, c.ID, models.RoleCoOwner)

	assertCode(t, env.communities.DeleteCommunity(ctx, coOwner.ID, c.ID), models.CodeForbidden)
	require.NoError(t, env.communities.DeleteCommunity(ctx, owner.ID, c.ID))

	_, err := env.communities.GetByID(ctx, c.ID)
	assertCode(t, err, models.CodeNotFound)
}

func TestCommunityLikes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Liked")
	fan := testutil.CreateUser(t, env.db, "fan")

	n, err := env.communities.Like(ctx, owner.ID, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = env.communities.Like(ctx, fan.ID, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	n, err = env.communities.Unlike(ctx, fan.ID, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
