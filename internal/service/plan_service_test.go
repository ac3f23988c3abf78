package service

import (
	"context"
	"encoding/json"
	"testing"

	"rockae/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePlan_FreePlanIsNormalized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Plans")

	plan, err := env.plans.CreatePlan(ctx, owner.ID, c.ID, PlanInput{
		Name:        "Starter",
		Fee:         10,
		IsRecurring: true,
		IsFree:      true,
		Offerings:   json.RawMessage(`["forum","chat"]`),
	})
	require.NoError(t, err)
	assert.Zero(t, plan.Fee)
	assert.False(t, plan.IsRecurring)
	assert.True(t, plan.IsActive)
	assert.JSONEq(t, `["forum","chat"]`, string(plan.Offerings))

	_, err = env.plans.CreatePlan(ctx, owner.ID, c.ID, PlanInput{Name: "Starter", Fee: 5})
	assertFieldError(t, err, "name")

	_, err = env.plans.CreatePlan(ctx, owner.ID, c.ID, PlanInput{Name: "Broken", Offerings: json.RawMessage(`{`)})
	assertFieldError(t, err, "offerings")

	_, err = env.plans.CreatePlan(ctx, owner.ID, c.ID, PlanInput{Name: "Negative", Fee: -1})
	assertFieldError(t, err, "fee")

	mod := env.member(t, c.ID, models.RoleModerator)
	_, err = env.plans.CreatePlan(ctx, mod.ID, c.ID, PlanInput{Name: "Sneaky"})
	assertCode(t, err, models.CodeForbidden)
}

func TestUpdatePlan_KeepsFreeRule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Plans")

	plan, err := env.plans.CreatePlan(ctx, owner.ID, c.ID, PlanInput{Name: "Pro", Fee: 25, IsRecurring: true})
	require.NoError(t, err)
	assert.Equal(t, 25.0, plan.Fee)

	inactive := false
	updated, err := env.plans.UpdatePlan(ctx, owner.ID, plan.ID, PlanInput{Name: "Pro", Fee: 25, IsFree: true, IsActive: &inactive})
	require.NoError(t, err)
	assert.Zero(t, updated.Fee)
	assert.False(t, updated.IsActive)

	active, err := env.plans.ListPlans(ctx, c.ID, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, models.DefaultPlanName, active[0].Name)
}

func TestAssignUserPlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, _ := env.community(t, "Plans")
	other, _ := env.community(t, "Elsewhere")
	member := env.member(t, c.ID, models.RoleMember)
	plan := env.paidPlan(t, c.ID, "Gold")
	foreign := env.paidPlan(t, other.ID, "Gold")

	_, err := env.plans.AssignUserPlan(ctx, member.ID, c.ID, foreign.ID, nil)
	assertFieldError(t, err, "payment_plan")

	up, err := env.plans.AssignUserPlan(ctx, member.ID, c.ID, plan.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, up.PaymentPlanID)
	assert.True(t, up.IsActive)

	// A second choice replaces the first.
	silver := env.paidPlan(t, c.ID, "Silver")
	up, err = env.plans.AssignUserPlan(ctx, member.ID, c.ID, silver.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, silver.ID, up.PaymentPlanID)
}

func TestFeaturedContent_RequiresMatchingURL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Showcase")

	_, err := env.plans.CreateFeaturedContent(ctx, owner.ID, c.ID, FeaturedContentInput{ContentType: models.FeaturedImage})
	assertFieldError(t, err, "image_url")

	img := "https://cdn.example.com/a.png"
	_, err = env.plans.CreateFeaturedContent(ctx, owner.ID, c.ID, FeaturedContentInput{ContentType: models.FeaturedVideo, ImageURL: &img})
	assertFieldError(t, err, "video_url")

	first, err := env.plans.CreateFeaturedContent(ctx, owner.ID, c.ID, FeaturedContentInput{ContentType: models.FeaturedImage, ImageURL: &img, Order: 2})
	require.NoError(t, err)
	vid := "https://cdn.example.com/a.mp4"
	_, err = env.plans.CreateFeaturedContent(ctx, owner.ID, c.ID, FeaturedContentInput{ContentType: models.FeaturedVideo, VideoURL: &vid, Order: 1})
	require.NoError(t, err)

	off := false
	_, err = env.plans.UpdateFeaturedContent(ctx, owner.ID, first.ID, FeaturedContentInput{ContentType: models.FeaturedImage, ImageURL: &img, IsActive: &off})
	require.NoError(t, err)

	active, err := env.plans.ListActiveFeatured(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, models.FeaturedVideo, active[0].ContentType)
}
