package service

import (
	"context"
	"testing"

	"rockae/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanHandoffs(t *testing.T) {
	chain, err := PlanHandoffs(models.WheelChain, []uint{3, 1, 2}, 0)
	require.NoError(t, err)
	assert.Equal(t, []models.HandoffPlan{{From: 1, To: 2}, {From: 2, To: 3}}, chain)

	collective, err := PlanHandoffs(models.WheelCollective, []uint{1, 2, 3}, 2)
	require.NoError(t, err)
	assert.Equal(t, []models.HandoffPlan{{From: 1, To: 2}, {From: 3, To: 2}}, collective)

	_, err = PlanHandoffs(models.WheelCollective, []uint{1, 2}, 5)
	assertFieldError(t, err, "recipient")

	_, err = PlanHandoffs(models.WheelChain, []uint{1, 1, 2}, 0)
	assertCode(t, err, models.CodeValidation)

	single, err := PlanHandoffs(models.WheelChain, []uint{4}, 0)
	require.NoError(t, err)
	assert.Empty(t, single)
}

func TestWheel_ParticipantsAndStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Favors")
	alice := env.member(t, c.ID, models.RoleMember)
	bob := env.member(t, c.ID, models.RoleMember)
	carol := env.member(t, c.ID, models.RoleMember)

	_, err := env.wheels.CreateWheel(ctx, alice.ID, c.ID, WheelInput{RequestMessage: "help"})
	assertCode(t, err, models.CodeForbidden)

	limit := uint(2)
	wheel, err := env.wheels.CreateWheel(ctx, owner.ID, c.ID, WheelInput{RequestMessage: "  Cook a meal  ", MaxMembers: &limit})
	require.NoError(t, err)
	assert.Equal(t, models.WheelChain, wheel.Mode)
	assert.Equal(t, models.WheelDraft, wheel.Status)
	assert.Equal(t, "Cook a meal", wheel.RequestMessage)

	_, err = env.wheels.Join(ctx, alice.ID, wheel.ID, nil)
	assertCode(t, err, models.CodeValidation)

	first, err := env.wheels.AddParticipantAt(ctx, owner.ID, wheel.ID, alice.ID, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, first.ApprovalStatus)

	_, err = env.wheels.AddParticipantAt(ctx, owner.ID, wheel.ID, bob.ID, 2, nil)
	assertFieldError(t, err, "order")
	_, err = env.wheels.AddParticipantAt(ctx, owner.ID, wheel.ID, bob.ID, 0, nil)
	assertFieldError(t, err, "order")
	_, err = env.wheels.AddParticipant(ctx, owner.ID, wheel.ID, alice.ID, nil)
	assertCode(t, err, models.CodeValidation)

	_, err = env.wheels.TransitionStatus(ctx, owner.ID, wheel.ID, models.WheelInProgress)
	assertCode(t, err, models.CodeValidation)

	_, err = env.wheels.TransitionStatus(ctx, owner.ID, wheel.ID, models.WheelOpenForJoin)
	require.NoError(t, err)
	joined, err := env.wheels.Join(ctx, bob.ID, wheel.ID, ptr("weekends only"))
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, joined.ApprovalStatus)
	assert.EqualValues(t, 3, joined.Order)

	// The wheel holds two people now.
	_, err = env.wheels.Join(ctx, carol.ID, wheel.ID, nil)
	assertCode(t, err, models.CodeValidation)

	_, err = env.wheels.TransitionStatus(ctx, owner.ID, wheel.ID, models.WheelInProgress)
	assertCode(t, err, models.CodeValidation)

	approved, err := env.wheels.SetApproval(ctx, owner.ID, joined.ID, models.ApprovalApproved)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, *approved.ApprovedByID)
	_, err = env.wheels.SetApproval(ctx, owner.ID, joined.ID, models.ApprovalRejected)
	assertCode(t, err, "INVALID_TRANSITION")

	wheel, err = env.wheels.TransitionStatus(ctx, owner.ID, wheel.ID, models.WheelInProgress)
	require.NoError(t, err)
	_, err = env.wheels.TransitionStatus(ctx, owner.ID, wheel.ID, models.WheelDraft)
	assertCode(t, err, "INVALID_TRANSITION")
}

func TestWheel_Handoffs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Favors")
	users := []*models.User{
		env.member(t, c.ID, models.RoleMember),
		env.member(t, c.ID, models.RoleMember),
		env.member(t, c.ID, models.RoleMember),
	}
	wheel, err := env.wheels.CreateWheel(ctx, owner.ID, c.ID, WheelInput{RequestMessage: "Walk the dog"})
	require.NoError(t, err)
	for _, u := range users {
		_, err := env.wheels.AddParticipant(ctx, owner.ID, wheel.ID, u.ID, nil)
		require.NoError(t, err)
	}

	_, err = env.wheels.CreateHandoffs(ctx, owner.ID, wheel.ID, 0)
	assertCode(t, err, models.CodeValidation)

	_, err = env.wheels.TransitionStatus(ctx, owner.ID, wheel.ID, models.WheelInProgress)
	require.NoError(t, err)
	handoffs, err := env.wheels.CreateHandoffs(ctx, owner.ID, wheel.ID, 0)
	require.NoError(t, err)
	require.Len(t, handoffs, 2)

	again, err := env.wheels.CreateHandoffs(ctx, owner.ID, wheel.ID, 0)
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, handoffs[0].ID, again[0].ID)

	problems, err := env.wheels.VerifySequence(ctx, wheel.ID)
	require.NoError(t, err)
	assert.Empty(t, problems)

	first := handoffs[0]
	_, err = env.wheels.MarkActionDone(ctx, users[1].ID, first.ID, nil)
	assertCode(t, err, models.CodeForbidden)
	_, err = env.wheels.Acknowledge(ctx, users[1].ID, first.ID)
	assertCode(t, err, "INVALID_TRANSITION")

	_, err = env.wheels.AddHandoffAttachment(ctx, users[1].ID, first.ID, "https://cdn.example.com/dog.jpg", models.MediaImage)
	assertCode(t, err, models.CodeForbidden)
	_, err = env.wheels.AddHandoffAttachment(ctx, users[0].ID, first.ID, "https://cdn.example.com/dog.jpg", models.MediaImage)
	require.NoError(t, err)

	done, err := env.wheels.MarkActionDone(ctx, users[0].ID, first.ID, ptr("walked twice"))
	require.NoError(t, err)
	assert.Equal(t, models.HandoffActionDone, done.Status)
	assert.Equal(t, "walked twice", *done.Note)

	outsider := env.member(t, c.ID, models.RoleMember)
	_, err = env.wheels.Acknowledge(ctx, outsider.ID, first.ID)
	assertCode(t, err, models.CodeForbidden)

	acked, err := env.wheels.Acknowledge(ctx, users[2].ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HandoffAcknowledged, acked.Status)
	require.NotNil(t, acked.AcknowledgedAt)
	assert.Equal(t, users[2].ID, *acked.AcknowledgedByID)
}

func TestWheel_VerifySequenceReportsMismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Favors")
	a := env.member(t, c.ID, models.RoleMember)
	b := env.member(t, c.ID, models.RoleMember)
	d := env.member(t, c.ID, models.RoleMember)

	wheel, err := env.wheels.CreateWheel(ctx, owner.ID, c.ID, WheelInput{RequestMessage: "Fix a bike"})
	require.NoError(t, err)
	pa, err := env.wheels.AddParticipant(ctx, owner.ID, wheel.ID, a.ID, nil)
	require.NoError(t, err)
	_, err = env.wheels.AddParticipant(ctx, owner.ID, wheel.ID, b.ID, nil)
	require.NoError(t, err)
	pd, err := env.wheels.AddParticipant(ctx, owner.ID, wheel.ID, d.ID, nil)
	require.NoError(t, err)

	// Position 1 skips position 2 and gives straight to position 3.
	require.NoError(t, env.db.Create(&models.WheelHandoff{
		WheelID:           wheel.ID,
		FromParticipantID: pa.ID,
		ToParticipantID:   pd.ID,
		Status:            models.HandoffPending,
	}).Error)

	problems, err := env.wheels.VerifySequence(ctx, wheel.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"position 1 gives to 3, expected 2",
		"position 2 has no handoff",
	}, problems)
}
