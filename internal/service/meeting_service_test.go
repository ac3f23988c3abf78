package service

import (
	"context"
	"testing"
	"time"

	"rockae/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func meetingAt(start time.Time, d time.Duration) MeetingInput {
	return MeetingInput{Title: "Standup", StartDatetime: start, EndDatetime: start.Add(d)}
}

func TestCreateMeeting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Meetups")
	member := env.member(t, c.ID, models.RoleMember)
	start := time.Now().Add(24 * time.Hour)

	_, err := env.meetings.CreateMeeting(ctx, owner.ID, c.ID, meetingAt(start, 0))
	assertFieldError(t, err, "end_datetime")
	_, err = env.meetings.CreateMeeting(ctx, owner.ID, c.ID, meetingAt(start, -time.Hour))
	assertFieldError(t, err, "end_datetime")

	_, err = env.meetings.CreateMeeting(ctx, member.ID, c.ID, meetingAt(start, time.Hour))
	assertCode(t, err, models.CodeForbidden)

	m, err := env.meetings.CreateMeeting(ctx, owner.ID, c.ID, meetingAt(start, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, owner.ID, m.CreatedByID)

	in := meetingAt(start, 2*time.Hour)
	in.Title = "Retro"
	m, err = env.meetings.UpdateMeeting(ctx, owner.ID, m.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Retro", m.Title)
}

func TestAttendMeeting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Meetups")
	member := env.member(t, c.ID, models.RoleMember)

	upcoming, err := env.meetings.CreateMeeting(ctx, owner.ID, c.ID, meetingAt(time.Now().Add(time.Hour), time.Hour))
	require.NoError(t, err)
	past, err := env.meetings.CreateMeeting(ctx, owner.ID, c.ID, meetingAt(time.Now().Add(-3*time.Hour), time.Hour))
	require.NoError(t, err)

	_, err = env.meetings.Attend(ctx, member.ID, past.ID)
	assertCode(t, err, models.CodeValidation)

	m, err := env.meetings.Attend(ctx, member.ID, upcoming.ID)
	require.NoError(t, err)
	require.Len(t, m.Attendees, 1)
	assert.Equal(t, member.ID, m.Attendees[0].ID)

	m, err = env.meetings.Unattend(ctx, member.ID, upcoming.ID)
	require.NoError(t, err)
	assert.Empty(t, m.Attendees)

	list, err := env.meetings.ListUpcoming(ctx, c.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, upcoming.ID, list[0].ID)
}

func TestAttendMeeting_PlanGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Meetups")
	member := env.member(t, c.ID, models.RoleMember)
	gold := env.paidPlan(t, c.ID, "Gold")

	in := meetingAt(time.Now().Add(time.Hour), time.Hour)
	in.PaymentPlanIDs = []uint{gold.ID}
	m, err := env.meetings.CreateMeeting(ctx, owner.ID, c.ID, in)
	require.NoError(t, err)

	_, err = env.meetings.Attend(ctx, member.ID, m.ID)
	assertCode(t, err, models.CodeForbidden)
	_, err = env.meetings.Attend(ctx, owner.ID, m.ID)
	require.NoError(t, err)
}
