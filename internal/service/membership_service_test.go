package service

import (
	"context"
	"testing"

	"rockae/internal/models"
	"rockae/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin_OpenAndClosedCommunities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	open, _ := env.community(t, "Open House")
	joiner := testutil.CreateUser(t, env.db, "joiner")
	m, err := env.memberships.Join(ctx, joiner.ID, open.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, m.Role)
	assert.NotNil(t, m.ApprovedAt)

	_, err = env.memberships.Join(ctx, joiner.ID, open.ID)
	assertCode(t, err, models.CodeValidation)

	owner := testutil.CreateUser(t, env.db, "owner")
	closed, err := env.communities.CreateCommunity(ctx, owner.ID, CreateCommunityInput{Name: "Closed Door"})
	require.NoError(t, err)
	m, err = env.memberships.Join(ctx, joiner.ID, closed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleApplicant, m.Role)

	_, err = env.memberships.Join(ctx, joiner.ID, closed.ID)
	assertCode(t, err, models.CodeValidation)

	// Applicants are not members yet.
	_, err = env.chats.CreateConversation(ctx, owner.ID, closed.ID, []uint{joiner.ID})
	assertCode(t, err, models.CodeValidation)

	approved, err := env.memberships.ApproveApplicant(ctx, owner.ID, closed.ID, joiner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, approved.Role)
	require.NotNil(t, approved.ApprovedByID)
	assert.Equal(t, owner.ID, *approved.ApprovedByID)
}

func TestRejectApplicant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	c, err := env.communities.CreateCommunity(ctx, owner.ID, CreateCommunityInput{Name: "Picky"})
	require.NoError(t, err)
	applicant := testutil.CreateUser(t, env.db, "applicant")
	_, err = env.memberships.Join(ctx, applicant.ID, c.ID)
	require.NoError(t, err)

	require.NoError(t, env.memberships.RejectApplicant(ctx, owner.ID, c.ID, applicant.ID))
	members, err := env.memberships.ListMembers(ctx, c.ID, models.RoleApplicant)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestChangeRole_SingleOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "One Owner")
	member := env.member(t, c.ID, models.RoleMember)

	_, err := env.memberships.ChangeRole(ctx, owner.ID, c.ID, member.ID, models.RoleOwner)
	assertFieldError(t, err, "role")
	assert.Contains(t, err.Error(), owner.Email)

	_, err = env.memberships.ChangeRole(ctx, owner.ID, c.ID, owner.ID, models.RoleMember)
	assertCode(t, err, models.CodeValidation)

	updated, err := env.memberships.ChangeRole(ctx, owner.ID, c.ID, member.ID, models.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, updated.Role)

	_, err = env.memberships.ChangeRole(ctx, member.ID, c.ID, owner.ID, models.RoleMember)
	assertCode(t, err, models.CodeForbidden)
}

func TestTransferOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Handover")
	heir := env.member(t, c.ID, models.RoleMember)

	assertCode(t, env.memberships.TransferOwnership(ctx, heir.ID, c.ID, owner.ID), models.CodeForbidden)
	require.NoError(t, env.memberships.TransferOwnership(ctx, owner.ID, c.ID, heir.ID))

	owners, err := env.memberships.ListMembers(ctx, c.ID, models.RoleOwner)
	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, heir.ID, owners[0].UserID)

	coOwners, err := env.memberships.ListMembers(ctx, c.ID, models.RoleCoOwner)
	require.NoError(t, err)
	require.Len(t, coOwners, 1)
	assert.Equal(t, owner.ID, coOwners[0].UserID)
}

func TestBlock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Strict")
	mod := env.member(t, c.ID, models.RoleModerator)
	coOwner := env.member(t, c.ID, models.RoleCoOwner)
	troll := env.member(t, c.ID, models.RoleMember)

	_, err := env.memberships.Block(ctx, mod.ID, c.ID, owner.ID)
	assertCode(t, err, models.CodeForbidden)
	_, err = env.memberships.Block(ctx, mod.ID, c.ID, coOwner.ID)
	assertCode(t, err, models.CodeForbidden)

	blocked, err := env.memberships.Block(ctx, mod.ID, c.ID, troll.ID)
	require.NoError(t, err)
	assert.True(t, blocked.IsBlocked)

	_, err = env.memberships.Join(ctx, troll.ID, c.ID)
	assertCode(t, err, models.CodeForbidden)

	ok, err := env.access.CanAccess(ctx, troll.ID, c.ID, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	unblocked, err := env.memberships.Unblock(ctx, owner.ID, c.ID, troll.ID)
	require.NoError(t, err)
	assert.False(t, unblocked.IsBlocked)
	assert.Nil(t, unblocked.BlockedByID)
}

func TestLeave_RecordsReason(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Revolving Door")
	leaver := env.member(t, c.ID, models.RoleMember)

	err := env.memberships.Leave(ctx, owner.ID, c.ID, LeaveInput{Reason: "bored"})
	assertCode(t, err, models.CodeValidation)

	err = env.memberships.Leave(ctx, leaver.ID, c.ID, LeaveInput{Reason: "  "})
	assertFieldError(t, err, "reason")

	require.NoError(t, env.memberships.Leave(ctx, leaver.ID, c.ID, LeaveInput{Reason: "Too many meetings", PhoneNumber: "555-0100"}))

	members, err := env.memberships.ListMembers(ctx, c.ID, models.RoleMember)
	require.NoError(t, err)
	assert.Empty(t, members)

	reasons, err := env.feedback.ListLeaveReasons(ctx, owner.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, reasons, 1)
	assert.Equal(t, leaver.Email, reasons[0].Email)
	assert.Equal(t, "555-0100", reasons[0].PhoneNumber)
	assert.Equal(t, "Too many meetings", reasons[0].Reason)
}
