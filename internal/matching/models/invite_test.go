package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "duomatch/pkg/domain-errors"
)

var now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestNewInviteValidation(t *testing.T) {
	t.Run("rejects empty user ids", func(t *testing.T) {
		_, err := NewInvite("INV000001", "", "bob", "", "Bob", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = NewInvite("INV000001", "alice", "", "Alice", "", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects self-invite", func(t *testing.T) {
		_, err := NewInvite("INV000001", "alice", "alice", "Alice", "Alice", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("starts pending with names snapshotted", func(t *testing.T) {
		invite, err := NewInvite("INV000001", "alice", "bob", "Alice", "Bob", now)
		require.NoError(t, err)
		assert.True(t, invite.IsPending())
		assert.Equal(t, "Alice", invite.FromUserName)
		assert.Nil(t, invite.RespondedAt)
	})
}

func TestInviteTransitionsAreTerminal(t *testing.T) {
	invite, err := NewInvite("INV000001", "alice", "bob", "Alice", "Bob", now)
	require.NoError(t, err)
	require.NoError(t, invite.CanRespond())

	invite.ApplyAccept(now)

	assert.Equal(t, InviteStatusAccepted, invite.Status)
	require.NotNil(t, invite.RespondedAt)
	assert.Equal(t, now, *invite.RespondedAt)

	err = invite.CanRespond()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyResponded))
}

func TestInviteDeclineIsTerminal(t *testing.T) {
	invite, err := NewInvite("INV000001", "alice", "bob", "Alice", "Bob", now)
	require.NoError(t, err)

	invite.ApplyDecline(now)

	assert.Equal(t, InviteStatusDeclined, invite.Status)
	assert.Error(t, invite.CanRespond())
}

func TestInviteStatus(t *testing.T) {
	assert.True(t, InviteStatusPending.Valid())
	assert.True(t, InviteStatusAccepted.Valid())
	assert.True(t, InviteStatusDeclined.Valid())
	assert.False(t, InviteStatus("cancelled").Valid())

	assert.False(t, InviteStatusPending.Terminal())
	assert.True(t, InviteStatusAccepted.Terminal())
	assert.True(t, InviteStatusDeclined.Terminal())
}

func TestGroupMembership(t *testing.T) {
	group := NewGroup("GRP000001", "alice", "bob", "Alice", "Bob", now)

	assert.True(t, group.IsActive)
	assert.True(t, group.Has("alice"))
	assert.True(t, group.Has("bob"))
	assert.False(t, group.Has("carol"))

	group.ApplyDissolution()
	assert.False(t, group.IsActive)
}
