package models

import (
	"time"

	dErrors "duomatch/pkg/domain-errors"
)

// InviteStatus is the lifecycle state of a pairing proposal.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusDeclined InviteStatus = "declined"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s InviteStatus) Valid() bool {
	switch s {
	case InviteStatusPending, InviteStatusAccepted, InviteStatusDeclined:
		return true
	}
	return false
}

// Terminal reports whether the status permits no further transitions.
func (s InviteStatus) Terminal() bool {
	return s == InviteStatusAccepted || s == InviteStatusDeclined
}

// Invite is a proposal from one user to pair with another.
//
// Invariants:
//   - FromUserID and ToUserID are non-empty and distinct
//   - Status transitions: pending → accepted or pending → declined, nothing after
//   - FromUserName/ToUserName are display-name snapshots taken at send time;
//     they are never re-synced if a user later renames
//   - RespondedAt is set exactly when the invite leaves pending
//   - CreatedAt is immutable after construction
//
// Invites are never deleted; terminal status models end-of-life so history
// remains queryable.
type Invite struct {
	ID           string       `json:"id"`
	FromUserID   string       `json:"from_user_id"`
	ToUserID     string       `json:"to_user_id"`
	FromUserName string       `json:"from_user_name"`
	ToUserName   string       `json:"to_user_name"`
	Status       InviteStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	RespondedAt  *time.Time   `json:"responded_at,omitempty"`
}

// NewInvite constructs a pending invite. The ID is sequencer-assigned by the
// store, which owns uniqueness.
func NewInvite(id, fromUserID, toUserID, fromName, toName string, now time.Time) (*Invite, error) {
	if fromUserID == "" || toUserID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "invite requires both user ids")
	}
	if fromUserID == toUserID {
		return nil, dErrors.New(dErrors.CodeValidation, "cannot invite yourself")
	}
	return &Invite{
		ID:           id,
		FromUserID:   fromUserID,
		ToUserID:     toUserID,
		FromUserName: fromName,
		ToUserName:   toName,
		Status:       InviteStatusPending,
		CreatedAt:    now,
	}, nil
}

// IsPending reports whether the invite can still be responded to.
func (i *Invite) IsPending() bool {
	return i.Status == InviteStatusPending
}

// CanRespond checks that the invite is still pending.
// Use with ApplyAccept/ApplyDecline under the registry lock.
func (i *Invite) CanRespond() error {
	if i.Status.Terminal() {
		return dErrors.New(dErrors.CodeAlreadyResponded, "invite already responded to")
	}
	return nil
}

// ApplyAccept transitions the invite to accepted. Call CanRespond first.
func (i *Invite) ApplyAccept(now time.Time) {
	i.Status = InviteStatusAccepted
	i.RespondedAt = &now
}

// ApplyDecline transitions the invite to declined. Call CanRespond first.
func (i *Invite) ApplyDecline(now time.Time) {
	i.Status = InviteStatusDeclined
	i.RespondedAt = &now
}
