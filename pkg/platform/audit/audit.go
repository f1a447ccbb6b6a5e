// Package audit captures the registry's key actions as transport-agnostic
// events so stores and sinks can fan out.
package audit

import (
	"context"
	"time"
)

// Action names every auditable registry mutation.
type Action string

const (
	ActionInviteSent     Action = "invite_sent"
	ActionInviteAccepted Action = "invite_accepted"
	ActionInviteDeclined Action = "invite_declined"
	ActionGroupCreated   Action = "group_created"
	ActionGroupLeft      Action = "group_left"
	ActionDataCleared    Action = "data_cleared"
	ActionDemoSeeded     Action = "demo_seeded"
)

// Event is emitted from the matching service after each successful mutation.
// UserID is the acting user; OtherUserID the counterpart when the action
// involves a pair.
type Event struct {
	Action      Action    `json:"action"`
	Timestamp   time.Time `json:"timestamp"`
	UserID      string    `json:"user_id,omitempty"`
	OtherUserID string    `json:"other_user_id,omitempty"`
	InviteID    string    `json:"invite_id,omitempty"`
	GroupID     string    `json:"group_id,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

// Sink receives events. Implementations must be safe for concurrent Append.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Lister is implemented by sinks that can read events back, used by tests and
// the memory store.
type Lister interface {
	ListByUser(ctx context.Context, userID string) ([]Event, error)
}
