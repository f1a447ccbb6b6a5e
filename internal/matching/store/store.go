package store

import (
	"context"
	"fmt"
	"time"

	"duomatch/internal/matching/models"
	"duomatch/pkg/platform/sentinel"
)

// Store-level errors wrap sentinels so the service layer can branch on the
// exact conflict while errors.Is(err, sentinel.ErrConflict) still holds for
// callers that only care about the category.
var (
	// ErrInviterGrouped means the would-be sender already has an active group.
	ErrInviterGrouped = fmt.Errorf("inviter already in an active group: %w", sentinel.ErrConflict)
	// ErrTargetGrouped means the invited user already has an active group.
	ErrTargetGrouped = fmt.Errorf("invited user already in an active group: %w", sentinel.ErrConflict)
	// ErrPendingPairExists means a pending invite for the exact ordered
	// (from, to) pair already exists. The reverse pair is deliberately not
	// checked here.
	ErrPendingPairExists = fmt.Errorf("pending invite already exists for this pair: %w", sentinel.ErrConflict)
	// ErrIndexDangling means the user→group index references a group record
	// that is missing. This is a data-integrity fault, not a caller mistake.
	ErrIndexDangling = fmt.Errorf("user index references missing group: %w", sentinel.ErrInvalidState)
)

// Registry is the single logical piece of shared mutable state: the invite
// map, group map, user→group index, and ID counters. Implementations must
// serialize all mutating operations against each other with one lock scoped to
// the whole registry — per-user locking is unsafe because accepting an invite
// touches two users' index entries atomically. Reads must never observe a
// half-applied accept.
type Registry interface {
	// CreateInvite validates availability of both users and the ordered pair,
	// then stores a pending invite with a fresh invite ID.
	CreateInvite(ctx context.Context, fromUserID, toUserID, fromName, toName string, now time.Time) (*models.Invite, error)

	// Respond applies a terminal transition. On accept it also creates the
	// group and updates both index entries inside the same critical section;
	// the returned group is nil on decline.
	Respond(ctx context.Context, inviteID string, accept bool, now time.Time) (*models.Invite, *models.Group, error)

	// CreateGroup stores an active group and indexes both members. Internal
	// creation primitive: reachable only through an accepted invite or the
	// demo seeder, never exposed to callers directly.
	CreateGroup(ctx context.Context, user1ID, user2ID, user1Name, user2Name string, now time.Time) (*models.Group, error)

	// LeaveGroup deactivates the caller's group and clears BOTH members'
	// index entries, returning the dissolved group.
	LeaveGroup(ctx context.Context, userID string) (*models.Group, error)

	PendingInvitesFor(ctx context.Context, userID string) ([]models.Invite, error)
	SentInvitesBy(ctx context.Context, userID string) ([]models.Invite, error)
	GroupFor(ctx context.Context, userID string) (*models.Group, error)
	FindGroup(ctx context.Context, groupID string) (*models.Group, error)
	ActiveGroups(ctx context.Context) ([]models.Group, error)

	// Empty reports whether the registry holds no records at all, used to
	// decide whether demo bootstrap may run.
	Empty(ctx context.Context) (bool, error)

	// Clear resets all collections and counters.
	Clear(ctx context.Context) error

	// Snapshot returns a deep copy of the full state for persistence.
	Snapshot(ctx context.Context) (*Snapshot, error)

	// Restore replaces the full state from a persisted snapshot.
	Restore(ctx context.Context, snap *Snapshot) error
}
