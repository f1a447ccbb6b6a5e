package models

import "time"

// Group is a durable pairing of exactly two users.
//
// Invariants:
//   - User1/User2 slots are fixed in creation order (inviter first); the pair
//     itself is unordered for membership checks
//   - IsActive=false marks dissolution without deleting history
//   - While active, both members appear in the registry's user→group index;
//     once inactive, neither does
type Group struct {
	ID        string    `json:"id"`
	User1ID   string    `json:"user1_id"`
	User2ID   string    `json:"user2_id"`
	User1Name string    `json:"user1_name"`
	User2Name string    `json:"user2_name"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

// NewGroup constructs an active group. The ID is sequencer-assigned by the
// store, which owns uniqueness.
func NewGroup(id, user1ID, user2ID, user1Name, user2Name string, now time.Time) *Group {
	return &Group{
		ID:        id,
		User1ID:   user1ID,
		User2ID:   user2ID,
		User1Name: user1Name,
		User2Name: user2Name,
		CreatedAt: now,
		IsActive:  true,
	}
}

// Has reports whether userID is one of the two members.
func (g *Group) Has(userID string) bool {
	return g.User1ID == userID || g.User2ID == userID
}

// ApplyDissolution marks the group inactive. The registry clears both members'
// index entries in the same critical section.
func (g *Group) ApplyDissolution() {
	g.IsActive = false
}
