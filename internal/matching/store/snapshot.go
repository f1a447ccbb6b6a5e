package store

import "duomatch/internal/matching/models"

// Counters mirrors the ID sequencer state so identifiers stay monotonic across
// restarts.
type Counters struct {
	Invite uint64 `json:"invite"`
	Group  uint64 `json:"group"`
}

// Snapshot is the full registry state as value types, safe to serialize and to
// hold outside the registry lock. The four logical collections correspond
// one-to-one to the persistence adapter's storage keys.
type Snapshot struct {
	Invites    map[string]models.Invite `json:"invites"`
	Groups     map[string]models.Group  `json:"groups"`
	UserGroups map[string]string        `json:"user_groups"`
	Counters   Counters                 `json:"counters"`
}

// NewSnapshot returns an empty snapshot with all maps allocated.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Invites:    make(map[string]models.Invite),
		Groups:     make(map[string]models.Group),
		UserGroups: make(map[string]string),
	}
}
