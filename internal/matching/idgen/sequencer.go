// Package idgen issues the human-readable identifiers the registry hands out.
package idgen

import "fmt"

// Kind selects which counter an ID is drawn from. Invite and group IDs live in
// distinct namespaces with independent counters.
type Kind string

const (
	KindInvite Kind = "invite"
	KindGroup  Kind = "group"
)

const (
	invitePrefix = "INV"
	groupPrefix  = "GRP"
	padWidth     = 6
)

// Sequencer produces zero-padded, prefixed, monotonically increasing IDs
// (INV000001, GRP000001, ...). Zero-padding keeps lexicographic order equal to
// issue order up to 999999 IDs per kind, which is the ordering tests rely on.
//
// Sequencer is not safe for concurrent use on its own; the registry store
// calls Next under its own lock, which also makes counter persistence
// consistent with the records the counters produced.
type Sequencer struct {
	inviteCounter uint64
	groupCounter  uint64
}

// NewSequencer starts both counters at zero; the first issued IDs are
// INV000001 and GRP000001.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Next issues the next ID for the given kind.
func (s *Sequencer) Next(kind Kind) string {
	switch kind {
	case KindGroup:
		s.groupCounter++
		return fmt.Sprintf("%s%0*d", groupPrefix, padWidth, s.groupCounter)
	default:
		s.inviteCounter++
		return fmt.Sprintf("%s%0*d", invitePrefix, padWidth, s.inviteCounter)
	}
}

// Counters returns the current counter values for snapshotting.
func (s *Sequencer) Counters() (invite, group uint64) {
	return s.inviteCounter, s.groupCounter
}

// Restore overwrites both counters, used when loading a persisted snapshot.
func (s *Sequencer) Restore(invite, group uint64) {
	s.inviteCounter = invite
	s.groupCounter = group
}

// Reset zeroes both counters; ClearAllData restarts ID issuance from scratch.
func (s *Sequencer) Reset() {
	s.inviteCounter = 0
	s.groupCounter = 0
}
