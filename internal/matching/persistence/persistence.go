// Package persistence gives the registry durable, last-writer-wins snapshot
// storage behind a small key/value contract.
package persistence

import "context"

// Storage keys for the four logical collections. Adapters treat the values as
// opaque blobs; the codec owns the wire format.
const (
	KeyInvites    = "matching:invites"
	KeyGroups     = "matching:groups"
	KeyUserGroups = "matching:user_groups"
	KeyCounters   = "matching:counters"
)

// Keys lists every storage key, in the order they are written.
func Keys() []string {
	return []string{KeyInvites, KeyGroups, KeyUserGroups, KeyCounters}
}

// Adapter is the durable key/value contract the registry writes through.
// Load returns (nil, nil) for a key that has never been saved. Implementations
// wrap backend failures in sentinel.ErrUnavailable so callers can classify
// them without knowing the backend.
type Adapter interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}
