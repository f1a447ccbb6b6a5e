package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"duomatch/internal/matching/models"
	"duomatch/internal/matching/store"
)

// SaveSnapshot writes the four collections under their fixed keys as JSON
// maps. Writes are not transactional across keys; the registry's write-through
// policy tolerates a torn write by treating the next successful flush as
// authoritative (last-writer-wins).
func SaveSnapshot(ctx context.Context, adapter Adapter, snap *store.Snapshot) error {
	blobs := []struct {
		key   string
		value any
	}{
		{KeyInvites, snap.Invites},
		{KeyGroups, snap.Groups},
		{KeyUserGroups, snap.UserGroups},
		{KeyCounters, snap.Counters},
	}
	for _, b := range blobs {
		raw, err := json.Marshal(b.value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", b.key, err)
		}
		if err := adapter.Save(ctx, b.key, raw); err != nil {
			return fmt.Errorf("save %s: %w", b.key, err)
		}
	}
	return nil
}

// LoadSnapshot reads all four keys and decodes them into a snapshot. Missing
// keys decode as empty collections, so a fresh store yields an empty, usable
// snapshot rather than an error.
func LoadSnapshot(ctx context.Context, adapter Adapter) (*store.Snapshot, error) {
	snap := store.NewSnapshot()

	if err := loadInto(ctx, adapter, KeyInvites, &snap.Invites); err != nil {
		return nil, err
	}
	if err := loadInto(ctx, adapter, KeyGroups, &snap.Groups); err != nil {
		return nil, err
	}
	if err := loadInto(ctx, adapter, KeyUserGroups, &snap.UserGroups); err != nil {
		return nil, err
	}
	if err := loadInto(ctx, adapter, KeyCounters, &snap.Counters); err != nil {
		return nil, err
	}

	if snap.Invites == nil {
		snap.Invites = map[string]models.Invite{}
	}
	if snap.Groups == nil {
		snap.Groups = map[string]models.Group{}
	}
	if snap.UserGroups == nil {
		snap.UserGroups = map[string]string{}
	}
	return snap, nil
}

func loadInto(ctx context.Context, adapter Adapter, key string, dst any) error {
	raw, err := adapter.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
