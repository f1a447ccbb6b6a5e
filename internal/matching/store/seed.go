package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SeedPair describes one pre-paired demo group. Seed input is assumed to be
// pair-disjoint; the seeder bypasses invite validation on purpose, so no
// invite history is produced for seeded groups.
type SeedPair struct {
	UserAID string
	UserBID string
	NameA   string
	NameB   string
}

// DemoPairs returns n deterministic pairs. User IDs are name-based UUIDs so
// repeated bootstraps of an empty registry produce identical members.
func DemoPairs(n int) []SeedPair {
	names := [][2]string{
		{"Ava", "Liam"},
		{"Maya", "Noah"},
		{"Zoe", "Eli"},
		{"Ivy", "Max"},
		{"Ruby", "Leo"},
	}
	pairs := make([]SeedPair, 0, n)
	for i := 0; i < n; i++ {
		nameA := names[i%len(names)][0]
		nameB := names[i%len(names)][1]
		if i >= len(names) {
			nameA = fmt.Sprintf("%s %d", nameA, i/len(names)+1)
			nameB = fmt.Sprintf("%s %d", nameB, i/len(names)+1)
		}
		pairs = append(pairs, SeedPair{
			UserAID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("duomatch.demo.%d.a", i))).String(),
			UserBID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("duomatch.demo.%d.b", i))).String(),
			NameA:   nameA,
			NameB:   nameB,
		})
	}
	return pairs
}

// SeedPairs creates one active group per pair through the registry's internal
// creation primitive. Callers are responsible for only invoking this against
// an empty registry.
func SeedPairs(ctx context.Context, reg Registry, pairs []SeedPair, now time.Time) error {
	for _, p := range pairs {
		if _, err := reg.CreateGroup(ctx, p.UserAID, p.UserBID, p.NameA, p.NameB, now); err != nil {
			return fmt.Errorf("seed pair %s/%s: %w", p.NameA, p.NameB, err)
		}
	}
	return nil
}
