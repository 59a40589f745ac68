package testutil

import (
	"context"
	"math/rand/v2"
	"testing"

	"talentflow/internal/store"
	"talentflow/internal/talentflow"
)

// NewTestStore creates an in-memory store with the schema applied.
// It is closed when the test completes.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(store.MemoryPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// NewSeededStore creates a test store filled by the Seeder with counts,
// using a fixed random source so the data is the same on every run.
func NewSeededStore(t *testing.T, counts talentflow.SeedCounts) *store.Store {
	t.Helper()

	s := NewTestStore(t)
	seeder := talentflow.NewSeeder(s, counts, FixedClock(), rand.New(rand.NewPCG(1, 2)), talentflow.NewNopLogger())
	if _, err := seeder.Seed(context.Background()); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return s
}
