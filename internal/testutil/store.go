// Package testutil holds shared test fixtures.
package testutil

import (
	"testing"
	"time"

	"github.com/nhle/inbox/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T, opts ...store.Option) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(store.MemoryPath, opts...)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// FixedClock returns a clock function that always reports now.
func FixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}
