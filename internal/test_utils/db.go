package test_utils

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spendlog/spendlog/internal/localstore"
)

// NewLocalStore opens a slot store in a fresh temporary directory, closed when the test ends.
func NewLocalStore(t *testing.T) *localstore.Store {
	t.Helper()

	store, err := localstore.Open(context.Background(), filepath.Join(t.TempDir(), "slots.db"))
	if err != nil {
		t.Fatalf("Failed to open local store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
