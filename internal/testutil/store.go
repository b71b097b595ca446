package testutil

import (
	"path/filepath"
	"testing"

	"github.com/rbolet/every-player/internal/store"
)

// NewStore opens a store in a fresh temp dir and closes it on cleanup.
func NewStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "everyplayer.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
