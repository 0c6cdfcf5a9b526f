package testsupport

import (
	"context"
	"testing"

	"crate/internal/config"
	"crate/internal/index"
	"crate/internal/logging"
)

// MustOpenIndex opens the configured index for tests and registers cleanup.
func MustOpenIndex(t testing.TB, cfg *config.Config) *index.Store {
	t.Helper()

	store, err := index.Open(cfg.Paths.IndexPath, logging.NewNop())
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedIndex opens the configured index and inserts the sample releases.
func SeedIndex(t testing.TB, cfg *config.Config) *index.Store {
	t.Helper()

	store := MustOpenIndex(t, cfg)
	if err := store.Insert(context.Background(), index.SampleEntries()...); err != nil {
		t.Fatalf("seed index: %v", err)
	}
	return store
}
