package testsupport

import (
	"context"
	"testing"

	"carvelens/internal/config"
	"carvelens/internal/manifest"
	"carvelens/internal/store"
)

// MustOpenStore opens a session store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewSession creates a running session for tests using the provided store.
func NewSession(t testing.TB, st *store.Store, imageName string) *store.Session {
	t.Helper()

	session, err := st.CreateSession(context.Background(), manifest.Summary{ImageName: imageName}, store.ConfigSnapshot{})
	if err != nil {
		t.Fatalf("store.CreateSession: %v", err)
	}
	return session
}
