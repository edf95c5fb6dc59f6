package testsupport

import (
	"context"
	"testing"

	"tubefeed/internal/config"
	"tubefeed/internal/store"
)

// MustOpenStore opens the profile store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// DefaultProfile returns the bootstrap profile created on first open.
func DefaultProfile(t testing.TB, st *store.Store) *store.Profile {
	t.Helper()

	profile, err := st.GetProfileByName(context.Background(), store.DefaultProfileName)
	if err != nil {
		t.Fatalf("default profile: %v", err)
	}
	return profile
}

// Subscribe adds a channel subscription for tests.
func Subscribe(t testing.TB, st *store.Store, profileID, channelID, channelName string) {
	t.Helper()

	if _, err := st.Subscribe(context.Background(), profileID, channelID, channelName); err != nil {
		t.Fatalf("subscribe %s: %v", channelID, err)
	}
}
