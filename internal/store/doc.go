// Package store manages multi-profile persistence backed by SQLite.
// It owns profiles, subscriptions, watch history, playlists, and the
// persisted health state for fallback instances. All writes go through
// a busy-retry helper so concurrent CLI invocations and the daemon can
// share one database file.
package store
