package store

import "time"

// Profile is an isolated identity. Every subscription, history entry,
// and playlist belongs to exactly one profile.
type Profile struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// DefaultProfileName is created on first open so the application is
// usable without explicit profile management.
const DefaultProfileName = "default"

// Subscription links a profile to a channel.
type Subscription struct {
	ProfileID    string
	ChannelID    string
	ChannelName  string
	SubscribedAt time.Time
}

// HistoryEntry records a watched video. Progress only moves forward
// unless explicitly reset.
type HistoryEntry struct {
	ProfileID       string
	VideoID         string
	Title           string
	ChannelID       string
	ChannelName     string
	DurationSeconds int
	ProgressSeconds int
	WatchedAt       time.Time
}

// Playlist is an ordered, named collection of videos within a profile.
type Playlist struct {
	ID        string
	ProfileID string
	Name      string
	CreatedAt time.Time
	Count     int
}

// PlaylistVideo is one entry in a playlist. Positions are dense: the
// first video holds 0 and removal re-packs the remainder.
type PlaylistVideo struct {
	PlaylistID      string
	VideoID         string
	Title           string
	ChannelName     string
	DurationSeconds int
	Position        int
}

// ImportResult summarizes a subscription import.
type ImportResult struct {
	Inserted int
	Skipped  int
	Rejected int
}
