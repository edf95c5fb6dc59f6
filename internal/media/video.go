package media

import "time"

// VideoRef is an immutable snapshot of a video's metadata. A re-fetch
// produces a new VideoRef; cached values are never mutated in place.
type VideoRef struct {
	ID              string
	Title           string
	ChannelID       string
	ChannelName     string
	DurationSeconds int
	PublishedAt     *time.Time
	ThumbnailURL    string
	ViewCount       *int64
	Live            bool
}

// ChannelPage is one page of a channel's uploads, newest first.
type ChannelPage struct {
	Videos     []VideoRef
	NextCursor string
}

// HasMore reports whether another page can be requested.
func (p ChannelPage) HasMore() bool {
	return p.NextCursor != ""
}

// SearchOptions narrows a search request. Zero value means no filtering.
type SearchOptions struct {
	SortBy   string // relevance, upload_date, view_count
	Duration string // short, medium, long
	Kind     string // video, channel, playlist
}
