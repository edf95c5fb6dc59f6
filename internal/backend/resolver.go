package backend

import (
	"context"

	"tubefeed/internal/media"
)

// Resolver is the capability surface a backend must provide. Adapters
// perform no caching and no retries of their own; both belong to the
// orchestrator.
type Resolver interface {
	// ResolveVideo fetches a single video's metadata by id.
	ResolveVideo(ctx context.Context, videoID string) (*media.VideoRef, error)

	// ResolveChannel fetches a channel's profile metadata by id.
	ResolveChannel(ctx context.Context, channelID string) (*media.ChannelRef, error)

	// ChannelVideos fetches one page of a channel's uploads, newest
	// first. An empty cursor requests the first page.
	ChannelVideos(ctx context.Context, channelID, cursor string) (media.ChannelPage, error)

	// Search runs a text query. An empty result list is a successful
	// outcome, not an error.
	Search(ctx context.Context, query string, opts media.SearchOptions) ([]media.VideoRef, error)

	// Trending fetches the provider's trending listing for a region.
	Trending(ctx context.Context, region string) ([]media.VideoRef, error)

	// Endpoint identifies the backend for attempt trails and health
	// reporting (the primary's base URL or a secondary instance URL).
	Endpoint() string
}
