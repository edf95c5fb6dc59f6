package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tubefeed/internal/backend"
	"tubefeed/internal/health"
	"tubefeed/internal/media"
)

// maxFallbackAttempts bounds how many fallback instances one lookup
// may try after the primary fails.
const maxFallbackAttempts = 3

// Attempt records one backend try within a resolution.
type Attempt struct {
	Endpoint string
	Err      error
	Class    backend.Class
}

// ResolutionError reports a lookup that exhausted its backends. The
// attempt trail preserves every endpoint tried and why it failed.
type ResolutionError struct {
	Operation string
	Attempts  []Attempt
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed after %d attempt(s)", e.Operation, len(e.Attempts))
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "; %s: %v", a.Endpoint, a.Err)
	}
	return b.String()
}

// Unwrap exposes the final attempt's error for errors.Is checks, which
// is the decisive one: a permanent failure always ends the trail.
func (e *ResolutionError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// Options configures an Orchestrator.
type Options struct {
	// FallbackEnabled gates the secondary backend entirely. When false
	// no fallback instance is contacted under any circumstances.
	FallbackEnabled bool

	// Cache may be nil to disable caching.
	Cache *Cache

	Logger *slog.Logger
}

// Orchestrator routes lookups to the primary backend and, on transient
// failure, to ranked fallback instances.
type Orchestrator struct {
	primary   backend.Resolver
	fallbacks map[string]backend.Resolver
	monitor   *health.Monitor
	opts      Options
	logger    *slog.Logger
}

// New builds an orchestrator. fallbacks maps instance URLs to their
// adapters; monitor must track the same URLs.
func New(primary backend.Resolver, fallbacks map[string]backend.Resolver, monitor *health.Monitor, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		primary:   primary,
		fallbacks: fallbacks,
		monitor:   monitor,
		opts:      opts,
		logger:    logger.With("component", "resolver"),
	}
}

// run executes one lookup with the full fallback policy. fetch is
// invoked once per backend in try order.
func run[T any](ctx context.Context, o *Orchestrator, operation string, fetch func(backend.Resolver) (T, error)) (T, error) {
	var zero T
	var attempts []Attempt

	record := func(endpoint string, err error) backend.Class {
		class := backend.Classify(err)
		attempts = append(attempts, Attempt{Endpoint: endpoint, Err: err, Class: class})
		o.logger.Debug("backend attempt failed",
			"operation", operation,
			"endpoint", endpoint,
			"class", string(class),
			"error", err)
		return class
	}

	result, err := fetch(o.primary)
	if err == nil {
		return result, nil
	}
	if class := record(o.primary.Endpoint(), err); class == backend.ClassPermanent || !o.opts.FallbackEnabled {
		return zero, &ResolutionError{Operation: operation, Attempts: attempts}
	}

	tried := 0
	for _, url := range o.monitor.Ranked() {
		if tried >= maxFallbackAttempts {
			break
		}
		adapter, ok := o.fallbacks[url]
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			record(url, backend.Wrap(backend.ErrTransient, operation, ctx.Err()))
			break
		}
		tried++
		o.monitor.MarkUsed(url)
		result, err = fetch(adapter)
		if err == nil {
			o.monitor.ReportSuccess(url)
			return result, nil
		}
		class := record(url, err)
		if class == backend.ClassPermanent {
			// Definitive answer; the instance itself is fine.
			o.monitor.ReportSuccess(url)
			return zero, &ResolutionError{Operation: operation, Attempts: attempts}
		}
		o.monitor.ReportFailure(url)
	}
	return zero, &ResolutionError{Operation: operation, Attempts: attempts}
}

// ResolveVideo fetches one video's metadata, serving from cache within
// the video TTL and remembering permanent misses.
func (o *Orchestrator) ResolveVideo(ctx context.Context, videoID string) (*media.VideoRef, error) {
	key := "video:" + videoID
	var cached media.VideoRef
	if hit, negative := o.opts.Cache.get(key, &cached); hit {
		if negative {
			return nil, backend.Wrap(backend.ErrNotFound, "resolve video", fmt.Errorf("%s (cached)", videoID))
		}
		return &cached, nil
	}

	ref, err := run(ctx, o, "resolve video "+videoID, func(r backend.Resolver) (*media.VideoRef, error) {
		return r.ResolveVideo(ctx, videoID)
	})
	if err != nil {
		if backend.IsPermanent(err) {
			o.opts.Cache.putNegative(key)
		}
		return nil, err
	}
	o.opts.Cache.put(key, ref, VideoTTL)
	return ref, nil
}

// ResolveChannel fetches a channel's profile metadata, with the same
// caching policy as video resolution.
func (o *Orchestrator) ResolveChannel(ctx context.Context, channelID string) (*media.ChannelRef, error) {
	key := "channelref:" + channelID
	var cached media.ChannelRef
	if hit, negative := o.opts.Cache.get(key, &cached); hit {
		if negative {
			return nil, backend.Wrap(backend.ErrNotFound, "resolve channel", fmt.Errorf("%s (cached)", channelID))
		}
		return &cached, nil
	}

	ref, err := run(ctx, o, "resolve channel "+channelID, func(r backend.Resolver) (*media.ChannelRef, error) {
		return r.ResolveChannel(ctx, channelID)
	})
	if err != nil {
		if backend.IsPermanent(err) {
			o.opts.Cache.putNegative(key)
		}
		return nil, err
	}
	o.opts.Cache.put(key, ref, VideoTTL)
	return ref, nil
}

// ChannelVideos fetches one page of a channel's uploads.
func (o *Orchestrator) ChannelVideos(ctx context.Context, channelID, cursor string) (media.ChannelPage, error) {
	key := "channel:" + channelID + ":" + cursor
	var cached media.ChannelPage
	if hit, negative := o.opts.Cache.get(key, &cached); hit {
		if negative {
			return media.ChannelPage{}, backend.Wrap(backend.ErrNotFound, "channel videos", fmt.Errorf("%s (cached)", channelID))
		}
		return cached, nil
	}

	page, err := run(ctx, o, "channel videos "+channelID, func(r backend.Resolver) (media.ChannelPage, error) {
		return r.ChannelVideos(ctx, channelID, cursor)
	})
	if err != nil {
		if backend.IsPermanent(err) {
			o.opts.Cache.putNegative(key)
		}
		return media.ChannelPage{}, err
	}
	o.opts.Cache.put(key, page, ListingTTL)
	return page, nil
}

// Search runs a text query. Results are cached briefly keyed on the
// query and filters.
func (o *Orchestrator) Search(ctx context.Context, query string, opts media.SearchOptions) ([]media.VideoRef, error) {
	key := fmt.Sprintf("search:%s:%s:%s:%s", query, opts.SortBy, opts.Duration, opts.Kind)
	var cached []media.VideoRef
	if hit, _ := o.opts.Cache.get(key, &cached); hit {
		return cached, nil
	}

	results, err := run(ctx, o, "search "+query, func(r backend.Resolver) ([]media.VideoRef, error) {
		return r.Search(ctx, query, opts)
	})
	if err != nil {
		return nil, err
	}
	o.opts.Cache.put(key, results, ListingTTL)
	return results, nil
}

// Trending fetches the trending listing for a region.
func (o *Orchestrator) Trending(ctx context.Context, region string) ([]media.VideoRef, error) {
	key := "trending:" + region
	var cached []media.VideoRef
	if hit, _ := o.opts.Cache.get(key, &cached); hit {
		return cached, nil
	}

	results, err := run(ctx, o, "trending "+region, func(r backend.Resolver) ([]media.VideoRef, error) {
		return r.Trending(ctx, region)
	})
	if err != nil {
		return nil, err
	}
	o.opts.Cache.put(key, results, ListingTTL)
	return results, nil
}
