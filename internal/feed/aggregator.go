package feed

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"tubefeed/internal/media"
	"tubefeed/internal/store"
)

// defaultConcurrency bounds simultaneous channel fetches during a
// refresh.
const defaultConcurrency = 6

// Item is one feed entry annotated with the profile's watch state.
type Item struct {
	media.VideoRef
	Watched         bool
	ProgressSeconds int
}

// ChannelError records a channel whose fetch failed during a refresh.
type ChannelError struct {
	ChannelID   string
	ChannelName string
	Err         error
}

// Result is a refresh outcome. Items carries whatever could be fetched
// even when some channels failed.
type Result struct {
	Items       []Item
	Errors      []ChannelError
	RefreshedAt time.Time
}

// Source fetches channel uploads. The resolution orchestrator
// satisfies this.
type Source interface {
	ChannelVideos(ctx context.Context, channelID, cursor string) (media.ChannelPage, error)
}

// Library provides the profile data a refresh needs.
type Library interface {
	ListSubscriptions(ctx context.Context, profileID string) ([]store.Subscription, error)
	WatchedVideoIDs(ctx context.Context, profileID string) (map[string]int, error)
}

// Aggregator builds subscription feeds.
type Aggregator struct {
	source      Source
	library     Library
	concurrency int
	logger      *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithConcurrency overrides the fetch semaphore size.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// New builds an aggregator over the given source and library.
func New(source Source, library Library, logger *slog.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Aggregator{
		source:      source,
		library:     library,
		concurrency: defaultConcurrency,
		logger:      logger.With("component", "feed"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Refresh fetches the first page of every subscribed channel and merges
// the uploads newest first. Failed channels are reported alongside the
// merged items, never instead of them. A context deadline returns what
// completed so far.
func (a *Aggregator) Refresh(ctx context.Context, profileID string) (Result, error) {
	subs, err := a.library.ListSubscriptions(ctx, profileID)
	if err != nil {
		return Result{}, err
	}
	watched, err := a.library.WatchedVideoIDs(ctx, profileID)
	if err != nil {
		return Result{}, err
	}

	type fetchResult struct {
		videos []media.VideoRef
		err    error
	}
	results := make([]fetchResult, len(subs))

	sem := make(chan struct{}, a.concurrency)
	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub store.Subscription) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i].err = ctx.Err()
				return
			}
			page, err := a.source.ChannelVideos(ctx, sub.ChannelID, "")
			if err != nil {
				results[i].err = err
				return
			}
			results[i].videos = page.Videos
		}(i, sub)
	}
	wg.Wait()

	result := Result{RefreshedAt: time.Now()}
	var merged []media.VideoRef
	for i, sub := range subs {
		if results[i].err != nil {
			a.logger.Warn("channel refresh failed",
				"channel", sub.ChannelID,
				"name", sub.ChannelName,
				"error", results[i].err)
			result.Errors = append(result.Errors, ChannelError{
				ChannelID:   sub.ChannelID,
				ChannelName: sub.ChannelName,
				Err:         results[i].err,
			})
			continue
		}
		merged = append(merged, results[i].videos...)
	}

	// Newest first. Entries without a publish time sink to the end but
	// keep their per-channel order; the sort is stable and channels
	// were appended in subscription order.
	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i].PublishedAt, merged[j].PublishedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	seen := make(map[string]bool, len(merged))
	for _, video := range merged {
		if seen[video.ID] {
			continue
		}
		seen[video.ID] = true
		progress, isWatched := watched[video.ID]
		result.Items = append(result.Items, Item{
			VideoRef:        video,
			Watched:         isWatched,
			ProgressSeconds: progress,
		})
	}
	return result, nil
}
