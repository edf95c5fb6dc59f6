package resolve

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tubefeed/internal/backend"
	"tubefeed/internal/health"
	"tubefeed/internal/media"
)

type fakeResolver struct {
	endpoint string
	video    *media.VideoRef
	channel  *media.ChannelRef
	err      error
	calls    int
}

func (f *fakeResolver) ResolveVideo(ctx context.Context, videoID string) (*media.VideoRef, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.video, nil
}

func (f *fakeResolver) ResolveChannel(ctx context.Context, channelID string) (*media.ChannelRef, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.channel != nil {
		return f.channel, nil
	}
	return &media.ChannelRef{ID: channelID, Name: "Chan"}, nil
}

func (f *fakeResolver) ChannelVideos(ctx context.Context, channelID, cursor string) (media.ChannelPage, error) {
	f.calls++
	if f.err != nil {
		return media.ChannelPage{}, f.err
	}
	return media.ChannelPage{Videos: []media.VideoRef{*f.video}}, nil
}

func (f *fakeResolver) Search(ctx context.Context, query string, opts media.SearchOptions) ([]media.VideoRef, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []media.VideoRef{*f.video}, nil
}

func (f *fakeResolver) Trending(ctx context.Context, region string) ([]media.VideoRef, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []media.VideoRef{*f.video}, nil
}

func (f *fakeResolver) Endpoint() string { return f.endpoint }

func testVideo(id string) *media.VideoRef {
	return &media.VideoRef{ID: id, Title: "Video " + id, ChannelID: "UCchan", ChannelName: "Chan"}
}

func transientErr() error {
	return backend.Wrap(backend.ErrTransient, "fetch", errors.New("connection refused"))
}

func notFoundErr() error {
	return backend.Wrap(backend.ErrNotFound, "fetch", errors.New("gone"))
}

func newOrchestrator(t *testing.T, primary *fakeResolver, fallbacks []*fakeResolver, opts Options) (*Orchestrator, *health.Monitor) {
	t.Helper()
	urls := make([]string, 0, len(fallbacks))
	adapters := make(map[string]backend.Resolver, len(fallbacks))
	for _, f := range fallbacks {
		urls = append(urls, f.endpoint)
		adapters[f.endpoint] = f
	}
	monitor := health.NewMonitor(urls)
	return New(primary, adapters, monitor, opts), monitor
}

func TestPrimarySuccessSkipsFallback(t *testing.T) {
	primary := &fakeResolver{endpoint: "primary", video: testVideo("a")}
	fb := &fakeResolver{endpoint: "https://fb.test", video: testVideo("a")}
	o, _ := newOrchestrator(t, primary, []*fakeResolver{fb}, Options{FallbackEnabled: true})

	ref, err := o.ResolveVideo(context.Background(), "a")
	if err != nil {
		t.Fatalf("ResolveVideo: %v", err)
	}
	if ref.ID != "a" {
		t.Errorf("ref = %+v", ref)
	}
	if fb.calls != 0 {
		t.Error("fallback contacted despite primary success")
	}
}

func TestTransientPrimaryFailureFallsBack(t *testing.T) {
	primary := &fakeResolver{endpoint: "primary", err: transientErr()}
	fb := &fakeResolver{endpoint: "https://fb.test", video: testVideo("a")}
	o, monitor := newOrchestrator(t, primary, []*fakeResolver{fb}, Options{FallbackEnabled: true})

	ref, err := o.ResolveVideo(context.Background(), "a")
	if err != nil {
		t.Fatalf("ResolveVideo: %v", err)
	}
	if ref.ID != "a" || fb.calls != 1 {
		t.Errorf("fallback not used: calls=%d", fb.calls)
	}
	if monitor.Snapshot()[0].ConsecutiveFailures != 0 {
		t.Error("successful fallback should report success")
	}
}

func TestPermanentPrimaryFailureShortCircuits(t *testing.T) {
	primary := &fakeResolver{endpoint: "primary", err: notFoundErr()}
	fb := &fakeResolver{endpoint: "https://fb.test", video: testVideo("a")}
	o, _ := newOrchestrator(t, primary, []*fakeResolver{fb}, Options{FallbackEnabled: true})

	_, err := o.ResolveVideo(context.Background(), "a")
	if !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if fb.calls != 0 {
		t.Error("permanent failure must not trigger fallback")
	}
	var resErr *ResolutionError
	if !errors.As(err, &resErr) || len(resErr.Attempts) != 1 {
		t.Fatalf("attempt trail = %+v", err)
	}
}

func TestFallbackDisabledIsAbsolute(t *testing.T) {
	primary := &fakeResolver{endpoint: "primary", err: transientErr()}
	fb := &fakeResolver{endpoint: "https://fb.test", video: testVideo("a")}
	o, _ := newOrchestrator(t, primary, []*fakeResolver{fb}, Options{FallbackEnabled: false})

	_, err := o.ResolveVideo(context.Background(), "a")
	if err == nil {
		t.Fatal("expected failure with fallback disabled")
	}
	if fb.calls != 0 {
		t.Error("fallback contacted while disabled")
	}
}

func TestFallbackAttemptsAreBounded(t *testing.T) {
	primary := &fakeResolver{endpoint: "primary", err: transientErr()}
	var fallbacks []*fakeResolver
	for _, url := range []string{"https://a.test", "https://b.test", "https://c.test", "https://d.test"} {
		fallbacks = append(fallbacks, &fakeResolver{endpoint: url, err: transientErr()})
	}
	o, _ := newOrchestrator(t, primary, fallbacks, Options{FallbackEnabled: true})

	_, err := o.ResolveVideo(context.Background(), "a")
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected resolution error, got %v", err)
	}
	// Primary plus at most three fallback instances.
	if len(resErr.Attempts) != 4 {
		t.Fatalf("attempts = %d, want 4", len(resErr.Attempts))
	}
	total := 0
	for _, f := range fallbacks {
		total += f.calls
	}
	if total != 3 {
		t.Fatalf("fallback calls = %d, want 3", total)
	}
}

func TestPermanentFallbackAnswerEndsTrail(t *testing.T) {
	primary := &fakeResolver{endpoint: "primary", err: transientErr()}
	first := &fakeResolver{endpoint: "https://a.test", err: notFoundErr()}
	second := &fakeResolver{endpoint: "https://b.test", video: testVideo("a")}
	o, monitor := newOrchestrator(t, primary, []*fakeResolver{first, second}, Options{FallbackEnabled: true})

	_, err := o.ResolveVideo(context.Background(), "a")
	if !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if second.calls != 0 {
		t.Error("definitive answer must stop the fallback chain")
	}
	// A not-found answer says nothing bad about the instance.
	for _, inst := range monitor.Snapshot() {
		if inst.ConsecutiveFailures != 0 {
			t.Errorf("instance %s penalized for a definitive answer", inst.URL)
		}
	}
}

func TestHealthierInstanceTriedFirst(t *testing.T) {
	primary := &fakeResolver{endpoint: "primary", err: transientErr()}
	shaky := &fakeResolver{endpoint: "https://shaky.test", video: testVideo("a")}
	solid := &fakeResolver{endpoint: "https://solid.test", video: testVideo("a")}
	o, monitor := newOrchestrator(t, primary, []*fakeResolver{shaky, solid}, Options{FallbackEnabled: true})

	monitor.ReportFailure(shaky.endpoint)
	monitor.ReportFailure(shaky.endpoint)
	monitor.ReportSuccess(solid.endpoint)

	if _, err := o.ResolveVideo(context.Background(), "a"); err != nil {
		t.Fatalf("ResolveVideo: %v", err)
	}
	if solid.calls != 1 || shaky.calls != 0 {
		t.Fatalf("solid=%d shaky=%d, higher scored instance must go first", solid.calls, shaky.calls)
	}
}

func TestResolveChannelFallsBack(t *testing.T) {
	primary := &fakeResolver{endpoint: "primary", err: transientErr()}
	fb := &fakeResolver{endpoint: "https://fb.test", channel: &media.ChannelRef{ID: "UCchan", Name: "Chan"}}
	o, monitor := newOrchestrator(t, primary, []*fakeResolver{fb}, Options{FallbackEnabled: true})

	ref, err := o.ResolveChannel(context.Background(), "UCchan")
	if err != nil {
		t.Fatalf("ResolveChannel: %v", err)
	}
	if ref.Name != "Chan" || fb.calls != 1 {
		t.Errorf("fallback not used: ref=%+v calls=%d", ref, fb.calls)
	}
	if monitor.Snapshot()[0].ConsecutiveFailures != 0 {
		t.Error("successful fallback should report success")
	}
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestRepeatLookupWithinTTLHitsCache(t *testing.T) {
	primary := &fakeResolver{endpoint: "primary", video: testVideo("a")}
	o, _ := newOrchestrator(t, primary, nil, Options{Cache: newTestCache(t)})

	for i := 0; i < 3; i++ {
		if _, err := o.ResolveVideo(context.Background(), "a"); err != nil {
			t.Fatalf("ResolveVideo: %v", err)
		}
	}
	if primary.calls != 1 {
		t.Fatalf("primary calls = %d, want exactly one network fetch", primary.calls)
	}
}

func TestNegativeCacheSuppressesRefetch(t *testing.T) {
	primary := &fakeResolver{endpoint: "primary", err: notFoundErr()}
	o, _ := newOrchestrator(t, primary, nil, Options{Cache: newTestCache(t)})

	if _, err := o.ResolveVideo(context.Background(), "gone"); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if _, err := o.ResolveVideo(context.Background(), "gone"); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected cached not-found, got %v", err)
	}
	if primary.calls != 1 {
		t.Fatalf("primary calls = %d, negative cache should absorb the repeat", primary.calls)
	}
}

func TestChannelPagesCacheSeparatelyPerCursor(t *testing.T) {
	primary := &fakeResolver{endpoint: "primary", video: testVideo("a")}
	o, _ := newOrchestrator(t, primary, nil, Options{Cache: newTestCache(t)})

	if _, err := o.ChannelVideos(context.Background(), "UCchan", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := o.ChannelVideos(context.Background(), "UCchan", "page-two"); err != nil {
		t.Fatal(err)
	}
	if _, err := o.ChannelVideos(context.Background(), "UCchan", ""); err != nil {
		t.Fatal(err)
	}
	if primary.calls != 2 {
		t.Fatalf("primary calls = %d, want one per distinct cursor", primary.calls)
	}
}
