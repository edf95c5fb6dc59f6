package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tubefeed/internal/health"
)

func mustOpen(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "profiles.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func defaultProfile(t *testing.T, s *Store) *Profile {
	t.Helper()
	p, err := s.EnsureDefaultProfile(context.Background())
	if err != nil {
		t.Fatalf("ensure default profile: %v", err)
	}
	return p
}

func TestOpenBootstrapsDefaultProfile(t *testing.T) {
	s := mustOpen(t)
	profiles, err := s.ListProfiles(context.Background())
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	if len(profiles) != 1 || profiles[0].Name != DefaultProfileName {
		t.Fatalf("profiles = %+v", profiles)
	}
}

func TestCreateProfileRejectsDuplicateName(t *testing.T) {
	s := mustOpen(t)
	if _, err := s.CreateProfile(context.Background(), "kids"); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if _, err := s.CreateProfile(context.Background(), "kids"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeleteProfileCascades(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()
	p, err := s.CreateProfile(ctx, "second")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Subscribe(ctx, p.ID, "UCchan", "Chan"); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordWatch(ctx, HistoryEntry{ProfileID: p.ID, VideoID: "vid1"}); err != nil {
		t.Fatal(err)
	}
	pl, err := s.CreatePlaylist(ctx, p.ID, "favs")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddToPlaylist(ctx, PlaylistVideo{PlaylistID: pl.ID, VideoID: "vid1"}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteProfile(ctx, p.ID); err != nil {
		t.Fatalf("delete profile: %v", err)
	}

	subs, err := s.ListSubscriptions(ctx, p.ID)
	if err != nil || len(subs) != 0 {
		t.Fatalf("subscriptions survived cascade: %v %v", subs, err)
	}
	history, err := s.ListHistory(ctx, p.ID, 0)
	if err != nil || len(history) != 0 {
		t.Fatalf("history survived cascade: %v %v", history, err)
	}
	playlists, err := s.ListPlaylists(ctx, p.ID)
	if err != nil || len(playlists) != 0 {
		t.Fatalf("playlists survived cascade: %v %v", playlists, err)
	}
}

func TestDeleteLastProfileFails(t *testing.T) {
	s := mustOpen(t)
	p := defaultProfile(t, s)
	if err := s.DeleteProfile(context.Background(), p.ID); !errors.Is(err, ErrProfileInUse) {
		t.Fatalf("expected last-profile guard, got %v", err)
	}
}

func TestSubscribeIsIdempotent(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()
	p := defaultProfile(t, s)

	inserted, err := s.Subscribe(ctx, p.ID, "UCchan", "Chan")
	if err != nil || !inserted {
		t.Fatalf("first subscribe: inserted=%v err=%v", inserted, err)
	}
	inserted, err = s.Subscribe(ctx, p.ID, "UCchan", "Chan")
	if err != nil {
		t.Fatalf("second subscribe: %v", err)
	}
	if inserted {
		t.Fatal("duplicate subscribe reported as inserted")
	}

	subs, err := s.ListSubscriptions(ctx, p.ID)
	if err != nil || len(subs) != 1 {
		t.Fatalf("subs = %+v err=%v", subs, err)
	}
}

func TestSubscriptionsAreProfileScoped(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()
	first := defaultProfile(t, s)
	second, err := s.CreateProfile(ctx, "second")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Subscribe(ctx, first.ID, "UCchan", "Chan"); err != nil {
		t.Fatal(err)
	}
	subscribed, err := s.IsSubscribed(ctx, second.ID, "UCchan")
	if err != nil {
		t.Fatal(err)
	}
	if subscribed {
		t.Fatal("subscription leaked across profiles")
	}
}

func TestImportSubscriptionsCounts(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()
	p := defaultProfile(t, s)

	if _, err := s.Subscribe(ctx, p.ID, "UCexisting", "Existing"); err != nil {
		t.Fatal(err)
	}

	result, err := s.ImportSubscriptions(ctx, p.ID, []Subscription{
		{ChannelID: "UCnew1", ChannelName: "New One"},
		{ChannelID: "UCnew2", ChannelName: "New Two"},
		{ChannelID: "UCexisting", ChannelName: "Existing"},
		{ChannelID: "", ChannelName: "Broken"},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Inserted != 2 || result.Skipped != 1 || result.Rejected != 1 {
		t.Fatalf("result = %+v", result)
	}
}

func TestSearchSubscriptionsFuzzy(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()
	p := defaultProfile(t, s)

	for _, sub := range []struct{ id, name string }{
		{"UC1", "Tech Explained"},
		{"UC2", "Cooking Daily"},
		{"UC3", "Technology Review"},
	} {
		if _, err := s.Subscribe(ctx, p.ID, sub.id, sub.name); err != nil {
			t.Fatal(err)
		}
	}

	matches, err := s.SearchSubscriptions(ctx, p.ID, "tech")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %+v", matches)
	}
	for _, m := range matches {
		if m.ChannelID == "UC2" {
			t.Fatal("unrelated channel matched")
		}
	}
}

func TestWatchProgressIsMonotonic(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()
	p := defaultProfile(t, s)

	entry := HistoryEntry{ProfileID: p.ID, VideoID: "vid1", Title: "One", ProgressSeconds: 300}
	if err := s.RecordWatch(ctx, entry); err != nil {
		t.Fatal(err)
	}

	entry.ProgressSeconds = 120
	if err := s.RecordWatch(ctx, entry); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetWatch(ctx, p.ID, "vid1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ProgressSeconds != 300 {
		t.Fatalf("progress = %d, regressions must be ignored", got.ProgressSeconds)
	}

	entry.ProgressSeconds = 450
	if err := s.RecordWatch(ctx, entry); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetWatch(ctx, p.ID, "vid1")
	if got.ProgressSeconds != 450 {
		t.Fatalf("progress = %d, want 450", got.ProgressSeconds)
	}

	if err := s.ResetProgress(ctx, p.ID, "vid1"); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetWatch(ctx, p.ID, "vid1")
	if got.ProgressSeconds != 0 {
		t.Fatalf("progress = %d after explicit reset", got.ProgressSeconds)
	}
}

func TestPurgeHistoryBefore(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()
	p := defaultProfile(t, s)

	old := HistoryEntry{ProfileID: p.ID, VideoID: "old", WatchedAt: time.Now().AddDate(0, 0, -120)}
	recent := HistoryEntry{ProfileID: p.ID, VideoID: "recent", WatchedAt: time.Now()}
	if err := s.RecordWatch(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordWatch(ctx, recent); err != nil {
		t.Fatal(err)
	}

	purged, err := s.PurgeHistoryBefore(ctx, time.Now().AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("purged = %d, want 1", purged)
	}
	if _, err := s.GetWatch(ctx, p.ID, "recent"); err != nil {
		t.Fatal("recent entry purged")
	}
}

func TestPlaylistPositionsStayDense(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()
	p := defaultProfile(t, s)
	pl, err := s.CreatePlaylist(ctx, p.ID, "queue")
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"a", "b", "c"} {
		if err := s.AddToPlaylist(ctx, PlaylistVideo{PlaylistID: pl.ID, VideoID: id}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AddToPlaylist(ctx, PlaylistVideo{PlaylistID: pl.ID, VideoID: "a"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate add = %v", err)
	}

	if err := s.RemoveFromPlaylist(ctx, pl.ID, "b"); err != nil {
		t.Fatal(err)
	}
	videos, err := s.ListPlaylistVideos(ctx, pl.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 2 {
		t.Fatalf("videos = %+v", videos)
	}
	for i, v := range videos {
		if v.Position != i {
			t.Fatalf("position gap after removal: %+v", videos)
		}
	}
	if videos[0].VideoID != "a" || videos[1].VideoID != "c" {
		t.Fatalf("order changed: %+v", videos)
	}
}

func TestMoveInPlaylist(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()
	p := defaultProfile(t, s)
	pl, err := s.CreatePlaylist(ctx, p.ID, "queue")
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := s.AddToPlaylist(ctx, PlaylistVideo{PlaylistID: pl.ID, VideoID: id}); err != nil {
			t.Fatal(err)
		}
	}

	order := func() []string {
		t.Helper()
		videos, err := s.ListPlaylistVideos(ctx, pl.ID)
		if err != nil {
			t.Fatal(err)
		}
		ids := make([]string, len(videos))
		for i, v := range videos {
			if v.Position != i {
				t.Fatalf("position gap: %+v", videos)
			}
			ids[i] = v.VideoID
		}
		return ids
	}

	if err := s.MoveInPlaylist(ctx, pl.ID, "d", 0); err != nil {
		t.Fatal(err)
	}
	if got := order(); got[0] != "d" || got[1] != "a" || got[2] != "b" || got[3] != "c" {
		t.Fatalf("after move to front: %v", got)
	}

	if err := s.MoveInPlaylist(ctx, pl.ID, "a", 99); err != nil {
		t.Fatal(err)
	}
	if got := order(); got[3] != "a" {
		t.Fatalf("after clamped move to end: %v", got)
	}

	if err := s.MoveInPlaylist(ctx, pl.ID, "missing", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("move of absent video = %v", err)
	}
}

func TestInstanceHealthRoundTrip(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()

	saved := []health.Instance{
		{URL: "https://a.test", Score: 0.49, ConsecutiveFailures: 2, State: health.StateDegraded},
		{URL: "https://b.test", Score: 1.0, State: health.StateHealthy, LastChecked: time.Now().UTC()},
	}
	if err := s.SaveInstanceHealth(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := s.LoadInstanceHealth(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded = %+v", loaded)
	}
	byURL := map[string]health.Instance{}
	for _, inst := range loaded {
		byURL[inst.URL] = inst
	}
	if got := byURL["https://a.test"]; got.Score != 0.49 || got.State != health.StateDegraded {
		t.Fatalf("instance a = %+v", got)
	}
	if got := byURL["https://b.test"]; got.LastChecked.IsZero() {
		t.Fatal("last checked not preserved")
	}
}
