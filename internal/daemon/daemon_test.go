package daemon

import (
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"tubefeed/internal/config"
	"tubefeed/internal/health"
	"tubefeed/internal/logging"
	"tubefeed/internal/store"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = dir + "/data"
	cfg.Paths.CacheDir = dir + "/cache"
	cfg.Paths.LogDir = dir + "/logs"
	cfg.Instances.URLs = []string{"https://one.example", "https://two.example"}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cfg
}

func newTestDaemon(t *testing.T, cfg *config.Config) (*Daemon, *store.Store) {
	t.Helper()
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	d := New(cfg, st, health.NewMonitor(cfg.Instances.URLs), nil, logging.NewNop())
	t.Cleanup(d.Close)
	return d, st
}

func TestStartRunsProbesAndPersistsHealth(t *testing.T) {
	cfg := newTestConfig(t)
	d, st := newTestDaemon(t, cfg)

	probed := make(chan string, 8)
	d.probe = func(ctx context.Context, instanceURL string) error {
		probed <- instanceURL
		return nil
	}
	d.probeInterval = time.Hour

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for range cfg.Instances.URLs {
		select {
		case <-probed:
		case <-time.After(5 * time.Second):
			t.Fatal("probe pass did not run")
		}
	}
	d.Stop()

	saved, err := st.LoadInstanceHealth(context.Background())
	if err != nil {
		t.Fatalf("LoadInstanceHealth: %v", err)
	}
	if len(saved) != len(cfg.Instances.URLs) {
		t.Fatalf("persisted %d instances, want %d", len(saved), len(cfg.Instances.URLs))
	}
	for _, inst := range saved {
		if inst.Score <= 0.5 {
			t.Errorf("instance %s score = %v after successful probe", inst.URL, inst.Score)
		}
	}
}

func TestProbeFailureLowersScore(t *testing.T) {
	cfg := newTestConfig(t)
	d, _ := newTestDaemon(t, cfg)
	d.probe = func(ctx context.Context, instanceURL string) error {
		if instanceURL == cfg.Instances.URLs[0] {
			return context.DeadlineExceeded
		}
		return nil
	}

	d.runProbes(context.Background())

	snapshot := d.monitor.Snapshot()
	byURL := map[string]float64{}
	for _, inst := range snapshot {
		byURL[inst.URL] = inst.Score
	}
	if byURL[cfg.Instances.URLs[0]] >= byURL[cfg.Instances.URLs[1]] {
		t.Fatalf("failed instance not penalized: %v", byURL)
	}
}

func TestSecondDaemonRefusesToStart(t *testing.T) {
	cfg := newTestConfig(t)
	first, _ := newTestDaemon(t, cfg)
	first.probe = func(context.Context, string) error { return nil }
	first.probeInterval = time.Hour

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	second, _ := newTestDaemon(t, cfg)
	err := second.Start(context.Background())
	if err == nil {
		second.Stop()
		t.Fatal("second daemon acquired the lock")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Fatalf("err = %v", err)
	}
}

func TestRetentionPurgesOldHistory(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Retention.HistoryDays = 90
	d, st := newTestDaemon(t, cfg)

	ctx := context.Background()
	profile, err := st.GetProfileByName(ctx, store.DefaultProfileName)
	if err != nil {
		t.Fatalf("default profile: %v", err)
	}
	record := func(videoID string, watchedAt time.Time) {
		t.Helper()
		err := st.RecordWatch(ctx, store.HistoryEntry{
			ProfileID: profile.ID,
			VideoID:   videoID,
			Title:     "t",
			WatchedAt: watchedAt,
		})
		if err != nil {
			t.Fatalf("RecordWatch: %v", err)
		}
	}
	record("old-video", time.Now().AddDate(0, 0, -120))
	record("new-video", time.Now())

	d.runRetention(ctx)

	entries, err := st.ListHistory(ctx, profile.ID, 0)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(entries) != 1 || entries[0].VideoID != "new-video" {
		t.Fatalf("entries after retention = %+v", entries)
	}
}

func TestRetentionDisabledKeepsHistory(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Retention.HistoryDays = 0
	d, st := newTestDaemon(t, cfg)

	ctx := context.Background()
	profile, err := st.GetProfileByName(ctx, store.DefaultProfileName)
	if err != nil {
		t.Fatalf("default profile: %v", err)
	}
	err = st.RecordWatch(ctx, store.HistoryEntry{
		ProfileID: profile.ID,
		VideoID:   "ancient",
		Title:     "t",
		WatchedAt: time.Now().AddDate(-2, 0, 0),
	})
	if err != nil {
		t.Fatalf("RecordWatch: %v", err)
	}

	d.runRetention(ctx)

	entries, err := st.ListHistory(ctx, profile.ID, 0)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("history purged despite zero retention: %+v", entries)
	}
}

func TestCheckDataDirSpace(t *testing.T) {
	original := statfs
	t.Cleanup(func() { statfs = original })

	statfs = func(path string, stat *unix.Statfs_t) error {
		stat.Bavail = 1
		stat.Bsize = 4096
		return nil
	}
	if err := checkDataDirSpace(t.TempDir(), logging.NewNop()); err == nil {
		t.Fatal("expected low-space error")
	}

	statfs = func(path string, stat *unix.Statfs_t) error {
		stat.Bavail = 1 << 30
		stat.Bsize = 4096
		return nil
	}
	if err := checkDataDirSpace(t.TempDir(), logging.NewNop()); err != nil {
		t.Fatalf("check with ample space: %v", err)
	}
}
