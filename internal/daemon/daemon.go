// Package daemon runs the background maintenance loops: instance
// health probing, history retention, and resolve cache cleanup. A file
// lock keeps the daemon single-instance per data directory.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"tubefeed/internal/backend/invidious"
	"tubefeed/internal/config"
	"tubefeed/internal/health"
	"tubefeed/internal/logging"
	"tubefeed/internal/resolve"
	"tubefeed/internal/store"
)

const (
	probeTimeout      = 10 * time.Second
	retentionInterval = 6 * time.Hour
)

// ProbeFunc checks whether one fallback instance answers its stats
// endpoint. The default implementation queries the instance over HTTP.
type ProbeFunc func(ctx context.Context, instanceURL string) error

// Daemon owns the background loops. Construct with New, then Start and
// eventually Close.
type Daemon struct {
	cfg     *config.Config
	store   *store.Store
	monitor *health.Monitor
	cache   *resolve.Cache
	logger  *slog.Logger
	lock    *flock.Flock
	probe   ProbeFunc
	now     func() time.Time

	probeInterval time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New wires a daemon from its dependencies. The cache may be nil when
// resolution caching is disabled.
func New(cfg *config.Config, st *store.Store, monitor *health.Monitor, cache *resolve.Cache, logger *slog.Logger) *Daemon {
	d := &Daemon{
		cfg:           cfg,
		store:         st,
		monitor:       monitor,
		cache:         cache,
		logger:        logging.WithComponent(logger, "daemon"),
		lock:          flock.New(cfg.LockPath()),
		now:           time.Now,
		probeInterval: time.Duration(cfg.Probe.IntervalSeconds) * time.Second,
	}
	d.probe = func(ctx context.Context, instanceURL string) error {
		return invidious.NewClient(instanceURL, cfg.Backend.Region).Stats(ctx)
	}
	return d
}

// Start acquires the single-instance lock, restores persisted health
// state, and launches the probe and retention loops.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return fmt.Errorf("daemon already started")
	}

	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another tubefeed daemon is already running (lock: %s)", d.cfg.LockPath())
	}

	if err := checkDataDirSpace(d.cfg.Paths.DataDir, d.logger); err != nil {
		d.unlock()
		return err
	}

	saved, err := d.store.LoadInstanceHealth(ctx)
	if err != nil {
		d.unlock()
		return fmt.Errorf("restore instance health: %w", err)
	}
	d.monitor.Restore(saved)

	loopCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.running.Store(true)

	d.wg.Add(2)
	go d.probeLoop(loopCtx)
	go d.retentionLoop(loopCtx)

	d.logger.Info("daemon started",
		"instances", len(d.cfg.Instances.URLs),
		"probe_interval", d.probeInterval,
		"history_retention_days", d.cfg.Retention.HistoryDays)
	return nil
}

// Stop halts the loops, persists monitor state, and releases the lock.
// Safe to call more than once.
func (d *Daemon) Stop() {
	if !d.running.CompareAndSwap(true, false) {
		return
	}
	d.cancel()
	d.wg.Wait()

	persistCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.store.SaveInstanceHealth(persistCtx, d.monitor.Snapshot()); err != nil {
		d.logger.Warn("persist instance health on shutdown", "error", err)
	}

	d.unlock()
	d.logger.Info("daemon stopped")
}

// Close is Stop plus release of anything Start may have left behind
// when it failed partway.
func (d *Daemon) Close() {
	d.Stop()
	d.unlock()
}

func (d *Daemon) unlock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", "error", err)
	}
}

func (d *Daemon) probeLoop(ctx context.Context) {
	defer d.wg.Done()

	d.runProbes(ctx)
	ticker := time.NewTicker(d.probeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runProbes(ctx)
		}
	}
}

// runProbes checks every configured instance once and persists the
// resulting monitor state.
func (d *Daemon) runProbes(ctx context.Context) {
	for _, instanceURL := range d.cfg.Instances.URLs {
		if ctx.Err() != nil {
			return
		}
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := d.probe(probeCtx, instanceURL)
		cancel()

		if err != nil {
			d.monitor.ReportFailure(instanceURL)
			d.logger.Warn("instance probe failed", "instance", instanceURL, "error", err)
			continue
		}
		d.monitor.ReportSuccess(instanceURL)
		d.logger.Debug("instance probe ok", "instance", instanceURL)
	}

	if err := d.store.SaveInstanceHealth(ctx, d.monitor.Snapshot()); err != nil && ctx.Err() == nil {
		d.logger.Warn("persist instance health", "error", err)
	}
}

func (d *Daemon) retentionLoop(ctx context.Context) {
	defer d.wg.Done()

	d.runRetention(ctx)
	ticker := time.NewTicker(retentionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runRetention(ctx)
		}
	}
}

// runRetention trims watch history past the configured horizon and
// drops expired resolve cache entries. A retention of zero days keeps
// history forever.
func (d *Daemon) runRetention(ctx context.Context) {
	if days := d.cfg.Retention.HistoryDays; days > 0 {
		cutoff := d.now().AddDate(0, 0, -days)
		purged, err := d.store.PurgeHistoryBefore(ctx, cutoff)
		switch {
		case err != nil && ctx.Err() == nil:
			d.logger.Warn("purge history", "error", err)
		case purged > 0:
			d.logger.Info("purged history", "entries", purged, "cutoff", cutoff)
		}
	}

	if d.cache != nil {
		if err := d.cache.Purge(); err != nil && ctx.Err() == nil {
			d.logger.Warn("purge resolve cache", "error", err)
		}
	}
}
