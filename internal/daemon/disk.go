package daemon

import (
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"
)

// minFreeBytes is the floor below which the daemon refuses to start.
// SQLite WAL checkpoints and cache writes both need headroom.
const minFreeBytes = 128 << 20

type statfsFunc func(path string, stat *unix.Statfs_t) error

// statfs is swapped out in tests.
var statfs statfsFunc = unix.Statfs

func checkDataDirSpace(dataDir string, logger *slog.Logger) error {
	var stat unix.Statfs_t
	if err := statfs(dataDir, &stat); err != nil {
		return fmt.Errorf("statfs %s: %w", dataDir, err)
	}

	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeBytes {
		return fmt.Errorf("data directory %s has %d MB free, need at least %d MB",
			dataDir, free>>20, int64(minFreeBytes)>>20)
	}
	if free < 4*minFreeBytes {
		logger.Warn("data directory space is low", "path", dataDir, "free_mb", free>>20)
	}
	return nil
}
