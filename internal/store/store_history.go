package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RecordWatch upserts a history entry. Watch progress is monotonic: a
// report below the stored position updates the watched-at time but
// keeps the further position.
func (s *Store) RecordWatch(ctx context.Context, entry HistoryEntry) error {
	if entry.VideoID == "" {
		return fmt.Errorf("video id is empty")
	}
	if entry.WatchedAt.IsZero() {
		entry.WatchedAt = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO history (profile_id, video_id, title, channel_id, channel_name,
                              duration_seconds, progress_seconds, watched_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (profile_id, video_id) DO UPDATE SET
             title = excluded.title,
             channel_id = excluded.channel_id,
             channel_name = excluded.channel_name,
             duration_seconds = excluded.duration_seconds,
             progress_seconds = MAX(history.progress_seconds, excluded.progress_seconds),
             watched_at = excluded.watched_at`,
		entry.ProfileID, entry.VideoID, entry.Title, entry.ChannelID, entry.ChannelName,
		entry.DurationSeconds, entry.ProgressSeconds, timestamp(entry.WatchedAt))
	if err != nil {
		return fmt.Errorf("record watch: %w", err)
	}
	return nil
}

// GetWatch fetches one history entry, or ErrNotFound.
func (s *Store) GetWatch(ctx context.Context, profileID, videoID string) (*HistoryEntry, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT profile_id, video_id, title, channel_id, channel_name,
                duration_seconds, progress_seconds, watched_at
         FROM history WHERE profile_id = ? AND video_id = ?`,
		profileID, videoID)
	entry, err := scanHistory(row)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListHistory returns a profile's history, most recent first. A limit
// of zero returns everything.
func (s *Store) ListHistory(ctx context.Context, profileID string, limit int) ([]HistoryEntry, error) {
	query := `SELECT profile_id, video_id, title, channel_id, channel_name,
                     duration_seconds, progress_seconds, watched_at
              FROM history WHERE profile_id = ?
              ORDER BY watched_at DESC, video_id`
	args := []any{profileID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var watched string
		if err := rows.Scan(&entry.ProfileID, &entry.VideoID, &entry.Title, &entry.ChannelID,
			&entry.ChannelName, &entry.DurationSeconds, &entry.ProgressSeconds, &watched); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entry.WatchedAt = parseTimestamp(watched)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// WatchedVideoIDs returns the set of watched video ids for a profile.
func (s *Store) WatchedVideoIDs(ctx context.Context, profileID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT video_id, progress_seconds FROM history WHERE profile_id = ?", profileID)
	if err != nil {
		return nil, fmt.Errorf("list watched ids: %w", err)
	}
	defer rows.Close()

	watched := make(map[string]int)
	for rows.Next() {
		var id string
		var progress int
		if err := rows.Scan(&id, &progress); err != nil {
			return nil, fmt.Errorf("scan watched id: %w", err)
		}
		watched[id] = progress
	}
	return watched, rows.Err()
}

// ResetProgress zeroes the stored position for one video. This is the
// only path by which progress moves backward.
func (s *Store) ResetProgress(ctx context.Context, profileID, videoID string) error {
	res, err := s.execWithRetry(ctx,
		"UPDATE history SET progress_seconds = 0 WHERE profile_id = ? AND video_id = ?",
		profileID, videoID)
	if err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("history entry %s: %w", videoID, ErrNotFound)
	}
	return nil
}

// RemoveWatch deletes a single history entry.
func (s *Store) RemoveWatch(ctx context.Context, profileID, videoID string) error {
	res, err := s.execWithRetry(ctx,
		"DELETE FROM history WHERE profile_id = ? AND video_id = ?", profileID, videoID)
	if err != nil {
		return fmt.Errorf("remove watch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("history entry %s: %w", videoID, ErrNotFound)
	}
	return nil
}

// ClearHistory deletes all history for a profile.
func (s *Store) ClearHistory(ctx context.Context, profileID string) error {
	if _, err := s.execWithRetry(ctx, "DELETE FROM history WHERE profile_id = ?", profileID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// PurgeHistoryBefore removes entries older than cutoff across all
// profiles. The daemon runs this on its retention schedule.
func (s *Store) PurgeHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM history WHERE watched_at < ?", timestamp(cutoff))
	if err != nil {
		return 0, fmt.Errorf("purge history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func scanHistory(row *sql.Row) (*HistoryEntry, error) {
	var entry HistoryEntry
	var watched string
	err := row.Scan(&entry.ProfileID, &entry.VideoID, &entry.Title, &entry.ChannelID,
		&entry.ChannelName, &entry.DurationSeconds, &entry.ProgressSeconds, &watched)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan history: %w", err)
	}
	entry.WatchedAt = parseTimestamp(watched)
	return &entry, nil
}
