package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreatePlaylist adds an empty playlist to a profile.
func (s *Store) CreatePlaylist(ctx context.Context, profileID, name string) (*Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("playlist name is empty")
	}
	playlist := &Playlist{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.execWithRetry(ctx,
		"INSERT INTO playlists (id, profile_id, name, created_at) VALUES (?, ?, ?, ?)",
		playlist.ID, playlist.ProfileID, playlist.Name, timestamp(playlist.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("playlist %q: %w", name, ErrConflict)
		}
		return nil, fmt.Errorf("insert playlist: %w", err)
	}
	return playlist, nil
}

// GetPlaylistByName fetches a profile's playlist by name.
func (s *Store) GetPlaylistByName(ctx context.Context, profileID, name string) (*Playlist, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT p.id, p.profile_id, p.name, p.created_at,
                (SELECT COUNT(1) FROM playlist_videos WHERE playlist_id = p.id)
         FROM playlists p WHERE p.profile_id = ? AND p.name = ?`,
		profileID, strings.TrimSpace(name))
	var p Playlist
	var created string
	if err := row.Scan(&p.ID, &p.ProfileID, &p.Name, &created, &p.Count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan playlist: %w", err)
	}
	p.CreatedAt = parseTimestamp(created)
	return &p, nil
}

// ListPlaylists returns a profile's playlists with entry counts.
func (s *Store) ListPlaylists(ctx context.Context, profileID string) ([]Playlist, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT p.id, p.profile_id, p.name, p.created_at,
                (SELECT COUNT(1) FROM playlist_videos WHERE playlist_id = p.id)
         FROM playlists p WHERE p.profile_id = ?
         ORDER BY p.name COLLATE NOCASE`,
		profileID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var p Playlist
		var created string
		if err := rows.Scan(&p.ID, &p.ProfileID, &p.Name, &created, &p.Count); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		p.CreatedAt = parseTimestamp(created)
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// DeletePlaylist removes a playlist and its entries.
func (s *Store) DeletePlaylist(ctx context.Context, playlistID string) error {
	res, err := s.execWithRetry(ctx, "DELETE FROM playlists WHERE id = ?", playlistID)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("playlist %s: %w", playlistID, ErrNotFound)
	}
	return nil
}

// AddToPlaylist appends a video at the next position. Adding a video
// already present is a conflict.
func (s *Store) AddToPlaylist(ctx context.Context, video PlaylistVideo) error {
	if video.VideoID == "" {
		return errors.New("video id is empty")
	}
	return s.withTx(ensureContext(ctx), func(tx *sql.Tx) error {
		var next int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM playlist_videos WHERE playlist_id = ?",
			video.PlaylistID).Scan(&next); err != nil {
			return fmt.Errorf("count playlist videos: %w", err)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO playlist_videos (playlist_id, video_id, title, channel_name, duration_seconds, position)
             VALUES (?, ?, ?, ?, ?, ?)`,
			video.PlaylistID, video.VideoID, video.Title, video.ChannelName, video.DurationSeconds, next)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("video %s: %w", video.VideoID, ErrConflict)
			}
			return fmt.Errorf("insert playlist video: %w", err)
		}
		return nil
	})
}

// RemoveFromPlaylist deletes one entry and re-packs positions so they
// stay dense.
func (s *Store) RemoveFromPlaylist(ctx context.Context, playlistID, videoID string) error {
	return s.withTx(ensureContext(ctx), func(tx *sql.Tx) error {
		var removed int
		err := tx.QueryRowContext(ctx,
			"SELECT position FROM playlist_videos WHERE playlist_id = ? AND video_id = ?",
			playlistID, videoID).Scan(&removed)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("playlist video %s: %w", videoID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("find playlist video: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM playlist_videos WHERE playlist_id = ? AND video_id = ?",
			playlistID, videoID); err != nil {
			return fmt.Errorf("delete playlist video: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE playlist_videos SET position = position - 1 WHERE playlist_id = ? AND position > ?",
			playlistID, removed); err != nil {
			return fmt.Errorf("repack positions: %w", err)
		}
		return nil
	})
}

// MoveInPlaylist shifts one entry to a new position. Targets past the
// end clamp to the last slot; positions stay dense throughout.
func (s *Store) MoveInPlaylist(ctx context.Context, playlistID, videoID string, target int) error {
	if target < 0 {
		target = 0
	}
	return s.withTx(ensureContext(ctx), func(tx *sql.Tx) error {
		var current, count int
		err := tx.QueryRowContext(ctx,
			"SELECT position FROM playlist_videos WHERE playlist_id = ? AND video_id = ?",
			playlistID, videoID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("playlist video %s: %w", videoID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("find playlist video: %w", err)
		}
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM playlist_videos WHERE playlist_id = ?",
			playlistID).Scan(&count); err != nil {
			return fmt.Errorf("count playlist videos: %w", err)
		}
		if target >= count {
			target = count - 1
		}
		if target == current {
			return nil
		}
		if target > current {
			_, err = tx.ExecContext(ctx,
				"UPDATE playlist_videos SET position = position - 1 WHERE playlist_id = ? AND position > ? AND position <= ?",
				playlistID, current, target)
		} else {
			_, err = tx.ExecContext(ctx,
				"UPDATE playlist_videos SET position = position + 1 WHERE playlist_id = ? AND position >= ? AND position < ?",
				playlistID, target, current)
		}
		if err != nil {
			return fmt.Errorf("shift positions: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE playlist_videos SET position = ? WHERE playlist_id = ? AND video_id = ?",
			target, playlistID, videoID); err != nil {
			return fmt.Errorf("move playlist video: %w", err)
		}
		return nil
	})
}

// ListPlaylistVideos returns a playlist's entries in position order.
func (s *Store) ListPlaylistVideos(ctx context.Context, playlistID string) ([]PlaylistVideo, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT playlist_id, video_id, title, channel_name, duration_seconds, position
         FROM playlist_videos WHERE playlist_id = ? ORDER BY position`,
		playlistID)
	if err != nil {
		return nil, fmt.Errorf("list playlist videos: %w", err)
	}
	defer rows.Close()

	var videos []PlaylistVideo
	for rows.Next() {
		var v PlaylistVideo
		if err := rows.Scan(&v.PlaylistID, &v.VideoID, &v.Title, &v.ChannelName, &v.DurationSeconds, &v.Position); err != nil {
			return nil, fmt.Errorf("scan playlist video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}
