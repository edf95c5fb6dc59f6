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

// EnsureDefaultProfile creates the default profile when no profiles
// exist and returns the first profile by creation order.
func (s *Store) EnsureDefaultProfile(ctx context.Context) (*Profile, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM profiles").Scan(&count); err != nil {
		return nil, fmt.Errorf("count profiles: %w", err)
	}
	if count == 0 {
		return s.CreateProfile(ctx, DefaultProfileName)
	}
	row := s.db.QueryRowContext(ctx, "SELECT id, name, created_at FROM profiles ORDER BY created_at, id LIMIT 1")
	return scanProfile(row)
}

// CreateProfile adds a new profile with a generated identifier.
func (s *Store) CreateProfile(ctx context.Context, name string) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("profile name is empty")
	}
	profile := &Profile{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.execWithRetry(ctx,
		"INSERT INTO profiles (id, name, created_at) VALUES (?, ?, ?)",
		profile.ID, profile.Name, timestamp(profile.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("profile %q: %w", name, ErrConflict)
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return profile, nil
}

// GetProfile fetches a profile by id.
func (s *Store) GetProfile(ctx context.Context, id string) (*Profile, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT id, name, created_at FROM profiles WHERE id = ?", id)
	return scanProfile(row)
}

// GetProfileByName fetches a profile by its unique name.
func (s *Store) GetProfileByName(ctx context.Context, name string) (*Profile, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT id, name, created_at FROM profiles WHERE name = ?", strings.TrimSpace(name))
	return scanProfile(row)
}

// ListProfiles returns all profiles by creation order.
func (s *Store) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT id, name, created_at FROM profiles ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		var created string
		if err := rows.Scan(&p.ID, &p.Name, &created); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.CreatedAt = parseTimestamp(created)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// RenameProfile changes a profile's display name.
func (s *Store) RenameProfile(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("profile name is empty")
	}
	res, err := s.execWithRetry(ctx, "UPDATE profiles SET name = ? WHERE id = ?", name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("profile %q: %w", name, ErrConflict)
		}
		return fmt.Errorf("rename profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteProfile removes a profile and, through cascading deletes, its
// subscriptions, history, and playlists. The last profile cannot be
// deleted.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM profiles").Scan(&count); err != nil {
			return fmt.Errorf("count profiles: %w", err)
		}
		if count <= 1 {
			return ErrProfileInUse
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("profile %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

func scanProfile(row *sql.Row) (*Profile, error) {
	var p Profile
	var created string
	if err := row.Scan(&p.ID, &p.Name, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.CreatedAt = parseTimestamp(created)
	return &p, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed")
}
