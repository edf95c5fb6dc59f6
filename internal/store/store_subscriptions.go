package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Subscribe adds a channel to a profile. Subscribing to an already
// subscribed channel is a no-op; the return reports whether a new row
// was inserted.
func (s *Store) Subscribe(ctx context.Context, profileID, channelID, channelName string) (bool, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return false, fmt.Errorf("channel id is empty")
	}
	res, err := s.execWithRetry(ctx,
		`INSERT OR IGNORE INTO subscriptions (profile_id, channel_id, channel_name, subscribed_at)
         VALUES (?, ?, ?, ?)`,
		profileID, channelID, channelName, timestamp(time.Now()))
	if err != nil {
		return false, fmt.Errorf("insert subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Unsubscribe removes a channel from a profile.
func (s *Store) Unsubscribe(ctx context.Context, profileID, channelID string) error {
	res, err := s.execWithRetry(ctx,
		"DELETE FROM subscriptions WHERE profile_id = ? AND channel_id = ?",
		profileID, channelID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("subscription %s: %w", channelID, ErrNotFound)
	}
	return nil
}

// IsSubscribed reports whether the profile follows the channel.
func (s *Store) IsSubscribed(ctx context.Context, profileID, channelID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT COUNT(1) FROM subscriptions WHERE profile_id = ? AND channel_id = ?",
		profileID, channelID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}
	return count > 0, nil
}

// ListSubscriptions returns a profile's subscriptions sorted by channel
// name.
func (s *Store) ListSubscriptions(ctx context.Context, profileID string) ([]Subscription, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT profile_id, channel_id, channel_name, subscribed_at
         FROM subscriptions WHERE profile_id = ?
         ORDER BY channel_name COLLATE NOCASE, channel_id`,
		profileID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// SearchSubscriptions fuzzy-matches a profile's subscriptions by
// channel name, best matches first.
func (s *Store) SearchSubscriptions(ctx context.Context, profileID, query string) ([]Subscription, error) {
	subs, err := s.ListSubscriptions(ctx, profileID)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return subs, nil
	}

	type match struct {
		sub  Subscription
		rank int
	}
	var matches []match
	for _, sub := range subs {
		rank := fuzzy.RankMatchNormalizedFold(query, sub.ChannelName)
		if rank < 0 {
			continue
		}
		matches = append(matches, match{sub: sub, rank: rank})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].rank < matches[j].rank })

	out := make([]Subscription, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.sub)
	}
	return out, nil
}

// ImportSubscriptions inserts records in one transaction, skipping
// channels the profile already follows. Records with an empty channel
// id count as rejected. A failed transaction leaves the profile's
// subscriptions untouched.
func (s *Store) ImportSubscriptions(ctx context.Context, profileID string, records []Subscription) (ImportResult, error) {
	var result ImportResult
	err := s.withTx(ensureContext(ctx), func(tx *sql.Tx) error {
		now := timestamp(time.Now())
		for _, record := range records {
			channelID := strings.TrimSpace(record.ChannelID)
			if channelID == "" {
				result.Rejected++
				continue
			}
			res, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO subscriptions (profile_id, channel_id, channel_name, subscribed_at)
                 VALUES (?, ?, ?, ?)`,
				profileID, channelID, record.ChannelName, now)
			if err != nil {
				return fmt.Errorf("import channel %s: %w", channelID, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				result.Inserted++
			} else {
				result.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return result, nil
}

func scanSubscriptions(rows *sql.Rows) ([]Subscription, error) {
	var subs []Subscription
	for rows.Next() {
		var sub Subscription
		var subscribed string
		if err := rows.Scan(&sub.ProfileID, &sub.ChannelID, &sub.ChannelName, &subscribed); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		sub.SubscribedAt = parseTimestamp(subscribed)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
