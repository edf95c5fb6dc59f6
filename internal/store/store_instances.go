package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tubefeed/internal/health"
)

// SaveInstanceHealth persists the monitor's state so circuit breakers
// and scores survive process restarts. Health state is process-global,
// not per profile.
func (s *Store) SaveInstanceHealth(ctx context.Context, instances []health.Instance) error {
	return s.withTx(ensureContext(ctx), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM instance_health"); err != nil {
			return fmt.Errorf("clear instance health: %w", err)
		}
		for _, inst := range instances {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO instance_health (url, score, consecutive_failures, state, retry_at, last_used, last_checked)
                 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				inst.URL, inst.Score, inst.ConsecutiveFailures, string(inst.State),
				optionalTimestamp(inst.RetryAt), optionalTimestamp(inst.LastUsed), optionalTimestamp(inst.LastChecked))
			if err != nil {
				return fmt.Errorf("save instance %s: %w", inst.URL, err)
			}
		}
		return nil
	})
}

// LoadInstanceHealth returns the persisted monitor state.
func (s *Store) LoadInstanceHealth(ctx context.Context) ([]health.Instance, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT url, score, consecutive_failures, state, retry_at, last_used, last_checked
         FROM instance_health`)
	if err != nil {
		return nil, fmt.Errorf("load instance health: %w", err)
	}
	defer rows.Close()

	var instances []health.Instance
	for rows.Next() {
		var inst health.Instance
		var state, retryAt, lastUsed, lastChecked string
		if err := rows.Scan(&inst.URL, &inst.Score, &inst.ConsecutiveFailures, &state, &retryAt, &lastUsed, &lastChecked); err != nil {
			return nil, fmt.Errorf("scan instance health: %w", err)
		}
		inst.State = health.State(state)
		inst.RetryAt = parseTimestamp(retryAt)
		inst.LastUsed = parseTimestamp(lastUsed)
		inst.LastChecked = parseTimestamp(lastChecked)
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

func optionalTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return timestamp(t)
}
