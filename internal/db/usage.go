// internal/db/usage.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetUsageCount returns a member's completed-reservation count since the last
// reset. Unknown members count as zero.
func (q *Queries) GetUsageCount(ctx context.Context, memberID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT completed_count FROM usage_counters WHERE member_id = ?`,
		memberID,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// IncrementUsage atomically creates-or-adds-one to a member's counter.
func (q *Queries) IncrementUsage(ctx context.Context, memberID int64, now time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO usage_counters (member_id, completed_count, updated_at)
		VALUES (?, 1, ?)
		ON CONFLICT (member_id)
		DO UPDATE SET completed_count = completed_count + 1, updated_at = excluded.updated_at`,
		memberID, now,
	)
	return err
}

// ResetAllUsage zeroes every counter and stamps a reset row.
func (q *Queries) ResetAllUsage(ctx context.Context, now time.Time) error {
	if _, err := q.db.ExecContext(ctx, `
		UPDATE usage_counters SET completed_count = 0, updated_at = ?`, now,
	); err != nil {
		return err
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO usage_resets (reset_at) VALUES (?)`, now,
	)
	return err
}

// LastUsageReset returns the most recent reset timestamp, or the zero time if
// no reset has run yet.
func (q *Queries) LastUsageReset(ctx context.Context) (time.Time, error) {
	var resetAt time.Time
	err := q.db.QueryRowContext(ctx, `
		SELECT reset_at FROM usage_resets ORDER BY id DESC LIMIT 1`,
	).Scan(&resetAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return resetAt, nil
}
