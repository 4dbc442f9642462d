// internal/db/courts.go
package db

import (
	"context"
	"database/sql"
	"fmt"
)

type CreateCourtParams struct {
	Name   string
	Active bool
}

func (q *Queries) CreateCourt(ctx context.Context, arg CreateCourtParams) (Court, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO courts (name, active)
		VALUES (?, ?)
		RETURNING id, name, active, created_at`,
		arg.Name, arg.Active,
	)
	return scanCourt(row)
}

func (q *Queries) GetCourt(ctx context.Context, id int64) (Court, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, name, active, created_at
		FROM courts
		WHERE id = ?`, id,
	)
	return scanCourt(row)
}

func (q *Queries) SetCourtActive(ctx context.Context, id int64, active bool) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE courts SET active = ? WHERE id = ?`, active, id,
	)
	return err
}

func (q *Queries) ListActiveCourts(ctx context.Context) ([]Court, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, name, active, created_at
		FROM courts
		WHERE active = TRUE
		ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCourts(rows)
}

// ListAvailableCourts returns the active courts that do not hold a confirmed
// reservation for the given date and slot, in ascending id order.
func (q *Queries) ListAvailableCourts(ctx context.Context, targetDate, slotKey string) ([]Court, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.active, c.created_at
		FROM courts c
		WHERE c.active = TRUE
		  AND c.id NOT IN (
			SELECT court_id FROM reservations
			WHERE target_date = ? AND slot_key = ? AND status = 'confirmed'
		  )
		ORDER BY c.id`,
		targetDate, slotKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCourts(rows)
}

func scanCourt(row rowScanner) (Court, error) {
	var c Court
	err := row.Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt)
	return c, err
}

func collectCourts(rows *sql.Rows) ([]Court, error) {
	var courts []Court
	for rows.Next() {
		court, err := scanCourt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan court: %w", err)
		}
		courts = append(courts, court)
	}
	return courts, rows.Err()
}
