// internal/db/reservations.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const reservationColumns = `id, member_id, court_id, target_date, slot_key, player_count, participants, source_request_id, status, created_at, completed_at, cancelled_at`

type CreateReservationParams struct {
	MemberID        int64
	CourtID         int64
	TargetDate      string
	SlotKey         string
	PlayerCount     int64
	Participants    string
	SourceRequestID sql.NullInt64
}

func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO reservations (member_id, court_id, target_date, slot_key, player_count, participants, source_request_id, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'confirmed')
		RETURNING `+reservationColumns,
		arg.MemberID, arg.CourtID, arg.TargetDate, arg.SlotKey,
		arg.PlayerCount, arg.Participants, arg.SourceRequestID,
	)
	return scanReservation(row)
}

func (q *Queries) GetReservation(ctx context.Context, id int64) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE id = ?`, id,
	)
	return scanReservation(row)
}

func (q *Queries) ListMemberReservations(ctx context.Context, memberID int64) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE member_id = ?
		ORDER BY target_date, slot_key, id`,
		memberID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

// HasConfirmedReservation reports whether a court already holds a live
// reservation for the date and slot.
func (q *Queries) HasConfirmedReservation(ctx context.Context, courtID int64, targetDate, slotKey string) (bool, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE court_id = ? AND target_date = ? AND slot_key = ? AND status = 'confirmed'`,
		courtID, targetDate, slotKey,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CompleteReservation transitions a confirmed reservation to completed.
// Returns sql.ErrNoRows if the reservation is missing or not confirmed.
func (q *Queries) CompleteReservation(ctx context.Context, id int64, completedAt time.Time) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE reservations
		SET status = 'completed', completed_at = ?
		WHERE id = ? AND status = 'confirmed'
		RETURNING `+reservationColumns,
		completedAt, id,
	)
	return scanReservation(row)
}

// CancelReservation transitions a confirmed reservation to cancelled, which
// frees its court for the same date and slot on the next availability read.
// Returns sql.ErrNoRows if the reservation is missing or not confirmed.
func (q *Queries) CancelReservation(ctx context.Context, id int64, cancelledAt time.Time) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE reservations
		SET status = 'cancelled', cancelled_at = ?
		WHERE id = ? AND status = 'confirmed'
		RETURNING `+reservationColumns,
		cancelledAt, id,
	)
	return scanReservation(row)
}

func scanReservation(row rowScanner) (Reservation, error) {
	var r Reservation
	err := row.Scan(
		&r.ID, &r.MemberID, &r.CourtID, &r.TargetDate, &r.SlotKey,
		&r.PlayerCount, &r.Participants, &r.SourceRequestID, &r.Status,
		&r.CreatedAt, &r.CompletedAt, &r.CancelledAt,
	)
	return r, err
}

func collectReservations(rows *sql.Rows) ([]Reservation, error) {
	var reservations []Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, reservation)
	}
	return reservations, rows.Err()
}
