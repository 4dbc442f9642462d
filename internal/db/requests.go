// internal/db/requests.go
package db

import (
	"context"
	"database/sql"
	"fmt"
)

const bookingRequestColumns = `id, member_id, target_date, slot_key, player_count, participants, weight, status, created_at`

type CreateBookingRequestParams struct {
	MemberID     int64
	TargetDate   string
	SlotKey      string
	PlayerCount  int64
	Participants string
}

func (q *Queries) CreateBookingRequest(ctx context.Context, arg CreateBookingRequestParams) (BookingRequest, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO booking_requests (member_id, target_date, slot_key, player_count, participants, status)
		VALUES (?, ?, ?, ?, ?, 'pending')
		RETURNING `+bookingRequestColumns,
		arg.MemberID, arg.TargetDate, arg.SlotKey, arg.PlayerCount, arg.Participants,
	)
	return scanBookingRequest(row)
}

func (q *Queries) GetBookingRequest(ctx context.Context, id int64) (BookingRequest, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+bookingRequestColumns+`
		FROM booking_requests
		WHERE id = ?`, id,
	)
	return scanBookingRequest(row)
}

// ListPendingRequests returns the lottery pool for one date and slot in
// insertion order.
func (q *Queries) ListPendingRequests(ctx context.Context, targetDate, slotKey string) ([]BookingRequest, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+bookingRequestColumns+`
		FROM booking_requests
		WHERE target_date = ? AND slot_key = ? AND status = 'pending'
		ORDER BY created_at, id`,
		targetDate, slotKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookingRequests(rows)
}

func (q *Queries) ListMemberRequests(ctx context.Context, memberID int64) ([]BookingRequest, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+bookingRequestColumns+`
		FROM booking_requests
		WHERE member_id = ?
		ORDER BY target_date, slot_key, id`,
		memberID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookingRequests(rows)
}

// SetRequestWeight records the weight computed at allocation time so draws
// stay auditable even for requests that are never selected.
func (q *Queries) SetRequestWeight(ctx context.Context, id int64, weight float64) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE booking_requests SET weight = ? WHERE id = ?`, weight, id,
	)
	return err
}

// ResolveBookingRequest transitions a pending request to resolved. Returns
// sql.ErrNoRows if the request is missing or no longer pending.
func (q *Queries) ResolveBookingRequest(ctx context.Context, id int64) (BookingRequest, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE booking_requests
		SET status = 'resolved'
		WHERE id = ? AND status = 'pending'
		RETURNING `+bookingRequestColumns, id,
	)
	return scanBookingRequest(row)
}

// CancelBookingRequest withdraws a pending request. Returns sql.ErrNoRows if
// the request is missing or no longer pending.
func (q *Queries) CancelBookingRequest(ctx context.Context, id int64) (BookingRequest, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE booking_requests
		SET status = 'cancelled'
		WHERE id = ? AND status = 'pending'
		RETURNING `+bookingRequestColumns, id,
	)
	return scanBookingRequest(row)
}

// CancelLapsedRequests cancels pending requests whose target date precedes
// the given date. Returns the number of requests cancelled.
func (q *Queries) CancelLapsedRequests(ctx context.Context, before string) (int64, error) {
	result, err := q.db.ExecContext(ctx, `
		UPDATE booking_requests
		SET status = 'cancelled'
		WHERE status = 'pending' AND target_date < ?`,
		before,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanBookingRequest(row rowScanner) (BookingRequest, error) {
	var r BookingRequest
	err := row.Scan(
		&r.ID, &r.MemberID, &r.TargetDate, &r.SlotKey, &r.PlayerCount,
		&r.Participants, &r.Weight, &r.Status, &r.CreatedAt,
	)
	return r, err
}

func collectBookingRequests(rows *sql.Rows) ([]BookingRequest, error) {
	var requests []BookingRequest
	for rows.Next() {
		request, err := scanBookingRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking request: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}
