// internal/booking/lifecycle.go
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rallyhq/courtlotto/internal/db"
)

// CompleteReservation transitions a confirmed reservation to completed and
// increments the owner's usage counter, both in one transaction so the
// increment happens exactly once.
func (s *Service) CompleteReservation(ctx context.Context, id int64) (db.Reservation, error) {
	var completed db.Reservation
	err := s.db.RunInTx(ctx, func(txdb *db.DB) error {
		reservation, err := txdb.Queries.GetReservation(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("load reservation %d: %w", id, err)
		}
		if reservation.Status != db.ReservationStatusConfirmed {
			return StateError{ID: id, Status: reservation.Status, Op: "complete"}
		}

		now := s.clock.Now()
		completed, err = txdb.Queries.CompleteReservation(ctx, id, now)
		if err != nil {
			return fmt.Errorf("complete reservation %d: %w", id, err)
		}
		if err := txdb.Queries.IncrementUsage(ctx, reservation.MemberID, now); err != nil {
			return fmt.Errorf("increment usage for member %d: %w", reservation.MemberID, err)
		}
		return nil
	})
	if err != nil {
		return db.Reservation{}, err
	}

	log.Ctx(ctx).Info().
		Int64("reservation_id", completed.ID).
		Int64("member_id", completed.MemberID).
		Msg("Reservation completed")
	return completed, nil
}

// CancelReservation transitions a confirmed reservation to cancelled,
// immediately freeing the court for its date and slot. Completed reservations
// cannot be cancelled and the usage ledger is never touched here.
func (s *Service) CancelReservation(ctx context.Context, id int64) (db.Reservation, error) {
	var cancelled db.Reservation
	err := s.db.RunInTx(ctx, func(txdb *db.DB) error {
		reservation, err := txdb.Queries.GetReservation(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("load reservation %d: %w", id, err)
		}
		switch reservation.Status {
		case db.ReservationStatusConfirmed:
			// fall through to the transition
		case db.ReservationStatusCompleted:
			return ErrCannotCancelCompleted
		default:
			return StateError{ID: id, Status: reservation.Status, Op: "cancel"}
		}

		cancelled, err = txdb.Queries.CancelReservation(ctx, id, s.clock.Now())
		if err != nil {
			return fmt.Errorf("cancel reservation %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return db.Reservation{}, err
	}

	log.Ctx(ctx).Info().
		Int64("reservation_id", cancelled.ID).
		Int64("court_id", cancelled.CourtID).
		Str("target_date", cancelled.TargetDate).
		Str("slot_key", cancelled.SlotKey).
		Msg("Reservation cancelled")
	return cancelled, nil
}
