// internal/booking/intake.go
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rallyhq/courtlotto/internal/db"
)

// Service carries the intake and lifecycle operations for booking requests
// and reservations.
type Service struct {
	db    *db.DB
	clock Clock
	loc   *time.Location
}

type Option func(*Service)

// WithClock overrides the system clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation sets the timezone that anchors the booking-window day
// boundary.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewService(database *db.DB, opts ...Option) (*Service, error) {
	if database == nil {
		return nil, errors.New("booking service requires a database")
	}
	s := &Service{
		db:    database,
		clock: realClock{},
		loc:   time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Location returns the timezone the service classifies dates in.
func (s *Service) Location() *time.Location { return s.loc }

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.clock.Now() }

// NewRequestParams describes a pooled lottery request.
type NewRequestParams struct {
	MemberID     int64
	TargetDate   time.Time
	SlotKey      string
	PlayerCount  int64
	Participants []int64
}

// SubmitRequest validates and stores a pooled request for a future lottery
// run. The request enters the pool with status pending and no weight; the
// allocator computes and persists the weight at draw time.
func (s *Service) SubmitRequest(ctx context.Context, arg NewRequestParams) (db.BookingRequest, error) {
	dateKey := arg.TargetDate.In(s.loc).Format(db.DateLayout)

	if w := ClassifyDate(arg.TargetDate, s.clock.Now(), s.loc); w != WindowRequest {
		return db.BookingRequest{}, WindowError{Date: dateKey, Window: w}
	}
	participants, err := validatePlayers(arg.PlayerCount, arg.Participants)
	if err != nil {
		return db.BookingRequest{}, err
	}
	encoded, err := db.EncodeParticipants(participants)
	if err != nil {
		return db.BookingRequest{}, err
	}
	if _, err := s.db.Queries.GetMember(ctx, arg.MemberID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.BookingRequest{}, ErrMemberNotFound
		}
		return db.BookingRequest{}, fmt.Errorf("load member %d: %w", arg.MemberID, err)
	}

	request, err := s.db.Queries.CreateBookingRequest(ctx, db.CreateBookingRequestParams{
		MemberID:     arg.MemberID,
		TargetDate:   dateKey,
		SlotKey:      arg.SlotKey,
		PlayerCount:  arg.PlayerCount,
		Participants: encoded,
	})
	if err != nil {
		return db.BookingRequest{}, fmt.Errorf("create booking request: %w", err)
	}

	log.Ctx(ctx).Info().
		Int64("request_id", request.ID).
		Int64("member_id", request.MemberID).
		Str("target_date", request.TargetDate).
		Str("slot_key", request.SlotKey).
		Msg("Pooled request submitted")
	return request, nil
}

// NewBookingParams describes a near-term direct booking.
type NewBookingParams struct {
	MemberID     int64
	CourtID      int64
	TargetDate   time.Time
	SlotKey      string
	PlayerCount  int64
	Participants []int64
}

// SubmitDirectBooking validates and stores a first-come reservation for a
// date inside the direct window. The conflict check and insert run in one
// transaction; a race lost to a concurrent writer surfaces as ConflictError
// via the unique index on confirmed reservations.
func (s *Service) SubmitDirectBooking(ctx context.Context, arg NewBookingParams) (db.Reservation, error) {
	dateKey := arg.TargetDate.In(s.loc).Format(db.DateLayout)

	if w := ClassifyDate(arg.TargetDate, s.clock.Now(), s.loc); w != WindowDirect {
		return db.Reservation{}, WindowError{Date: dateKey, Window: w}
	}
	participants, err := validatePlayers(arg.PlayerCount, arg.Participants)
	if err != nil {
		return db.Reservation{}, err
	}
	encoded, err := db.EncodeParticipants(participants)
	if err != nil {
		return db.Reservation{}, err
	}

	if _, err := s.db.Queries.GetMember(ctx, arg.MemberID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Reservation{}, ErrMemberNotFound
		}
		return db.Reservation{}, fmt.Errorf("load member %d: %w", arg.MemberID, err)
	}
	court, err := s.db.Queries.GetCourt(ctx, arg.CourtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Reservation{}, ErrCourtNotFound
		}
		return db.Reservation{}, fmt.Errorf("load court %d: %w", arg.CourtID, err)
	}
	if !court.Active {
		return db.Reservation{}, ErrCourtInactive
	}

	var reservation db.Reservation
	err = s.db.RunInTx(ctx, func(txdb *db.DB) error {
		occupied, err := txdb.Queries.HasConfirmedReservation(ctx, arg.CourtID, dateKey, arg.SlotKey)
		if err != nil {
			return fmt.Errorf("conflict check: %w", err)
		}
		if occupied {
			return ConflictError{CourtID: arg.CourtID, Date: dateKey, SlotKey: arg.SlotKey}
		}

		reservation, err = txdb.Queries.CreateReservation(ctx, db.CreateReservationParams{
			MemberID:     arg.MemberID,
			CourtID:      arg.CourtID,
			TargetDate:   dateKey,
			SlotKey:      arg.SlotKey,
			PlayerCount:  arg.PlayerCount,
			Participants: encoded,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return ConflictError{CourtID: arg.CourtID, Date: dateKey, SlotKey: arg.SlotKey}
			}
			return fmt.Errorf("create reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return db.Reservation{}, err
	}

	log.Ctx(ctx).Info().
		Int64("reservation_id", reservation.ID).
		Int64("member_id", reservation.MemberID).
		Int64("court_id", reservation.CourtID).
		Str("target_date", reservation.TargetDate).
		Str("slot_key", reservation.SlotKey).
		Msg("Direct booking confirmed")
	return reservation, nil
}

// CancelRequest withdraws a pending request, removing it from future lottery
// pools. Only pending requests may be withdrawn.
func (s *Service) CancelRequest(ctx context.Context, id int64) error {
	return s.db.RunInTx(ctx, func(txdb *db.DB) error {
		request, err := txdb.Queries.GetBookingRequest(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("load request %d: %w", id, err)
		}
		if request.Status != db.RequestStatusPending {
			return RequestStateError{ID: id, Status: request.Status, Op: "cancel"}
		}
		if _, err := txdb.Queries.CancelBookingRequest(ctx, id); err != nil {
			return fmt.Errorf("cancel request %d: %w", id, err)
		}
		log.Ctx(ctx).Info().Int64("request_id", id).Msg("Pooled request withdrawn")
		return nil
	})
}

// validatePlayers deduplicates the participant list (preserving order) and
// checks it against the player count.
func validatePlayers(playerCount int64, participants []int64) ([]int64, error) {
	seen := make(map[int64]struct{}, len(participants))
	deduped := make([]int64, 0, len(participants))
	for _, id := range participants {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		deduped = append(deduped, id)
	}
	if playerCount < 2 || playerCount > 4 || int64(len(deduped)) != playerCount {
		return nil, PlayerCountError{PlayerCount: playerCount, Participants: len(deduped)}
	}
	return deduped, nil
}
