// internal/lottery/allocator.go
package lottery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rallyhq/courtlotto/internal/booking"
	"github.com/rallyhq/courtlotto/internal/db"
)

// Allocator resolves the pending-request pool for one (date, slot) pair into
// court assignments via weighted random selection without replacement.
type Allocator struct {
	db    *db.DB
	clock booking.Clock
	loc   *time.Location

	// rng is guarded because the scheduler and the manual-run handler may
	// draw concurrently.
	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Allocator)

// WithRandSource overrides the randomness source, mainly for deterministic
// tests.
func WithRandSource(src rand.Source) Option {
	return func(a *Allocator) {
		if src != nil {
			a.rng = rand.New(src)
		}
	}
}

func WithClock(clock booking.Clock) Option {
	return func(a *Allocator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(a *Allocator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

func New(database *db.DB, opts ...Option) (*Allocator, error) {
	if database == nil {
		return nil, errors.New("lottery allocator requires a database")
	}
	a := &Allocator{
		db:    database,
		clock: booking.SystemClock(),
		loc:   time.UTC,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Assignment records one winning request and the reservation created for it.
type Assignment struct {
	RequestID     int64
	MemberID      int64
	CourtID       int64
	ReservationID int64
}

// Result is the outcome of one lottery run. Unassigned requests are a regular
// consequence of court scarcity, not an error; they stay pending.
type Result struct {
	Date        string
	SlotKey     string
	Assignments []Assignment
	Unassigned  []int64
}

type candidate struct {
	request db.BookingRequest
	weight  float64
}

// Run draws the lottery for one date and slot inside a single transaction.
// Only requests still pending participate, so re-running after a partial
// failure never double-assigns an already resolved request.
func (a *Allocator) Run(ctx context.Context, targetDate time.Time, slotKey string) (Result, error) {
	dateKey := targetDate.In(a.loc).Format(db.DateLayout)
	result := Result{Date: dateKey, SlotKey: slotKey}

	logger := log.Ctx(ctx).With().
		Str("component", "lottery_allocator").
		Str("target_date", dateKey).
		Str("slot_key", slotKey).
		Logger()

	err := a.db.RunInTx(ctx, func(txdb *db.DB) error {
		requests, err := txdb.Queries.ListPendingRequests(ctx, dateKey, slotKey)
		if err != nil {
			return fmt.Errorf("list pending requests: %w", err)
		}
		if len(requests) == 0 {
			logger.Debug().Msg("No pending requests for slot")
			return nil
		}

		pool, err := a.weighPool(ctx, txdb.Queries, requests)
		if err != nil {
			return err
		}

		courts, err := txdb.Queries.ListAvailableCourts(ctx, dateKey, slotKey)
		if err != nil {
			return fmt.Errorf("list available courts: %w", err)
		}

		for len(pool) > 0 && len(courts) > 0 {
			idx := a.draw(pool)
			winner := pool[idx]
			pool = append(pool[:idx], pool[idx+1:]...)

			court := courts[0]
			courts = courts[1:]

			reservation, err := txdb.Queries.CreateReservation(ctx, db.CreateReservationParams{
				MemberID:        winner.request.MemberID,
				CourtID:         court.ID,
				TargetDate:      winner.request.TargetDate,
				SlotKey:         winner.request.SlotKey,
				PlayerCount:     winner.request.PlayerCount,
				Participants:    winner.request.Participants,
				SourceRequestID: sql.NullInt64{Int64: winner.request.ID, Valid: true},
			})
			if err != nil {
				return fmt.Errorf("create reservation for request %d: %w", winner.request.ID, err)
			}
			if _, err := txdb.Queries.ResolveBookingRequest(ctx, winner.request.ID); err != nil {
				return fmt.Errorf("resolve request %d: %w", winner.request.ID, err)
			}

			result.Assignments = append(result.Assignments, Assignment{
				RequestID:     winner.request.ID,
				MemberID:      winner.request.MemberID,
				CourtID:       court.ID,
				ReservationID: reservation.ID,
			})
		}

		for _, c := range pool {
			result.Unassigned = append(result.Unassigned, c.request.ID)
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Lottery run failed")
		return Result{}, err
	}

	logger.Info().
		Int("assignments", len(result.Assignments)).
		Int("unassigned", len(result.Unassigned)).
		Msg("Lottery run complete")
	return result, nil
}

// weighPool computes each requester's current weight from tier and usage and
// persists it on the request row so draws stay auditable after the fact.
func (a *Allocator) weighPool(ctx context.Context, queries *db.Queries, requests []db.BookingRequest) ([]candidate, error) {
	pool := make([]candidate, 0, len(requests))
	for _, request := range requests {
		member, err := queries.GetMember(ctx, request.MemberID)
		if err != nil {
			return nil, fmt.Errorf("load member %d: %w", request.MemberID, err)
		}
		usage, err := queries.GetUsageCount(ctx, request.MemberID)
		if err != nil {
			return nil, fmt.Errorf("load usage for member %d: %w", request.MemberID, err)
		}

		weight := booking.Weight(booking.Tier(member.MembershipTier), usage)
		if err := queries.SetRequestWeight(ctx, request.ID, weight); err != nil {
			return nil, fmt.Errorf("persist weight for request %d: %w", request.ID, err)
		}
		pool = append(pool, candidate{request: request, weight: weight})
	}
	return pool, nil
}

// draw picks one index by weight-proportional selection: r ~ U(0, total),
// walked through the pool in insertion order. A zero total falls back to a
// uniform pick.
func (a *Allocator) draw(pool []candidate) int {
	var total float64
	for _, c := range pool {
		if c.weight > 0 {
			total += c.weight
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if total <= 0 {
		return a.rng.Intn(len(pool))
	}

	r := a.rng.Float64() * total
	last := 0
	for i, c := range pool {
		if c.weight <= 0 {
			continue
		}
		last = i
		r -= c.weight
		if r <= 0 {
			return i
		}
	}
	// Floating point drift can leave r marginally above zero after the walk.
	return last
}
