// internal/booking/ledger.go
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rallyhq/courtlotto/internal/db"
)

// Ledger exposes the usage counters that feed lottery weighting. Increments
// happen only inside CompleteReservation's transaction; the ledger itself
// only reads and resets.
type Ledger struct {
	db    *db.DB
	clock Clock
}

func NewLedger(database *db.DB, opts ...LedgerOption) (*Ledger, error) {
	if database == nil {
		return nil, errors.New("usage ledger requires a database")
	}
	l := &Ledger{db: database, clock: realClock{}}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

type LedgerOption func(*Ledger)

func WithLedgerClock(clock Clock) LedgerOption {
	return func(l *Ledger) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// Get returns a member's completed-reservation count since the last reset.
// Unknown members count as zero.
func (l *Ledger) Get(ctx context.Context, memberID int64) (int64, error) {
	count, err := l.db.Queries.GetUsageCount(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("get usage count for member %d: %w", memberID, err)
	}
	return count, nil
}

// ResetAll zeroes every counter and stamps the reset, called by the periodic
// trigger on a monthly boundary.
func (l *Ledger) ResetAll(ctx context.Context) error {
	now := l.clock.Now()
	err := l.db.RunInTx(ctx, func(txdb *db.DB) error {
		return txdb.Queries.ResetAllUsage(ctx, now)
	})
	if err != nil {
		return fmt.Errorf("reset usage counters: %w", err)
	}
	log.Ctx(ctx).Info().Time("reset_at", now).Msg("Usage counters reset")
	return nil
}

// LastReset returns when the counters were last zeroed, or the zero time if
// never.
func (l *Ledger) LastReset(ctx context.Context) (time.Time, error) {
	return l.db.Queries.LastUsageReset(ctx)
}
