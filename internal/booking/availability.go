// internal/booking/availability.go
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/rallyhq/courtlotto/internal/db"
)

// AvailableCourts returns the active courts with no confirmed reservation for
// the date and slot. The read is uncached, so a cancellation frees its court
// on the very next call.
func (s *Service) AvailableCourts(ctx context.Context, targetDate time.Time, slotKey string) ([]db.Court, error) {
	dateKey := targetDate.In(s.loc).Format(db.DateLayout)
	courts, err := s.db.Queries.ListAvailableCourts(ctx, dateKey, slotKey)
	if err != nil {
		return nil, fmt.Errorf("list available courts for %s %s: %w", dateKey, slotKey, err)
	}
	return courts, nil
}
