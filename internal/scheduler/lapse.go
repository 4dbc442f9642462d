// internal/scheduler/lapse.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rallyhq/courtlotto/internal/db"
)

const lapseJobTimeout = time.Minute

// RegisterLapseJob schedules the nightly purge of pending requests whose
// target date has passed. Lapsed requests can never win a draw, so cancelling
// them keeps member views honest without touching allocation.
func RegisterLapseJob(svc *Service, database *db.DB, loc *time.Location, cronExpr string) error {
	if svc == nil || database == nil {
		return fmt.Errorf("lapse job requires scheduler and database")
	}
	if loc == nil {
		loc = time.UTC
	}

	jobName := "lapse_pending_requests"
	jobLogger := log.With().
		Str("component", "lapse_job").
		Str("job_name", jobName).
		Logger()

	_, err := svc.AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), lapseJobTimeout)
		defer cancel()

		today := time.Now().In(loc).Format(db.DateLayout)
		cancelled, err := database.Queries.CancelLapsedRequests(ctx, today)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to cancel lapsed requests")
			return
		}
		if cancelled > 0 {
			jobLogger.Info().Int64("cancelled", cancelled).Msg("Cancelled lapsed pending requests")
		}
	})
	return err
}
