// internal/scheduler/usage.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rallyhq/courtlotto/internal/booking"
)

const usageResetTimeout = time.Minute

// RegisterUsageResetJob schedules the periodic fairness reset, typically on
// a monthly boundary.
func RegisterUsageResetJob(svc *Service, ledger *booking.Ledger, cronExpr string) error {
	if svc == nil || ledger == nil {
		return fmt.Errorf("usage reset job requires scheduler and ledger")
	}

	jobName := "usage_reset"
	jobLogger := log.With().
		Str("component", "usage_reset_job").
		Str("job_name", jobName).
		Logger()

	_, err := svc.AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), usageResetTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		if err := ledger.ResetAll(ctx); err != nil {
			jobLogger.Error().Err(err).Msg("Failed to reset usage counters")
		}
	})
	return err
}
