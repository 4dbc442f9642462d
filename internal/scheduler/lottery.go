// internal/scheduler/lottery.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rallyhq/courtlotto/internal/db"
	"github.com/rallyhq/courtlotto/internal/email"
	"github.com/rallyhq/courtlotto/internal/lottery"
)

const (
	lotteryJobTimeout = 2 * time.Minute
	emailSendTimeout  = 30 * time.Second

	// The request window spans 2-5 days out; when a date is 2 days away its
	// window is closing, so that is the date each daily run resolves.
	resolutionLeadDays = 2
)

// RegisterLotteryJob schedules the daily allocation run. Each run resolves
// the date whose request window is closing, drawing once per slot template
// defined for that weekday, and notifies winners by email.
func RegisterLotteryJob(svc *Service, database *db.DB, alloc *lottery.Allocator, sender email.Sender, loc *time.Location, cronExpr string) error {
	if svc == nil || database == nil || alloc == nil {
		return fmt.Errorf("lottery job requires scheduler, database and allocator")
	}
	if loc == nil {
		loc = time.UTC
	}

	jobName := "lottery_allocation"
	jobLogger := log.With().
		Str("component", "lottery_job").
		Str("job_name", jobName).
		Logger()

	_, err := svc.AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), lotteryJobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		resolutionDate := time.Now().In(loc).AddDate(0, 0, resolutionLeadDays)
		dayOfWeek := int64(resolutionDate.Weekday())

		templates, err := database.Queries.ListSlotTemplatesForDay(ctx, dayOfWeek)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to load slot templates for lottery run")
			return
		}
		if len(templates) == 0 {
			jobLogger.Debug().Int64("day_of_week", dayOfWeek).Msg("No slots scheduled for resolution day")
			return
		}

		for _, template := range templates {
			result, err := alloc.Run(ctx, resolutionDate, template.SlotKey)
			if err != nil {
				jobLogger.Error().Err(err).
					Str("slot_key", template.SlotKey).
					Msg("Lottery run failed for slot")
				continue
			}
			if sender != nil && len(result.Assignments) > 0 {
				go func(result lottery.Result) {
					sendCtx, sendCancel := email.NewSendContext(ctx, emailSendTimeout)
					defer sendCancel()
					email.NotifyLotteryResult(sendCtx, sender, database.Queries, result)
				}(result)
			}
		}
	})
	return err
}
