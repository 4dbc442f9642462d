package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rallyhq/courtlotto/internal/db"
	"github.com/rallyhq/courtlotto/internal/lottery"
)

// NotifyLotteryResult emails each winner of a lottery run. Failures are
// logged per recipient; a bad address never fails the allocation that
// already committed.
func NotifyLotteryResult(ctx context.Context, sender Sender, queries *db.Queries, result lottery.Result) {
	if sender == nil {
		return
	}
	logger := log.Ctx(ctx)

	for _, assignment := range result.Assignments {
		member, err := queries.GetMember(ctx, assignment.MemberID)
		if err != nil {
			logger.Error().Err(err).
				Int64("member_id", assignment.MemberID).
				Msg("Failed to load member for lottery notification")
			continue
		}
		if member.Email == "" {
			continue
		}
		court, err := queries.GetCourt(ctx, assignment.CourtID)
		if err != nil {
			logger.Error().Err(err).
				Int64("court_id", assignment.CourtID).
				Msg("Failed to load court for lottery notification")
			continue
		}

		subject := fmt.Sprintf("Court confirmed for %s at %s", result.Date, result.SlotKey)
		body := fmt.Sprintf(
			"Hi %s,\n\nYour court request for %s at %s was drawn in the lottery.\nYou have %s.\n\nSee you on court!\n",
			member.Name, result.Date, result.SlotKey, court.Name,
		)
		if err := sender.Send(ctx, member.Email, subject, body); err != nil {
			logger.Error().Err(err).
				Int64("member_id", member.ID).
				Int64("reservation_id", assignment.ReservationID).
				Msg("Failed to send lottery result email")
		}
	}
}

// NotifyBookingConfirmed emails a direct-booking confirmation.
func NotifyBookingConfirmed(ctx context.Context, sender Sender, queries *db.Queries, reservation db.Reservation) {
	if sender == nil {
		return
	}
	logger := log.Ctx(ctx)

	member, err := queries.GetMember(ctx, reservation.MemberID)
	if err != nil {
		logger.Error().Err(err).
			Int64("member_id", reservation.MemberID).
			Msg("Failed to load member for booking confirmation")
		return
	}
	if member.Email == "" {
		return
	}
	court, err := queries.GetCourt(ctx, reservation.CourtID)
	if err != nil {
		logger.Error().Err(err).
			Int64("court_id", reservation.CourtID).
			Msg("Failed to load court for booking confirmation")
		return
	}

	subject := fmt.Sprintf("Booking confirmed for %s at %s", reservation.TargetDate, reservation.SlotKey)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour booking for %s at %s on %s is confirmed.\n",
		member.Name, reservation.TargetDate, reservation.SlotKey, court.Name,
	)
	if err := sender.Send(ctx, member.Email, subject, body); err != nil {
		logger.Error().Err(err).
			Int64("member_id", member.ID).
			Int64("reservation_id", reservation.ID).
			Msg("Failed to send booking confirmation email")
	}
}
