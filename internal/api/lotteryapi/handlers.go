// internal/api/lotteryapi/handlers.go
package lotteryapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rallyhq/courtlotto/internal/api/apiutil"
	appdb "github.com/rallyhq/courtlotto/internal/db"
	"github.com/rallyhq/courtlotto/internal/lottery"
)

var (
	allocator *lottery.Allocator
	loc       *time.Location
	initOnce  sync.Once
)

const runTimeout = 30 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(alloc *lottery.Allocator, location *time.Location) {
	if alloc == nil {
		return
	}
	initOnce.Do(func() {
		allocator = alloc
		loc = location
		if loc == nil {
			loc = time.UTC
		}
	})
}

type runBody struct {
	TargetDate string `json:"target_date"`
	SlotKey    string `json:"slot_key"`
}

type assignmentView struct {
	RequestID     int64 `json:"request_id"`
	MemberID      int64 `json:"member_id"`
	CourtID       int64 `json:"court_id"`
	ReservationID int64 `json:"reservation_id"`
}

type resultView struct {
	Date        string           `json:"date"`
	SlotKey     string           `json:"slot_key"`
	Assignments []assignmentView `json:"assignments"`
	Unassigned  []int64          `json:"unassigned"`
}

// POST /api/v1/lottery/run
//
// Manual trigger for one (date, slot) pair, e.g. a re-run after an earlier
// partial failure. Safe to repeat: only still-pending requests participate.
func HandleLotteryRun(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if allocator == nil {
		logger.Error().Msg("Lottery handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var body runBody
	if err := apiutil.DecodeJSON(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	targetDate, err := time.ParseInLocation(appdb.DateLayout, body.TargetDate, loc)
	if err != nil {
		http.Error(w, "invalid target_date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if body.SlotKey == "" {
		http.Error(w, "slot_key is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), runTimeout)
	defer cancel()

	result, err := allocator.Run(ctx, targetDate, body.SlotKey)
	if err != nil {
		logger.Error().Err(err).
			Str("target_date", body.TargetDate).
			Str("slot_key", body.SlotKey).
			Msg("Manual lottery run failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	view := resultView{
		Date:        result.Date,
		SlotKey:     result.SlotKey,
		Assignments: make([]assignmentView, 0, len(result.Assignments)),
		Unassigned:  result.Unassigned,
	}
	if view.Unassigned == nil {
		view.Unassigned = []int64{}
	}
	for _, a := range result.Assignments {
		view.Assignments = append(view.Assignments, assignmentView(a))
	}
	apiutil.WriteJSON(w, http.StatusOK, view)
}
