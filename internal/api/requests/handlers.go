// internal/api/requests/handlers.go
package requests

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rallyhq/courtlotto/internal/api/apiutil"
	"github.com/rallyhq/courtlotto/internal/booking"
	appdb "github.com/rallyhq/courtlotto/internal/db"
)

var (
	service  *booking.Service
	store    *appdb.DB
	initOnce sync.Once
)

const queryTimeout = 5 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(svc *booking.Service, database *appdb.DB) {
	if svc == nil || database == nil {
		return
	}
	initOnce.Do(func() {
		service = svc
		store = database
	})
}

type createRequestBody struct {
	MemberID     int64   `json:"member_id"`
	TargetDate   string  `json:"target_date"`
	SlotKey      string  `json:"slot_key"`
	PlayerCount  int64   `json:"player_count"`
	Participants []int64 `json:"participants"`
}

type requestView struct {
	ID           int64    `json:"id"`
	MemberID     int64    `json:"member_id"`
	TargetDate   string   `json:"target_date"`
	SlotKey      string   `json:"slot_key"`
	PlayerCount  int64    `json:"player_count"`
	Participants []int64  `json:"participants"`
	Weight       *float64 `json:"weight,omitempty"`
	Status       string   `json:"status"`
	CreatedAt    string   `json:"created_at"`
}

// POST /api/v1/requests
func HandleRequestCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if service == nil {
		logger.Error().Msg("Request handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var body createRequestBody
	if err := apiutil.DecodeJSON(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	targetDate, err := time.ParseInLocation(appdb.DateLayout, body.TargetDate, service.Location())
	if err != nil {
		http.Error(w, "invalid target_date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	request, err := service.SubmitRequest(ctx, booking.NewRequestParams{
		MemberID:     body.MemberID,
		TargetDate:   targetDate,
		SlotKey:      body.SlotKey,
		PlayerCount:  body.PlayerCount,
		Participants: body.Participants,
	})
	if err != nil {
		apiutil.WriteBookingError(w, r, err)
		return
	}

	apiutil.WriteJSON(w, http.StatusCreated, toRequestView(request))
}

// DELETE /api/v1/requests/{id}
func HandleRequestCancel(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if service == nil {
		logger.Error().Msg("Request handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	if err := service.CancelRequest(ctx, id); err != nil {
		apiutil.WriteBookingError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/members/{id}/requests
func HandleMemberRequests(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if store == nil {
		logger.Error().Msg("Request handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	memberID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid member id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	rows, err := store.Queries.ListMemberRequests(ctx, memberID)
	if err != nil {
		logger.Error().Err(err).Int64("member_id", memberID).Msg("Failed to list member requests")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	views := make([]requestView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toRequestView(row))
	}
	apiutil.WriteJSON(w, http.StatusOK, views)
}

// GET /api/v1/requests/pending?date=YYYY-MM-DD&slot=HH:MM
func HandlePendingRequests(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if store == nil {
		logger.Error().Msg("Request handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	date := r.URL.Query().Get("date")
	slotKey := r.URL.Query().Get("slot")
	if date == "" || slotKey == "" {
		http.Error(w, "date and slot query parameters are required", http.StatusBadRequest)
		return
	}
	if _, err := time.Parse(appdb.DateLayout, date); err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	rows, err := store.Queries.ListPendingRequests(ctx, date, slotKey)
	if err != nil {
		logger.Error().Err(err).Str("date", date).Str("slot_key", slotKey).Msg("Failed to list pending requests")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	views := make([]requestView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toRequestView(row))
	}
	apiutil.WriteJSON(w, http.StatusOK, views)
}

func toRequestView(row appdb.BookingRequest) requestView {
	participants, _ := appdb.DecodeParticipants(row.Participants)
	view := requestView{
		ID:           row.ID,
		MemberID:     row.MemberID,
		TargetDate:   row.TargetDate,
		SlotKey:      row.SlotKey,
		PlayerCount:  row.PlayerCount,
		Participants: participants,
		Status:       row.Status,
		CreatedAt:    row.CreatedAt.UTC().Format(time.RFC3339),
	}
	if row.Weight.Valid {
		weight := row.Weight.Float64
		view.Weight = &weight
	}
	return view
}
