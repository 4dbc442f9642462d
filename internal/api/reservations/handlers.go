// internal/api/reservations/handlers.go
package reservations

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
	"github.com/rallyhq/courtlotto/internal/email"
)

var (
	service  *booking.Service
	store    *appdb.DB
	notifier email.Sender
	initOnce sync.Once
)

const (
	queryTimeout     = 5 * time.Second
	emailSendTimeout = 30 * time.Second
)

// InitHandlers must be called during server startup before handling requests.
// The email sender is optional; when nil no confirmations are sent.
func InitHandlers(svc *booking.Service, database *appdb.DB, sender email.Sender) {
	if svc == nil || database == nil {
		return
	}
	initOnce.Do(func() {
		service = svc
		store = database
		notifier = sender
	})
}

type createBookingBody struct {
	MemberID     int64   `json:"member_id"`
	CourtID      int64   `json:"court_id"`
	TargetDate   string  `json:"target_date"`
	SlotKey      string  `json:"slot_key"`
	PlayerCount  int64   `json:"player_count"`
	Participants []int64 `json:"participants"`
}

type reservationView struct {
	ID              int64   `json:"id"`
	MemberID        int64   `json:"member_id"`
	CourtID         int64   `json:"court_id"`
	TargetDate      string  `json:"target_date"`
	SlotKey         string  `json:"slot_key"`
	PlayerCount     int64   `json:"player_count"`
	Participants    []int64 `json:"participants"`
	SourceRequestID *int64  `json:"source_request_id,omitempty"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at"`
	CompletedAt     string  `json:"completed_at,omitempty"`
	CancelledAt     string  `json:"cancelled_at,omitempty"`
}

type courtView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// POST /api/v1/reservations
func HandleDirectBookingCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if service == nil {
		logger.Error().Msg("Reservation handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var body createBookingBody
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

	reservation, err := service.SubmitDirectBooking(ctx, booking.NewBookingParams{
		MemberID:     body.MemberID,
		CourtID:      body.CourtID,
		TargetDate:   targetDate,
		SlotKey:      body.SlotKey,
		PlayerCount:  body.PlayerCount,
		Participants: body.Participants,
	})
	if err != nil {
		apiutil.WriteBookingError(w, r, err)
		return
	}

	if notifier != nil {
		go func() {
			sendCtx, sendCancel := email.NewSendContext(r.Context(), emailSendTimeout)
			defer sendCancel()
			email.NotifyBookingConfirmed(sendCtx, notifier, store.Queries, reservation)
		}()
	}

	apiutil.WriteJSON(w, http.StatusCreated, toReservationView(reservation))
}

// POST /api/v1/reservations/{id}/complete
func HandleReservationComplete(w http.ResponseWriter, r *http.Request) {
	handleTransition(w, r, "complete", func(ctx context.Context, id int64) (appdb.Reservation, error) {
		return service.CompleteReservation(ctx, id)
	})
}

// POST /api/v1/reservations/{id}/cancel
func HandleReservationCancel(w http.ResponseWriter, r *http.Request) {
	handleTransition(w, r, "cancel", func(ctx context.Context, id int64) (appdb.Reservation, error) {
		return service.CancelReservation(ctx, id)
	})
}

func handleTransition(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, int64) (appdb.Reservation, error)) {
	logger := log.Ctx(r.Context())
	if service == nil {
		logger.Error().Msg("Reservation handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid reservation id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	reservation, err := fn(ctx, id)
	if err != nil {
		logger.Debug().Err(err).Str("op", op).Int64("reservation_id", id).Msg("Reservation transition rejected")
		apiutil.WriteBookingError(w, r, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, toReservationView(reservation))
}

// GET /api/v1/members/{id}/reservations
func HandleMemberReservations(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if store == nil {
		logger.Error().Msg("Reservation handlers not initialized")
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

	rows, err := store.Queries.ListMemberReservations(ctx, memberID)
	if err != nil {
		logger.Error().Err(err).Int64("member_id", memberID).Msg("Failed to list member reservations")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	views := make([]reservationView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toReservationView(row))
	}
	apiutil.WriteJSON(w, http.StatusOK, views)
}

// GET /api/v1/availability?date=YYYY-MM-DD&slot=HH:MM
func HandleAvailability(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if service == nil {
		logger.Error().Msg("Reservation handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	date := r.URL.Query().Get("date")
	slotKey := r.URL.Query().Get("slot")
	if date == "" || slotKey == "" {
		http.Error(w, "date and slot query parameters are required", http.StatusBadRequest)
		return
	}
	targetDate, err := time.ParseInLocation(appdb.DateLayout, date, service.Location())
	if err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	courts, err := service.AvailableCourts(ctx, targetDate, slotKey)
	if err != nil {
		logger.Error().Err(err).Str("date", date).Str("slot_key", slotKey).Msg("Failed to resolve availability")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	views := make([]courtView, 0, len(courts))
	for _, court := range courts {
		views = append(views, courtView{ID: court.ID, Name: court.Name})
	}
	apiutil.WriteJSON(w, http.StatusOK, views)
}

func toReservationView(row appdb.Reservation) reservationView {
	participants, _ := appdb.DecodeParticipants(row.Participants)
	view := reservationView{
		ID:           row.ID,
		MemberID:     row.MemberID,
		CourtID:      row.CourtID,
		TargetDate:   row.TargetDate,
		SlotKey:      row.SlotKey,
		PlayerCount:  row.PlayerCount,
		Participants: participants,
		Status:       row.Status,
		CreatedAt:    row.CreatedAt.UTC().Format(time.RFC3339),
	}
	if row.SourceRequestID.Valid {
		sourceID := row.SourceRequestID.Int64
		view.SourceRequestID = &sourceID
	}
	if row.CompletedAt.Valid {
		view.CompletedAt = row.CompletedAt.Time.UTC().Format(time.RFC3339)
	}
	if row.CancelledAt.Valid {
		view.CancelledAt = row.CancelledAt.Time.UTC().Format(time.RFC3339)
	}
	return view
}
