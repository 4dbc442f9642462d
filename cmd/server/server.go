// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rallyhq/courtlotto/internal/api"
	"github.com/rallyhq/courtlotto/internal/api/lotteryapi"
	"github.com/rallyhq/courtlotto/internal/api/requests"
	"github.com/rallyhq/courtlotto/internal/api/reservations"
	"github.com/rallyhq/courtlotto/internal/booking"
	"github.com/rallyhq/courtlotto/internal/config"
	"github.com/rallyhq/courtlotto/internal/db"
	"github.com/rallyhq/courtlotto/internal/email"
	"github.com/rallyhq/courtlotto/internal/lottery"
	"github.com/rallyhq/courtlotto/internal/ratelimit"
)

type serverDeps struct {
	database  *db.DB
	booking   *booking.Service
	allocator *lottery.Allocator
	sender    email.Sender
	location  *time.Location
	limiter   *ratelimit.Limiter
}

func newServer(cfg *config.Config, deps serverDeps) *http.Server {
	requests.InitHandlers(deps.booking, deps.database)
	reservations.InitHandlers(deps.booking, deps.database, deps.sender)
	lotteryapi.InitHandlers(deps.allocator, deps.location)

	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	registerRoutes(router, deps.limiter)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, limiter *ratelimit.Limiter) {
	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Intake endpoints are rate limited; direct bookings are first-come and
	// a flood from one client would crowd out everyone else.
	limited := func(h http.HandlerFunc) http.Handler {
		if limiter == nil {
			return h
		}
		return limiter.Middleware(h)
	}

	// Pooled booking requests
	mux.Handle("POST /api/v1/requests", limited(requests.HandleRequestCreate))
	mux.HandleFunc("DELETE /api/v1/requests/{id}", requests.HandleRequestCancel)
	mux.HandleFunc("GET /api/v1/requests/pending", requests.HandlePendingRequests)
	mux.HandleFunc("GET /api/v1/members/{id}/requests", requests.HandleMemberRequests)

	// Direct bookings and reservation lifecycle
	mux.Handle("POST /api/v1/reservations", limited(reservations.HandleDirectBookingCreate))
	mux.HandleFunc("POST /api/v1/reservations/{id}/complete", reservations.HandleReservationComplete)
	mux.HandleFunc("POST /api/v1/reservations/{id}/cancel", reservations.HandleReservationCancel)
	mux.HandleFunc("GET /api/v1/members/{id}/reservations", reservations.HandleMemberReservations)
	mux.HandleFunc("GET /api/v1/availability", reservations.HandleAvailability)

	// Manual lottery trigger
	mux.HandleFunc("POST /api/v1/lottery/run", lotteryapi.HandleLotteryRun)
}
