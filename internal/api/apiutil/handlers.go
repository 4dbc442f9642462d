package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/rallyhq/courtlotto/internal/booking"
)

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

type errorResponse struct {
	Error string `json:"error"`
}

// WriteBookingError maps the booking error taxonomy onto HTTP statuses. Any
// error outside the taxonomy is treated as internal and not echoed to the
// caller.
func WriteBookingError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		windowErr       booking.WindowError
		playerErr       booking.PlayerCountError
		conflictErr     booking.ConflictError
		stateErr        booking.StateError
		requestStateErr booking.RequestStateError
	)

	switch {
	case errors.As(err, &windowErr), errors.As(err, &playerErr):
		WriteJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.As(err, &conflictErr),
		errors.As(err, &stateErr),
		errors.As(err, &requestStateErr),
		errors.Is(err, booking.ErrCannotCancelCompleted):
		WriteJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrCourtInactive):
		WriteJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrMemberNotFound),
		errors.Is(err, booking.ErrCourtNotFound),
		errors.Is(err, booking.ErrRequestNotFound),
		errors.Is(err, booking.ErrReservationNotFound):
		WriteJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("Unhandled booking error")
		WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
