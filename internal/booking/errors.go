// internal/booking/errors.go
package booking

import (
	"errors"
	"fmt"
)

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrCourtNotFound       = errors.New("court not found")
	ErrCourtInactive       = errors.New("court is not active")
	ErrRequestNotFound     = errors.New("booking request not found")
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrCannotCancelCompleted marks a cancel attempt against a completed
	// reservation; completion is terminal and keeps its usage increment.
	ErrCannotCancelCompleted = errors.New("completed reservations cannot be cancelled")
)

// WindowError reports a target date outside the operation's valid temporal
// window.
type WindowError struct {
	Date   string
	Window Window
}

func (e WindowError) Error() string {
	return fmt.Sprintf("date %s is outside the booking window (%s)", e.Date, e.Window)
}

// PlayerCountError reports an invalid player count or a participant list that
// does not match it after deduplication.
type PlayerCountError struct {
	PlayerCount  int64
	Participants int
}

func (e PlayerCountError) Error() string {
	return fmt.Sprintf("invalid player count %d with %d participants (need 2-4 players, one participant each)",
		e.PlayerCount, e.Participants)
}

// ConflictError reports that a confirmed reservation already occupies the
// court for the date and slot, including races lost to a concurrent writer.
type ConflictError struct {
	CourtID int64
	Date    string
	SlotKey string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("court %d is already reserved for %s %s", e.CourtID, e.Date, e.SlotKey)
}

// StateError reports a lifecycle transition attempted from a state that
// forbids it.
type StateError struct {
	ID     int64
	Status string
	Op     string
}

func (e StateError) Error() string {
	return fmt.Sprintf("cannot %s reservation %d in status %s", e.Op, e.ID, e.Status)
}

// RequestStateError reports a request operation attempted from a non-pending
// status.
type RequestStateError struct {
	ID     int64
	Status string
	Op     string
}

func (e RequestStateError) Error() string {
	return fmt.Sprintf("cannot %s request %d in status %s", e.Op, e.ID, e.Status)
}
