// internal/db/models.go
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Request and reservation statuses as stored.
const (
	RequestStatusPending   = "pending"
	RequestStatusResolved  = "resolved"
	RequestStatusCancelled = "cancelled"

	ReservationStatusConfirmed = "confirmed"
	ReservationStatusCompleted = "completed"
	ReservationStatusCancelled = "cancelled"
)

type Member struct {
	ID             int64
	Name           string
	Email          string
	MembershipTier string
	Active         bool
	CreatedAt      time.Time
}

type Court struct {
	ID        int64
	Name      string
	Active    bool
	CreatedAt time.Time
}

type SlotTemplate struct {
	ID           int64
	DayOfWeek    int64
	SlotKey      string
	StartMinutes int64
	EndMinutes   int64
	Peak         bool
	CreatedAt    time.Time
}

type BookingRequest struct {
	ID           int64
	MemberID     int64
	TargetDate   string
	SlotKey      string
	PlayerCount  int64
	Participants string
	Weight       sql.NullFloat64
	Status       string
	CreatedAt    time.Time
}

type Reservation struct {
	ID              int64
	MemberID        int64
	CourtID         int64
	TargetDate      string
	SlotKey         string
	PlayerCount     int64
	Participants    string
	SourceRequestID sql.NullInt64
	Status          string
	CreatedAt       time.Time
	CompletedAt     sql.NullTime
	CancelledAt     sql.NullTime
}

type UsageCounter struct {
	MemberID       int64
	CompletedCount int64
	UpdatedAt      time.Time
}

// EncodeParticipants serializes participant member ids into the stored JSON
// form.
func EncodeParticipants(ids []int64) (string, error) {
	if len(ids) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode participants: %w", err)
	}
	return string(data), nil
}

// DecodeParticipants parses the stored JSON participant list.
func DecodeParticipants(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	return ids, nil
}
