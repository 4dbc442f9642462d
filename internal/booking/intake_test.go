package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rallyhq/courtlotto/internal/db"
	"github.com/rallyhq/courtlotto/internal/testutil"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// testNow anchors every intake test; a Monday afternoon.
var testNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *db.DB) {
	t.Helper()
	database := testutil.NewTestDB(t)
	svc, err := NewService(database, WithClock(fixedClock{now: testNow}))
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return svc, database
}

func createMember(t *testing.T, database *db.DB, tier string) db.Member {
	t.Helper()
	member, err := database.Queries.CreateMember(context.Background(), db.CreateMemberParams{
		Name:           "Test Member",
		Email:          "member@example.com",
		MembershipTier: tier,
		Active:         true,
	})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return member
}

func createCourt(t *testing.T, database *db.DB, name string, active bool) db.Court {
	t.Helper()
	court, err := database.Queries.CreateCourt(context.Background(), db.CreateCourtParams{
		Name:   name,
		Active: active,
	})
	if err != nil {
		t.Fatalf("create court: %v", err)
	}
	return court
}

func TestSubmitRequest(t *testing.T) {
	svc, database := newTestService(t)
	member := createMember(t, database, "standard")
	ctx := context.Background()

	target := testNow.AddDate(0, 0, 3)
	request, err := svc.SubmitRequest(ctx, NewRequestParams{
		MemberID:     member.ID,
		TargetDate:   target,
		SlotKey:      "18:00",
		PlayerCount:  2,
		Participants: []int64{member.ID, member.ID + 100},
	})
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}

	if request.Status != db.RequestStatusPending {
		t.Errorf("status = %q, want %q", request.Status, db.RequestStatusPending)
	}
	if request.TargetDate != "2025-03-13" {
		t.Errorf("target_date = %q, want 2025-03-13", request.TargetDate)
	}
	if request.Weight.Valid {
		t.Errorf("weight should be unset at intake, got %v", request.Weight.Float64)
	}

	stored, err := database.Queries.GetBookingRequest(ctx, request.ID)
	if err != nil {
		t.Fatalf("GetBookingRequest: %v", err)
	}
	participants, err := db.DecodeParticipants(stored.Participants)
	if err != nil {
		t.Fatalf("DecodeParticipants: %v", err)
	}
	if len(participants) != 2 || participants[0] != member.ID {
		t.Errorf("participants = %v, want [%d %d]", participants, member.ID, member.ID+100)
	}
}

func TestSubmitRequestRejectsWrongWindow(t *testing.T) {
	svc, database := newTestService(t)
	member := createMember(t, database, "standard")
	ctx := context.Background()

	tests := []struct {
		name      string
		daysAhead int
	}{
		{"past date", -1},
		{"same day belongs to direct booking", 0},
		{"tomorrow belongs to direct booking", 1},
		{"beyond the request window", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitRequest(ctx, NewRequestParams{
				MemberID:     member.ID,
				TargetDate:   testNow.AddDate(0, 0, tt.daysAhead),
				SlotKey:      "18:00",
				PlayerCount:  2,
				Participants: []int64{1, 2},
			})
			var windowErr WindowError
			if !errors.As(err, &windowErr) {
				t.Fatalf("err = %v, want WindowError", err)
			}
		})
	}
}

func TestSubmitRequestValidatesPlayers(t *testing.T) {
	svc, database := newTestService(t)
	member := createMember(t, database, "standard")
	ctx := context.Background()
	target := testNow.AddDate(0, 0, 3)

	tests := []struct {
		name         string
		playerCount  int64
		participants []int64
	}{
		{"too few players", 1, []int64{1}},
		{"too many players", 5, []int64{1, 2, 3, 4, 5}},
		{"count above roster", 3, []int64{1, 2}},
		{"count below roster", 2, []int64{1, 2, 3}},
		{"duplicates shrink the roster", 2, []int64{7, 7, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitRequest(ctx, NewRequestParams{
				MemberID:     member.ID,
				TargetDate:   target,
				SlotKey:      "18:00",
				PlayerCount:  tt.playerCount,
				Participants: tt.participants,
			})
			var playerErr PlayerCountError
			if !errors.As(err, &playerErr) {
				t.Fatalf("err = %v, want PlayerCountError", err)
			}
		})
	}
}

func TestSubmitRequestUnknownMember(t *testing.T) {
	svc, database := newTestService(t)
	member := createMember(t, database, "standard")

	_, err := svc.SubmitRequest(context.Background(), NewRequestParams{
		MemberID:     member.ID + 100,
		TargetDate:   testNow.AddDate(0, 0, 3),
		SlotKey:      "18:00",
		PlayerCount:  2,
		Participants: []int64{1, 2},
	})
	if !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("err = %v, want ErrMemberNotFound", err)
	}
}

func TestSubmitDirectBooking(t *testing.T) {
	svc, database := newTestService(t)
	member := createMember(t, database, "standard")
	court := createCourt(t, database, "Court 1", true)
	ctx := context.Background()

	reservation, err := svc.SubmitDirectBooking(ctx, NewBookingParams{
		MemberID:     member.ID,
		CourtID:      court.ID,
		TargetDate:   testNow.AddDate(0, 0, 1),
		SlotKey:      "09:00",
		PlayerCount:  4,
		Participants: []int64{1, 2, 3, 4},
	})
	if err != nil {
		t.Fatalf("SubmitDirectBooking: %v", err)
	}
	if reservation.Status != db.ReservationStatusConfirmed {
		t.Errorf("status = %q, want %q", reservation.Status, db.ReservationStatusConfirmed)
	}
	if reservation.SourceRequestID.Valid {
		t.Errorf("direct booking should carry no source request")
	}
}

func TestSubmitDirectBookingConflicts(t *testing.T) {
	svc, database := newTestService(t)
	member := createMember(t, database, "standard")
	rival := createMember(t, database, "priority")
	court := createCourt(t, database, "Court 1", true)
	ctx := context.Background()
	target := testNow.AddDate(0, 0, 1)

	params := NewBookingParams{
		MemberID:     member.ID,
		CourtID:      court.ID,
		TargetDate:   target,
		SlotKey:      "09:00",
		PlayerCount:  2,
		Participants: []int64{1, 2},
	}
	if _, err := svc.SubmitDirectBooking(ctx, params); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	params.MemberID = rival.ID
	_, err := svc.SubmitDirectBooking(ctx, params)
	var conflictErr ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("err = %v, want ConflictError", err)
	}

	// A different slot on the same court stays free.
	params.SlotKey = "10:00"
	if _, err := svc.SubmitDirectBooking(ctx, params); err != nil {
		t.Errorf("different slot should book cleanly: %v", err)
	}
}

func TestSubmitDirectBookingCourtChecks(t *testing.T) {
	svc, database := newTestService(t)
	member := createMember(t, database, "standard")
	closed := createCourt(t, database, "Resurfacing", false)
	ctx := context.Background()

	params := NewBookingParams{
		MemberID:     member.ID,
		CourtID:      closed.ID + 100,
		TargetDate:   testNow.AddDate(0, 0, 1),
		SlotKey:      "09:00",
		PlayerCount:  2,
		Participants: []int64{1, 2},
	}
	if _, err := svc.SubmitDirectBooking(ctx, params); !errors.Is(err, ErrCourtNotFound) {
		t.Errorf("unknown court err = %v, want ErrCourtNotFound", err)
	}

	params.CourtID = closed.ID
	if _, err := svc.SubmitDirectBooking(ctx, params); !errors.Is(err, ErrCourtInactive) {
		t.Errorf("inactive court err = %v, want ErrCourtInactive", err)
	}
}

func TestSubmitDirectBookingRejectsRequestWindow(t *testing.T) {
	svc, database := newTestService(t)
	member := createMember(t, database, "standard")
	court := createCourt(t, database, "Court 1", true)

	_, err := svc.SubmitDirectBooking(context.Background(), NewBookingParams{
		MemberID:     member.ID,
		CourtID:      court.ID,
		TargetDate:   testNow.AddDate(0, 0, 3),
		SlotKey:      "09:00",
		PlayerCount:  2,
		Participants: []int64{1, 2},
	})
	var windowErr WindowError
	if !errors.As(err, &windowErr) {
		t.Fatalf("err = %v, want WindowError", err)
	}
	if windowErr.Window != WindowRequest {
		t.Errorf("window = %v, want %v", windowErr.Window, WindowRequest)
	}
}

func TestCancelRequest(t *testing.T) {
	svc, database := newTestService(t)
	member := createMember(t, database, "standard")
	ctx := context.Background()

	request, err := svc.SubmitRequest(ctx, NewRequestParams{
		MemberID:     member.ID,
		TargetDate:   testNow.AddDate(0, 0, 3),
		SlotKey:      "18:00",
		PlayerCount:  2,
		Participants: []int64{1, 2},
	})
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}

	if err := svc.CancelRequest(ctx, request.ID); err != nil {
		t.Fatalf("CancelRequest: %v", err)
	}
	stored, err := database.Queries.GetBookingRequest(ctx, request.ID)
	if err != nil {
		t.Fatalf("GetBookingRequest: %v", err)
	}
	if stored.Status != db.RequestStatusCancelled {
		t.Errorf("status = %q, want %q", stored.Status, db.RequestStatusCancelled)
	}

	// Cancelling again is a state error, not a silent no-op.
	err = svc.CancelRequest(ctx, request.ID)
	var stateErr RequestStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("second cancel err = %v, want RequestStateError", err)
	}

	if err := svc.CancelRequest(ctx, request.ID+100); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("unknown request err = %v, want ErrRequestNotFound", err)
	}
}
