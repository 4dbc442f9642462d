package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/rallyhq/courtlotto/internal/db"
)

func bookDirect(t *testing.T, svc *Service, memberID, courtID int64, slotKey string) db.Reservation {
	t.Helper()
	reservation, err := svc.SubmitDirectBooking(context.Background(), NewBookingParams{
		MemberID:     memberID,
		CourtID:      courtID,
		TargetDate:   testNow.AddDate(0, 0, 1),
		SlotKey:      slotKey,
		PlayerCount:  2,
		Participants: []int64{1, 2},
	})
	if err != nil {
		t.Fatalf("book direct: %v", err)
	}
	return reservation
}

func TestCompleteReservationIncrementsUsageOnce(t *testing.T) {
	svc, database := newTestService(t)
	member := createMember(t, database, "standard")
	court := createCourt(t, database, "Court 1", true)
	ctx := context.Background()

	reservation := bookDirect(t, svc, member.ID, court.ID, "09:00")

	completed, err := svc.CompleteReservation(ctx, reservation.ID)
	if err != nil {
		t.Fatalf("CompleteReservation: %v", err)
	}
	if completed.Status != db.ReservationStatusCompleted {
		t.Errorf("status = %q, want %q", completed.Status, db.ReservationStatusCompleted)
	}
	if !completed.CompletedAt.Valid {
		t.Error("completed_at not set")
	}

	usage, err := database.Queries.GetUsageCount(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetUsageCount: %v", err)
	}
	if usage != 1 {
		t.Errorf("usage = %d, want 1", usage)
	}

	// A repeat completion must fail and must not bump the counter again.
	_, err = svc.CompleteReservation(ctx, reservation.ID)
	var stateErr StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("second complete err = %v, want StateError", err)
	}
	usage, err = database.Queries.GetUsageCount(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetUsageCount: %v", err)
	}
	if usage != 1 {
		t.Errorf("usage after failed complete = %d, want 1", usage)
	}
}

func TestCancelReservationFreesSlot(t *testing.T) {
	svc, database := newTestService(t)
	member := createMember(t, database, "standard")
	court := createCourt(t, database, "Court 1", true)
	ctx := context.Background()

	reservation := bookDirect(t, svc, member.ID, court.ID, "09:00")

	cancelled, err := svc.CancelReservation(ctx, reservation.ID)
	if err != nil {
		t.Fatalf("CancelReservation: %v", err)
	}
	if cancelled.Status != db.ReservationStatusCancelled {
		t.Errorf("status = %q, want %q", cancelled.Status, db.ReservationStatusCancelled)
	}
	if !cancelled.CancelledAt.Valid {
		t.Error("cancelled_at not set")
	}

	// Cancellation never counts toward usage.
	usage, err := database.Queries.GetUsageCount(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetUsageCount: %v", err)
	}
	if usage != 0 {
		t.Errorf("usage = %d, want 0", usage)
	}

	// The slot is bookable again immediately.
	if _, err := svc.SubmitDirectBooking(ctx, NewBookingParams{
		MemberID:     member.ID,
		CourtID:      court.ID,
		TargetDate:   testNow.AddDate(0, 0, 1),
		SlotKey:      "09:00",
		PlayerCount:  2,
		Participants: []int64{1, 2},
	}); err != nil {
		t.Errorf("rebooking a cancelled slot: %v", err)
	}
}

func TestCancelReservationStateRules(t *testing.T) {
	svc, database := newTestService(t)
	member := createMember(t, database, "standard")
	court := createCourt(t, database, "Court 1", true)
	ctx := context.Background()

	reservation := bookDirect(t, svc, member.ID, court.ID, "09:00")
	if _, err := svc.CompleteReservation(ctx, reservation.ID); err != nil {
		t.Fatalf("CompleteReservation: %v", err)
	}

	if _, err := svc.CancelReservation(ctx, reservation.ID); !errors.Is(err, ErrCannotCancelCompleted) {
		t.Errorf("cancel completed err = %v, want ErrCannotCancelCompleted", err)
	}
	// The failed cancel leaves the earlier completion's usage increment alone.
	usage, err := database.Queries.GetUsageCount(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetUsageCount: %v", err)
	}
	if usage != 1 {
		t.Errorf("usage after failed cancel = %d, want 1", usage)
	}

	other := bookDirect(t, svc, member.ID, court.ID, "10:00")
	if _, err := svc.CancelReservation(ctx, other.ID); err != nil {
		t.Fatalf("CancelReservation: %v", err)
	}
	_, err = svc.CancelReservation(ctx, other.ID)
	var stateErr StateError
	if !errors.As(err, &stateErr) {
		t.Errorf("double cancel err = %v, want StateError", err)
	}

	if _, err := svc.CancelReservation(ctx, other.ID+100); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("unknown reservation err = %v, want ErrReservationNotFound", err)
	}
}

func TestLedgerResetZeroesCounters(t *testing.T) {
	svc, database := newTestService(t)
	member := createMember(t, database, "standard")
	court := createCourt(t, database, "Court 1", true)
	ctx := context.Background()

	for _, slot := range []string{"09:00", "10:00", "11:00"} {
		reservation := bookDirect(t, svc, member.ID, court.ID, slot)
		if _, err := svc.CompleteReservation(ctx, reservation.ID); err != nil {
			t.Fatalf("CompleteReservation: %v", err)
		}
	}

	ledger, err := NewLedger(database, WithLedgerClock(fixedClock{now: testNow}))
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	usage, err := ledger.Get(ctx, member.ID)
	if err != nil {
		t.Fatalf("ledger.Get: %v", err)
	}
	if usage != 3 {
		t.Fatalf("usage = %d, want 3", usage)
	}

	if err := ledger.ResetAll(ctx); err != nil {
		t.Fatalf("ResetAll: %v", err)
	}
	usage, err = ledger.Get(ctx, member.ID)
	if err != nil {
		t.Fatalf("ledger.Get after reset: %v", err)
	}
	if usage != 0 {
		t.Errorf("usage after reset = %d, want 0", usage)
	}

	resetAt, err := ledger.LastReset(ctx)
	if err != nil {
		t.Fatalf("LastReset: %v", err)
	}
	if !resetAt.Equal(testNow) {
		t.Errorf("reset_at = %v, want %v", resetAt, testNow)
	}

	// Members that never completed anything read as zero.
	usage, err = ledger.Get(ctx, member.ID+500)
	if err != nil {
		t.Fatalf("ledger.Get unknown member: %v", err)
	}
	if usage != 0 {
		t.Errorf("unknown member usage = %d, want 0", usage)
	}
}
