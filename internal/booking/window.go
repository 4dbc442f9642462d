// internal/booking/window.go
package booking

import "time"

// Window classifies how far ahead of "now" a target date falls, which
// determines the intake path it may use.
type Window int

const (
	// WindowInvalid covers past dates.
	WindowInvalid Window = iota
	// WindowDirect covers 0-1 days ahead: first-come direct bookings.
	WindowDirect
	// WindowRequest covers 2-5 days ahead: pooled lottery requests.
	WindowRequest
	// WindowTooFar covers more than 5 days ahead.
	WindowTooFar
)

const (
	directWindowDays  = 2 // d < 2 books directly
	requestWindowDays = 5 // 2 <= d <= 5 enters the lottery pool
)

func (w Window) String() string {
	switch w {
	case WindowInvalid:
		return "invalid"
	case WindowDirect:
		return "direct"
	case WindowRequest:
		return "request"
	case WindowTooFar:
		return "too_far"
	default:
		return "unknown"
	}
}

// ClassifyDate places target relative to now into exactly one window. Both
// instants are truncated to midnight in loc first, so time of day never
// affects the result.
func ClassifyDate(target, now time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	d := wholeDaysBetween(now, target, loc)
	switch {
	case d < 0:
		return WindowInvalid
	case d < directWindowDays:
		return WindowDirect
	case d <= requestWindowDays:
		return WindowRequest
	default:
		return WindowTooFar
	}
}

// wholeDaysBetween counts calendar days from now to target in loc. Midnights
// are rebuilt in UTC so DST transitions cannot skew the count.
func wholeDaysBetween(now, target time.Time, loc *time.Location) int {
	return int(midnight(target, loc).Sub(midnight(now, loc)) / (24 * time.Hour))
}

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
