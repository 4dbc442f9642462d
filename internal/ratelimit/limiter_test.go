package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(t *testing.T, max int, window time.Duration) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)}
	limiter := New(&Config{
		MaxPerWindow: max,
		Window:       window,
		Clock:        clock,
	})
	t.Cleanup(limiter.Close)
	return limiter, clock
}

func TestCheckEnforcesWindowLimit(t *testing.T) {
	limiter, clock := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if result := limiter.Check("10.0.0.1"); !result.Allowed {
			t.Fatalf("call %d rejected, want allowed", i+1)
		}
	}

	result := limiter.Check("10.0.0.1")
	if result.Allowed {
		t.Fatal("fourth call allowed, want rejected")
	}
	if result.RetryAfter <= 0 || result.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %v, want within the window", result.RetryAfter)
	}

	// Other clients are unaffected.
	if result := limiter.Check("10.0.0.2"); !result.Allowed {
		t.Error("different client rejected")
	}

	// The window rolls over and the client is welcome again.
	clock.advance(time.Minute)
	if result := limiter.Check("10.0.0.1"); !result.Allowed {
		t.Error("call after window rollover rejected")
	}
}

func TestSweepDropsStaleEntries(t *testing.T) {
	limiter, clock := newTestLimiter(t, 3, time.Minute)

	limiter.Check("10.0.0.1")
	limiter.Check("10.0.0.2")
	clock.advance(2 * time.Minute)
	limiter.Check("10.0.0.3")

	limiter.sweep()

	limiter.mu.Lock()
	remaining := len(limiter.byIP)
	limiter.mu.Unlock()
	if remaining != 1 {
		t.Errorf("entries after sweep = %d, want 1", remaining)
	}
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, time.Minute)

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRequest(http.MethodPost, "/api/v1/requests", nil)
	first.RemoteAddr = "10.0.0.1:54321"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first call status = %d, want 204", rec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/requests", nil)
	second.RemoteAddr = "10.0.0.1:54322"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second call status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}
