package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"changrep/internal/service"
)

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var statuses []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/channels", nil)
		req = req.WithContext(service.WithUser(req.Context(), "U1"))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		statuses = append(statuses, rr.Code)
	}
	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Fatalf("burst requests should pass: %v", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("third request should be limited: %v", statuses)
	}

	// A different user gets a fresh bucket.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels", nil)
	req = req.WithContext(service.WithUser(req.Context(), "U2"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("second user should not share the first user's bucket, got %d", rr.Code)
	}
}

func TestEvictIdle(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	rl.getLimiter("U1")
	rl.getLimiter("U2")
	if got := rl.Size(); got != 2 {
		t.Fatalf("expected 2 tracked callers, got %d", got)
	}

	if evicted := rl.EvictIdle(time.Hour); evicted != 0 {
		t.Fatalf("expected no evictions for a long cutoff, got %d", evicted)
	}
	// A negative horizon puts the cutoff in the future and evicts everything.
	if evicted := rl.EvictIdle(-time.Second); evicted != 2 {
		t.Fatalf("expected both entries evicted, got %d", evicted)
	}
	if got := rl.Size(); got != 0 {
		t.Fatalf("expected empty limiter, got %d", got)
	}
}
