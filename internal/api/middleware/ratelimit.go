package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"changrep/internal/service"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per caller, keyed by authenticated user
// id when present and by remote host otherwise. Entries for callers that go
// quiet are dropped by EvictIdle, which the maintenance sweep runs.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*limiterEntry
	rps     rate.Limit
	burst   int
}

func NewRateLimiter(perMinute int, burst int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 300
	}
	if burst <= 0 {
		burst = 60
	}
	return &RateLimiter{
		clients: map[string]*limiterEntry{},
		rps:     rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.clientKey(r)
		limiter := rl.getLimiter(key)
		if !limiter.Allow() {
			writeErr(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// EvictIdle drops limiter state for callers not seen since the cutoff and
// returns how many entries went away.
func (rl *RateLimiter) EvictIdle(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)
	rl.mu.Lock()
	defer rl.mu.Unlock()

	evicted := 0
	for key, entry := range rl.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
			evicted++
		}
	}
	return evicted
}

// Size reports how many callers currently hold limiter state.
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) clientKey(r *http.Request) string {
	if userID, ok := service.UserFromContext(r.Context()); ok {
		return userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if l, ok := rl.clients[key]; ok {
		l.lastSeen = time.Now()
		return l.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.clients[key] = &limiterEntry{limiter: lim, lastSeen: time.Now()}
	return lim
}
