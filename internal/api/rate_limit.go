package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"messenger/infrastructure"
	"messenger/internal/metrics"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller, or per remote address for
// unauthenticated requests.
type RateLimiter struct {
	mu       sync.Mutex
	rps      int
	limiters map[string]*limiterEntry
	now      func() time.Time
}

func NewRateLimiter(rps int) *RateLimiter {
	return &RateLimiter{
		rps:      rps,
		limiters: make(map[string]*limiterEntry),
		now:      time.Now,
	}
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(l.rps), l.rps)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Sweep drops buckets that have been idle for a while.
func (l *RateLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-limiterIdleTTL)
	for k, e := range l.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(l.limiters, k)
		}
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, err := infrastructure.CallerFromContext(r.Context())
		if err != nil {
			key = remoteHost(r)
		}
		if !l.allow(key) {
			metrics.RateLimited.Inc()
			infrastructure.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"message": "Too many requests",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
