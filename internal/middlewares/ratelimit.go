package middlewares

import (
	"net"
	"net/http"
	"sync"

	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per caller.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewRateLimiter allows rps requests per second per caller with the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

func (l *RateLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	return b
}

// Middleware keys buckets by authenticated user, falling back to the remote host.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := callerKey(r)
		if !l.bucket(key).Allow() {
			logger.Log.Warnw("rate limit exceeded", "caller", key, "uri", r.RequestURI)
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerKey(r *http.Request) string {
	if userID, ok := UserIDFromContext(r.Context()); ok {
		return "user:" + userID.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
