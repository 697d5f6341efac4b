package httpapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipLimiters holds one token bucket per client IP. Entries idle beyond
// limiterTTL are dropped by the sweep.
type ipLimiters struct {
	mu      sync.Mutex
	perMin  int
	buckets map[string]*ipBucket
}

type ipBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

const limiterTTL = 10 * time.Minute

func newIPLimiters(perMin int) *ipLimiters {
	return &ipLimiters{perMin: perMin, buckets: make(map[string]*ipBucket)}
}

func (l *ipLimiters) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[ip]
	if !ok {
		b = &ipBucket{lim: rate.NewLimiter(rate.Limit(float64(l.perMin)/60.0), l.perMin)}
		l.buckets[ip] = b
	}
	b.seen = time.Now()
	if len(l.buckets) > 1024 {
		l.sweepLocked()
	}
	return b.lim.Allow()
}

func (l *ipLimiters) sweepLocked() {
	cutoff := time.Now().Add(-limiterTTL)
	for ip, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
}

// RateLimitMiddleware rejects clients that exceed the per-minute budget with
// 429. A zero budget disables limiting.
func RateLimitMiddleware(next http.Handler) http.Handler {
	if rateLimitPerMinute <= 0 {
		return next
	}
	limiters := newIPLimiters(rateLimitPerMinute)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !limiters.allow(ip) {
			IncrementRejections("rate_limit")
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded", "too_busy")
			return
		}
		next.ServeHTTP(w, r)
	})
}
