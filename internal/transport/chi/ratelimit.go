package chi

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/tosarchive/internal/domain"
)

// exemptPaths are routes that bypass rate limiting (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimiterRegistry keeps one token bucket per client key.
type LimiterRegistry struct {
	mu       sync.RWMutex
	limiters map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// NewLimiterRegistry creates a registry allowing perMinute requests per client
// with the given burst.
func NewLimiterRegistry(perMinute, burst int) *LimiterRegistry {
	if burst <= 0 {
		burst = perMinute
	}
	return &LimiterRegistry{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether the client identified by key may proceed now.
func (r *LimiterRegistry) Allow(key string) bool {
	return r.getOrCreate(key).Allow()
}

func (r *LimiterRegistry) getOrCreate(key string) *rate.Limiter {
	now := r.now()

	r.mu.RLock()
	cl, ok := r.limiters[key]
	r.mu.RUnlock()
	if ok {
		r.mu.Lock()
		cl.lastSeen = now
		r.mu.Unlock()
		return cl.limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Double-check after acquiring the write lock.
	if cl, ok := r.limiters[key]; ok {
		cl.lastSeen = now
		return cl.limiter
	}
	cl = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst), lastSeen: now}
	r.limiters[key] = cl
	return cl.limiter
}

// Sweep drops clients not seen for longer than idle. Returns the number removed.
func (r *LimiterRegistry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, cl := range r.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(r.limiters, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked clients.
func (r *LimiterRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.limiters)
}

// Run sweeps idle clients every interval until ctx is done.
func (r *LimiterRegistry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep(interval)
		}
	}
}

// RateLimitMiddleware rejects clients over their budget with 429. A nil
// registry disables limiting. rejected may be nil.
func RateLimitMiddleware(reg *LimiterRegistry, rejected prometheus.Counter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if reg == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if !reg.Allow(clientKey(r)) {
				if rejected != nil {
					rejected.Inc()
				}
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, CodeRateLimited, domain.ErrRateLimited.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies the caller by IP. RemoteAddr has already been
// rewritten by the RealIP middleware when running behind a proxy.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
