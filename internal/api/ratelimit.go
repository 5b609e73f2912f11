package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Idle buckets are evicted so the map does not grow with every address
// that ever queried the service.
const (
	bucketSweepEvery = 5 * time.Minute
	bucketIdleEvict  = 10 * time.Minute
)

// rateLimiter hands out one token bucket per client IP. Eviction of idle
// buckets piggybacks on allow, so there is no background goroutine to
// stop on shutdown.
type rateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// newRateLimiter builds a limiter refilling perSecond tokens per IP with
// the given burst allowance.
func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	return &rateLimiter{
		buckets:   make(map[string]*bucket),
		limit:     rate.Limit(perSecond),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > bucketSweepEvery {
		rl.sweep(now)
	}

	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[ip] = b
	}
	b.lastSeen = now
	return b.lim.Allow()
}

// sweep drops buckets idle past the eviction threshold. Caller holds mu.
func (rl *rateLimiter) sweep(now time.Time) {
	for ip, b := range rl.buckets {
		if now.Sub(b.lastSeen) > bucketIdleEvict {
			delete(rl.buckets, ip)
		}
	}
	rl.lastSweep = now
}

// rateLimitMiddleware rejects requests whose client IP has exhausted its
// token bucket with 429 and a Retry-After hint.
func rateLimitMiddleware(rl *rateLimiter, trustProxy bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)
			if !rl.allow(ip) {
				logger.Warn("client over rate limit",
					"ip", ip,
					"path", r.URL.Path,
					"method", r.Method,
				)
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, kindRateLimited, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the address used as the rate-limit key.
//
// Proxy headers (X-Real-IP, then the first X-Forwarded-For entry) are
// consulted only when trustProxy is set, and only if they parse as an IP;
// anything a client can spoof must not become a limiter key. Otherwise
// the key is the connection's RemoteAddr.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := headerIP(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
		forwarded := r.Header.Get("X-Forwarded-For")
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			forwarded = first
		}
		if ip := headerIP(forwarded); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func headerIP(raw string) string {
	ip := net.ParseIP(strings.TrimSpace(raw))
	if ip == nil {
		return ""
	}
	return ip.String()
}
