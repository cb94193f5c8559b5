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

const (
	bucketSweepEvery = 5 * time.Minute
	bucketStaleAfter = 10 * time.Minute
)

// bucket is one client's token bucket.
type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// rateLimiter tracks a token bucket per client IP. Stale buckets are swept
// opportunistically from allow, so no background goroutine is needed.
type rateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	refill    rate.Limit
	burst     int
	lastSweep time.Time
}

// newRateLimiter creates a per-IP limiter refilling r tokens per second with
// the given burst capacity.
func newRateLimiter(r float64, burst int) *rateLimiter {
	return &rateLimiter{
		buckets:   make(map[string]*bucket),
		refill:    rate.Limit(r),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// allow consumes one token for ip, creating its bucket on first sight.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > bucketSweepEvery {
		for ip, b := range rl.buckets {
			if now.Sub(b.lastSeen) > bucketStaleAfter {
				delete(rl.buckets, ip)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.refill, rl.burst)}
		rl.buckets[ip] = b
	}
	b.lastSeen = now
	return b.lim.Allow()
}

// rateLimitMiddleware rejects requests from IPs that have exhausted their
// token bucket with a 429 and a Retry-After hint.
func rateLimitMiddleware(rl *rateLimiter, trustProxy bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)
			if !rl.allow(ip) {
				logger.Warn("rate limit exceeded", "ip", ip, "method", r.Method, "path", r.URL.Path)
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the client address used as the rate limiter key.
//
// With trustProxy set, X-Real-IP and then the first X-Forwarded-For entry are
// consulted; values must parse as IPs or they are ignored, so a spoofed
// header cannot pollute the bucket map with arbitrary keys. Without it only
// RemoteAddr is used.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := parseIPHeader(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first := xff
			if head, _, ok := strings.Cut(xff, ","); ok {
				first = head
			}
			if ip := parseIPHeader(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseIPHeader(v string) string {
	if v == "" {
		return ""
	}
	ip := net.ParseIP(strings.TrimSpace(v))
	if ip == nil {
		return ""
	}
	return ip.String()
}
