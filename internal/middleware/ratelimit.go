package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterSweepEvery = 5 * time.Minute
	limiterIdleAfter  = 10 * time.Minute
)

// clientLimiters keeps one token bucket per client IP.
type clientLimiters struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiters(limit rate.Limit, burst int) *clientLimiters {
	return &clientLimiters{
		buckets: make(map[string]*bucket),
		limit:   limit,
		burst:   burst,
	}
}

func (c *clientLimiters) get(ip string, now time.Time) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter
}

// sweep drops buckets idle for longer than limiterIdleAfter.
func (c *clientLimiters) sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for ip, b := range c.buckets {
		if now.Sub(b.lastSeen) > limiterIdleAfter {
			delete(c.buckets, ip)
			removed++
		}
	}
	return removed
}

func (c *clientLimiters) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets)
}

// RateLimit returns middleware that limits requests per client IP.
//
// For login: RateLimit(rate.Every(12*time.Second), 5) allows a burst of 5,
// then roughly 5 attempts per minute.
func RateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiters := newClientLimiters(limit, burst)

	go func() {
		ticker := time.NewTicker(limiterSweepEvery)
		defer ticker.Stop()
		for now := range ticker.C {
			limiters.sweep(now)
		}
	}()

	retryAfter := "60"
	if limit > 0 && limit != rate.Inf {
		retryAfter = strconv.Itoa(int(1/float64(limit)) + 1)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.get(clientIP(r), time.Now()).Allow() {
				w.Header().Set("Retry-After", retryAfter)
				writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP keys buckets on the connection's address. Forwarding headers are
// ignored here; when the server runs behind a trusted proxy, chi's RealIP
// middleware rewrites RemoteAddr before this runs.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
