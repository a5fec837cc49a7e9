package api

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Token-bucket rate limiting per client IP. A document agent tends to
// fire short bursts (list, get, update, save), so each caller gets a
// burst allowance up front which refills continuously at the
// configured per-minute rate.

// RateLimiterConfig sets the sustained rate and the burst allowance.
type RateLimiterConfig struct {
	RequestsPerMinute int
	BurstSize         int
}

// clientBucket is one caller's remaining allowance. Tokens are
// fractional: refill accrues for the time elapsed between requests.
type clientBucket struct {
	mu       sync.Mutex
	tokens   float64
	lastSeen time.Time
}

// RateLimiter tracks allowances per client IP and prunes callers that
// have gone quiet.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket

	burst     float64
	perSecond float64
	limit     int
	idleTTL   time.Duration
}

// NewRateLimiter builds a limiter from cfg and starts its background
// pruning loop.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		clients:   make(map[string]*clientBucket),
		burst:     float64(cfg.BurstSize),
		perSecond: float64(cfg.RequestsPerMinute) / 60,
		limit:     cfg.RequestsPerMinute,
		idleTTL:   5 * time.Minute,
	}
	go rl.prune()
	return rl
}

func (rl *RateLimiter) client(ip string) *clientBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[ip]
	if !ok {
		b = &clientBucket{tokens: rl.burst, lastSeen: time.Now()}
		rl.clients[ip] = b
	}
	return b
}

// take refills b for the elapsed time and tries to consume one token.
// It reports whether the request fits, the remaining whole tokens, and
// when the allowance is full again.
func (rl *RateLimiter) take(b *clientBucket) (ok bool, remaining int, full time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens = min(rl.burst, b.tokens+now.Sub(b.lastSeen).Seconds()*rl.perSecond)
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		ok = true
	}
	secondsToFull := (rl.burst - b.tokens) / rl.perSecond
	return ok, int(b.tokens), now.Add(time.Duration(secondsToFull * float64(time.Second)))
}

// Allow reports whether one more request from ip fits its allowance.
func (rl *RateLimiter) Allow(ip string) bool {
	ok, _, _ := rl.take(rl.client(ip))
	return ok
}

// prune drops buckets idle past the TTL so the map does not grow with
// every IP ever seen.
func (rl *RateLimiter) prune() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-rl.idleTTL)
		rl.mu.Lock()
		for ip, b := range rl.clients {
			b.mu.Lock()
			idle := b.lastSeen.Before(cutoff)
			b.mu.Unlock()
			if idle {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Middleware enforces the allowance and reports it through the usual
// X-RateLimit-* headers. A denied request answers 429 with Retry-After
// so a well-behaved agent can back off instead of hammering.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, remaining, full := rl.take(rl.client(clientIP(r)))

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(full.Unix(), 10))

		if !ok {
			retry := int(time.Until(full).Seconds()) + 1
			h.Set("Retry-After", strconv.Itoa(retry))
			respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
				fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", retry))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP picks the address to limit on: the first entry of
// X-Forwarded-For, then X-Real-IP, then RemoteAddr without its port.
// Proxy headers are client-controlled, so values that do not parse as
// an IP are ignored rather than trusted.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		if net.ParseIP(real) != nil {
			return real
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if net.ParseIP(host) != nil {
		return host
	}
	return "unknown"
}
