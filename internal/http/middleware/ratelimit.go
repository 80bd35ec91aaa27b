// Token-bucket rate limiting per client.
//
// Features:
//   - One golang.org/x/time/rate bucket per key (client IP by default)
//   - Retry-After computed from the reservation, not a fixed guess
//   - Idle buckets swept lazily, at most once per idleBucketTTL
//   - Idempotent replays and listed paths (/health, /metrics) pass untouched
//
// Notes:
//   - Buckets are process-local. Behind several replicas each one enforces
//     its own budget; a shared limiter would be needed for a global one.
//   - The limiter protects the gateway and SMTP quotas from floods. It is not
//     an authorization mechanism.

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// idleBucketTTL is how long an unused bucket is kept before the sweep drops it.
const idleBucketTTL = 10 * time.Minute

// keyFunc selects the identity a request is limited under. It must return
// the same key for every request of one client, e.g. "ip:203.0.113.7".
type keyFunc func(*gin.Context) string

// KeyByIP keys buckets by client IP. Donors are anonymous, so the address
// is the only identity a checkout has.
func KeyByIP() keyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

// bucket pairs a limiter with its last use, for the idle sweep.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local token bucket per key. Buckets idle for
// longer than ttl are swept at most once per ttl.
type RateLimiter struct {
	limit rate.Limit
	burst int
	keyFn keyFunc
	skip  map[string]struct{}
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	ttl       time.Duration
	lastSweep time.Time
}

// NewRateLimiter allows rps requests per second with the given burst per
// key. burst <= 0 is treated as 1 and a nil keyFn means KeyByIP. Requests
// whose raw path is listed in skip are never limited.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc, skip ...string) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByIP()
	}
	rl := &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		skip:    make(map[string]struct{}, len(skip)),
		now:     time.Now,
		buckets: make(map[string]*bucket),
		ttl:     idleBucketTTL,
	}
	for _, p := range skip {
		rl.skip[p] = struct{}{}
	}
	rl.lastSweep = rl.now()
	return rl
}

// limiterFor returns the bucket for key, creating it on first use. Every
// call refreshes lastSeen; once per ttl the whole map is swept for buckets
// idle longer than ttl. A swept client simply starts again with a full burst.
func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.ttl {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// IsRateBypass reports whether IdempotencyValidator marked the request as a
// replay, which is served without spending a token.
func IsRateBypass(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyRateBypass).(bool)
	return b
}

// retryAfter renders wait as whole seconds. A limiter that will never
// refill (rate 0) reports rate.InfDuration; clients are told to come back
// in a minute instead.
func retryAfter(wait time.Duration) string {
	if wait <= 0 || wait == rate.InfDuration || wait > time.Hour {
		return "60"
	}
	return strconv.Itoa(int(math.Ceil(wait.Seconds())))
}

// Handler enforces the budget.
//
// Behavior:
//   - Skipped paths and requests flagged by IdempotencyValidator as replays
//     go straight through without spending a token.
//   - Otherwise one token is reserved. If it is available now the request
//     proceeds; if not the reservation is cancelled (the token is returned)
//     and the client gets 429 with Retry-After from retryAfter.
//   - The 429 body uses the API error envelope with code "rate_limited".
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := rl.skip[c.Request.URL.Path]; ok || IsRateBypass(c) {
			c.Next()
			return
		}

		now := rl.now()
		res := rl.limiterFor(rl.keyFn(c), now).ReserveN(now, 1)
		wait := res.DelayFrom(now)
		if res.OK() && wait == 0 {
			c.Next()
			return
		}
		res.CancelAt(now)
		c.Header("Retry-After", retryAfter(wait))

		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success":    false,
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"error":      "rate limit exceeded",
			"message":    "too many requests, slow down",
		})
	}
}
