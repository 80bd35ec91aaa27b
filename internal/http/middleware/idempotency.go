// Idempotency-Key support for POST endpoints.
//
// IdempotencyValidator checks the header, stashes the accepted key and asks
// a lookup function whether a stored result exists. Downstream handlers then:
//   - read the key (GetIdempotencyKey) to persist their result under it
//   - serve the stored payload when IsReplay reports a hit
//   - withdraw the replay mark (ClearReplay) when the stored result was
//     produced by a different request body
//
// Behavior:
//   - No header: the request is untouched.
//   - Malformed or oversized key: 400 with code "bad_idempotency_key".
//   - Stored hit: replay and rate-limit bypass flags are set.
//
// Design notes:
//   - Keys are scoped by method and route ("POST /api/v1/orders"), so one key
//     reused on two endpoints never collides.
//   - Persistence stays behind the IdempotencyLookup function type; this file
//     knows nothing about the database.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the client's key. A
// client reuses the same value when retrying the same operation.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed is set on responses served from a stored result.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

// Context keys for idempotency state; read them through the accessors below.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored replay exists
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

// defaultKeyPattern admits RFC 3986 unreserved characters plus ':'.
var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the key accepted by IdempotencyValidator. The
// boolean is false when the request carried no key.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	key := c.GetString(ctxKeyIdemKey)
	return key, key != ""
}

// IsReplay reports whether a stored response exists for this request's key.
func IsReplay(c *gin.Context) bool {
	return c.GetBool(ctxKeyIdemReplay)
}

// ClearReplay withdraws the replay mark, for handlers that find the stored
// response belongs to a different request.
func ClearReplay(c *gin.Context) {
	c.Set(ctxKeyIdemReplay, false)
}

// IdempotencyScope returns the storage scope for c: "<METHOD> <route>".
// Unmatched routes fall back to the raw path.
func IdempotencyScope(c *gin.Context) string {
	route := c.FullPath()
	if route == "" && c.Request != nil {
		route = c.Request.URL.Path
	}
	method := ""
	if c.Request != nil {
		method = c.Request.Method
	}
	return method + " " + route
}

// IdempotencyOptions configures header validation.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Defaults to ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a still-valid stored response exists for
// (scope, key) at now. Errors are treated as a miss.
type IdempotencyLookup func(ctx context.Context, scope, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header when present,
// stashes it, and marks replay plus rate-limit bypass when lookup finds a
// stored response. Invalid keys are rejected with 400. Serving the stored
// payload is left to the handler.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success":    false,
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"error":      "invalid Idempotency-Key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			if exists, _ := lookup(c.Request.Context(), IdempotencyScope(c), key, time.Now().UTC()); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}
