// Security response headers.
//
// Features:
//   - nosniff, frame denial and a no-referrer policy on every response
//   - Optional Permissions-Policy and cross-domain policy
//   - Optional no-store caching headers for donor data and receipts
//   - HSTS only on HTTPS (direct TLS or X-Forwarded-Proto: https)
//   - Exposes the API's custom headers to browser clients via CORS
//
// Notes:
//   - No Content-Security-Policy is set; the Swagger UI shares the chain.

package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// defaultHSTSMaxAge applies when SecurityOptions.HSTSMaxAge is unset.
	defaultHSTSMaxAge = 180 * 24 * time.Hour
	exposeHeader      = "Access-Control-Expose-Headers"
)

// SecurityOptions selects the optional parts of SecurityHeaders.
type SecurityOptions struct {
	EnableHSTS   bool          // only honoured on HTTPS requests
	HSTSMaxAge   time.Duration // <= 0 means 180 days
	NoStore      bool          // donor data and receipts must not be cached
	EnablePolicy bool          // Permissions-Policy and cross-domain policy
}

type headerPair struct{ name, value string }

// SecurityHeaders hardens every response of the API. The header set is
// computed once; per request only HSTS and the exposed header list vary.
//
// No CSP is sent: the optional Swagger UI is HTML served through the same
// chain. Browser checkouts read X-Request-ID, Idempotency-Replayed and
// Content-Disposition, which are added to Access-Control-Expose-Headers.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	static := []headerPair{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
	}
	if opt.EnablePolicy {
		static = append(static,
			headerPair{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
			headerPair{"X-Permitted-Cross-Domain-Policies", "none"},
		)
	}
	if opt.NoStore {
		static = append(static,
			headerPair{"Cache-Control", "no-store"},
			headerPair{"Pragma", "no-cache"},
			headerPair{"Expires", "0"},
		)
	}

	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge/time.Second)) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, p := range static {
			h.Set(p.name, p.value)
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if h.Get(requestIDHeader) != "" {
			appendExposed(h, requestIDHeader)
		}
		appendExposed(h, HeaderIdempotencyReplayed)
		appendExposed(h, "Content-Disposition")

		c.Next()
	}
}

// isHTTPS trusts X-Forwarded-Proto; the service always runs behind a proxy.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func appendExposed(h http.Header, name string) {
	cur := h.Get(exposeHeader)
	if cur == "" {
		h.Set(exposeHeader, name)
		return
	}
	for _, part := range strings.Split(cur, ",") {
		if strings.EqualFold(strings.TrimSpace(part), name) {
			return
		}
	}
	h.Set(exposeHeader, cur+", "+name)
}
