// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the structured access logger. It
// scrubs donor PII from request metadata before emitting logs and installs a
// request-scoped zerolog.Logger that the handlers and the donation pipeline
// pick up (via LoggerFrom or zerolog.Ctx on the request context).
//
// It never logs request or response bodies. Query strings and header values
// are scrubbed of UUIDs, emails, PANs and phone numbers; sensitive headers
// (Authorization, Cookie, Set-Cookie, X-Razorpay-Signature, plus custom) are
// replaced entirely.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders lists extra header names whose values are replaced with
// "[REDACTED]". Matching is case-insensitive.
type RedactOptions struct {
	MaskHeaders []string
}

// Patterns for identifiers that must never reach the logs.
var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	panRE   = regexp.MustCompile(`(?i)\b[a-z]{5}[0-9]{4}[a-z]\b`)
	// Digits-only so hex segments of a UUID never match.
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// Redact scrubs identifiers from s. UUIDs go first so the loose phone pattern
// cannot eat their digit groups.
func Redact(s string) string {
	if s == "" {
		return s
	}
	out := uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	out = emailRE.ReplaceAllString(out, "[REDACTED:email]")
	out = panRE.ReplaceAllString(out, "[REDACTED:pan]")
	out = phoneRE.ReplaceAllString(out, "[REDACTED:phone]")
	return out
}

// RedactingLogger returns a Gin middleware that logs each request with
// sensitive values scrubbed, at INFO for 2xx/3xx, WARN for 4xx and ERROR for
// 5xx or when handlers attached errors.
//
// Behavior:
//   - Installs a request-scoped logger carrying request_id, method and path
//     before calling the next handler, so every log line of the request
//     shares those fields.
//   - Logs the matched route template, not the raw path, when one exists.
//   - Attached gin errors are redacted too; they may quote user input.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := map[string]struct{}{
		"authorization":        {},
		"cookie":               {},
		"set-cookie":           {},
		"x-razorpay-signature": {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = Redact(strings.Join(vv, ", "))
		}

		rid := GetRequestID(c)
		if rid == "" {
			rid = c.GetHeader(requestIDHeader)
		}
		l := log.With().
			Str("request_id", rid).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case len(c.Errors) > 0 || status >= 500:
			ev = l.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", Redact(c.Errors.String()))
			}
		case status >= 400:
			ev = l.Warn()
		}

		ev.
			Str("query", truncate(Redact(c.Request.URL.RawQuery), maxQueryLogLength)).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}

// truncate caps s at max bytes and appends an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
