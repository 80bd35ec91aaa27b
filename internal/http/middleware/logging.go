// Package middleware holds the Gin middleware of the donation API:
// correlation IDs, access logging with PII redaction, panic recovery,
// Prometheus metrics, rate limiting, idempotency keys and security headers.
//
// This file provides the correlation ID, the panic handler and the accessor
// for the request-scoped logger:
//
//   - RequestID() gives every request an X-Request-ID, reusing the caller's
//     when it is well formed. Donation support tickets quote this ID.
//   - Recovery() turns panics into the JSON error envelope (or a bare 500
//     once a PDF has started streaming) and logs the stack.
//   - LoggerFrom() hands handlers and services the logger that
//     RedactingLogger attached, so their lines carry the request ID.
//
// Design notes:
//   - Install in this order so panics and errors are logged with the ID:
//     1) RequestID()
//     2) RedactingLogger()
//     3) Recovery()
//   - The request ID lives under the "requestID" context key and the logger
//     under "logger"; both are read with the typed getters below.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key holding the correlation ID.
	requestIDKey = "requestID"
	// requestIDHeader carries the correlation ID in and out.
	requestIDHeader = "X-Request-ID"
	// loggerKey is the Gin context key holding the request logger.
	loggerKey = "logger"

	// maxRequestIDLength bounds a client-supplied request ID.
	maxRequestIDLength = 128
	// maxQueryLogLength caps the raw query bytes written to the access log.
	maxQueryLogLength = 2048
)

// RequestID attaches a correlation ID to every request.
//
// Behavior:
//   - A well-formed inbound X-Request-ID (see validRequestID) is reused, so a
//     checkout page can correlate its own logs with ours.
//   - Anything else, including an absent header, gets a fresh UUIDv4.
//   - The ID is echoed in the X-Request-ID response header and stored on the
//     Gin context for GetRequestID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// validRequestID accepts at most maxRequestIDLength characters drawn from
// letters, digits and "-_.:". Control characters and spaces are refused so
// an ID can never split a log line or a header.
func validRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLength {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}

// GetRequestID returns the ID stored by RequestID, or "" when RequestID is
// not installed.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Recovery converts a panic into a 500 response.
//
// Behavior:
//   - The panic value and stack are logged at error level with the request ID.
//   - If nothing has been written yet the client gets the standard error
//     envelope with code "internal_error".
//   - If the handler had already started writing (a receipt PDF, say) the
//     status is set and the chain aborted; a JSON body would corrupt the
//     partial response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := GetRequestID(c)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success":    false,
				"request_id": rid,
				"code":       "internal_error",
				"error":      "internal server error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request logger installed by RedactingLogger.
//
// Outside a logged request (unit tests, or a chain without RedactingLogger)
// it falls back to a copy of the global logger, so callers never need a nil
// check:
//
//	middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if lg, ok := c.Value(loggerKey).(*zerolog.Logger); ok {
		return lg
	}
	l := log.With().Logger()
	return &l
}
