// Package handlers implements the HTTP endpoints of the donation API.
//
// This file holds the response helpers shared by every handler.
//
// Conventions:
//   - Every failure is an ErrorResponse with success=false and a stable code
//     from errors.go; the donation form branches on those fields only.
//   - fail() is the single exit for errors. 5xx responses are logged there
//     with the request logger, so handlers do not log them again.
//   - Receipts leave through pdf(), which sanitizes the download name.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "success": false,
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "amount_mismatch",
//	  "error": "amount does not match the order",
//	  "message": "amount does not match the order"
//	}
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-donation-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope of every endpoint. The donation form
// branches on Success alone, so it is always present and always false.
type ErrorResponse struct {
	Success   bool   `json:"success" example:"false"`
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable machine-readable code, see errors.go.
	Code string `json:"code" example:"invalid_amount"`
	// Safe to show to donors.
	Error string `json:"error" example:"amount must be at least 100"`
	// Same text as Error.
	Message string `json:"message" example:"amount must be at least 100"`
}

// requestID prefers the id stashed by middleware.RequestID and falls back to
// the response header for handlers mounted without it (tests).
func requestID(c *gin.Context) string {
	if id := middleware.GetRequestID(c); id != "" {
		return id
	}
	return c.Writer.Header().Get("X-Request-ID")
}

// fail aborts with an ErrorResponse. Server-side failures are logged with
// the request logger; client errors are already visible in the access log.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: requestID(c),
		Code:      code,
		Error:     msg,
		Message:   msg,
	})
}

// Fail is fail for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes body as JSON with status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// pdf sends data as a download named filename.
func pdf(c *gin.Context, filename string, data []byte) {
	filename = strings.NewReplacer(`"`, "", `\`, "", "\r", "", "\n", "").Replace(filename)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
