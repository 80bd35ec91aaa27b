package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-donation-backend/internal/http/middleware"
)

func TestFail_Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		status  int
		code    string
		msg     string
		wantLog bool
	}{
		{"server error is logged", http.StatusInternalServerError, ErrCodePersistence, "failed to process donation", true},
		{"gateway error is logged", http.StatusBadGateway, ErrCodeGatewayError, "payment gateway error", true},
		{"client error is not", http.StatusConflict, ErrCodeDuplicateTransaction, "already recorded", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)

			r := gin.New()
			r.Use(middleware.RequestID(), func(c *gin.Context) {
				c.Set("logger", &logger)
				c.Next()
			})
			r.POST("/donations", func(c *gin.Context) { fail(c, tc.status, tc.code, tc.msg) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/donations", nil)
			req.Header.Set("X-Request-ID", "rid-42")
			r.ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Fatalf("status = %d; want %d", w.Code, tc.status)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("json: %v", err)
			}
			want := ErrorResponse{RequestID: "rid-42", Code: tc.code, Error: tc.msg, Message: tc.msg}
			if resp != want {
				t.Fatalf("body = %+v; want %+v", resp, want)
			}
			if logged := strings.Contains(buf.String(), `"level":"error"`); logged != tc.wantLog {
				t.Fatalf("logged=%v want %v: %s", logged, tc.wantLog, buf.String())
			}
		})
	}
}

func TestFail_RequestIDFromHeaderOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	c.Writer.Header().Set("X-Request-ID", "rid-hdr")

	Fail(c, http.StatusNotFound, ErrCodeNotFound, "route not found")

	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusNotFound || resp.RequestID != "rid-hdr" || !c.IsAborted() {
		t.Fatalf("code=%d body=%+v aborted=%v", w.Code, resp, c.IsAborted())
	}
}

func TestPDF_Download(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		filename string
		wantCD   string
	}{
		{"donation_receipt_pay_1.pdf", `attachment; filename="donation_receipt_pay_1.pdf"`},
		{"evil\"\r\nX-Injected: 1.pdf", `attachment; filename="evilX-Injected: 1.pdf"`},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/receipt", nil)

		pdf(c, tc.filename, []byte("%PDF-1.3 body"))

		if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
			t.Fatalf("content-type = %q", ct)
		}
		if cd := w.Header().Get("Content-Disposition"); cd != tc.wantCD {
			t.Fatalf("content-disposition = %q; want %q", cd, tc.wantCD)
		}
		if w.Code != http.StatusOK || w.Body.String() != "%PDF-1.3 body" {
			t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
		}
	}
}
