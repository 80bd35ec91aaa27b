package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveSecured(t *testing.T, opt SecurityOptions, pre gin.HandlerFunc, mutate func(*http.Request)) http.Header {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/donations/:id/receipt", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/donations/pay_1/receipt", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	h := serveSecured(t, SecurityOptions{}, nil, nil)

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	}
	for k, v := range want {
		if got := h.Get(k); got != v {
			t.Errorf("%s = %q; want %q", k, got, v)
		}
	}
	for _, k := range []string{"Permissions-Policy", "Cache-Control", "Pragma", "Strict-Transport-Security"} {
		if h.Get(k) != "" {
			t.Errorf("unexpected %s: %q", k, h.Get(k))
		}
	}
	if got := h.Get(exposeHeader); got != "Idempotency-Replayed, Content-Disposition" {
		t.Fatalf("expose header without request id = %q", got)
	}
}

func TestSecurityHeaders_ExposeHeaders(t *testing.T) {
	cases := []struct {
		name     string
		existing string
		want     string
	}{
		{"fresh", "", "X-Request-ID, Idempotency-Replayed, Content-Disposition"},
		{"appends", "ETag", "ETag, X-Request-ID, Idempotency-Replayed, Content-Disposition"},
		{"no duplicates", "content-disposition, X-Request-ID", "content-disposition, X-Request-ID, Idempotency-Replayed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pre := func(c *gin.Context) {
				c.Header(requestIDHeader, "rid-1")
				if tc.existing != "" {
					c.Header(exposeHeader, tc.existing)
				}
				c.Next()
			}
			h := serveSecured(t, SecurityOptions{}, pre, nil)
			if got := h.Get(exposeHeader); got != tc.want {
				t.Fatalf("got %q; want %q", got, tc.want)
			}
		})
	}
}

func TestSecurityHeaders_NoStoreAndPolicy(t *testing.T) {
	h := serveSecured(t, SecurityOptions{NoStore: true, EnablePolicy: true}, nil, nil)
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("cache headers missing: %v", h)
	}
	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing: %v", h)
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	viaTLS := func(r *http.Request) { r.TLS = &tls.ConnectionState{} }
	viaProxy := func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "HTTPS") }

	cases := []struct {
		name   string
		opt    SecurityOptions
		mutate func(*http.Request)
		want   string
	}{
		{"disabled", SecurityOptions{HSTSMaxAge: time.Hour}, viaTLS, ""},
		{"plain http", SecurityOptions{EnableHSTS: true}, nil, ""},
		{"tls", SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour}, viaTLS, "max-age=86400; includeSubDomains; preload"},
		{"proxy default age", SecurityOptions{EnableHSTS: true}, viaProxy, "max-age=15552000; includeSubDomains; preload"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := serveSecured(t, tc.opt, nil, tc.mutate)
			if got := h.Get("Strict-Transport-Security"); got != tc.want {
				t.Fatalf("HSTS = %q; want %q", got, tc.want)
			}
		})
	}
}
