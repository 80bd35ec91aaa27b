// Prometheus instrumentation for the HTTP layer.
//
// Exposed series:
//   - http_requests_total{method,path,status}          counter
//   - http_request_duration_seconds{method,path}       histogram
//   - http_requests_inflight                           gauge
//   - http_response_size_bytes{method,path}            histogram
//   - http_idempotent_replays_total{path}              counter
//
// Design notes:
//   - The path label is the Gin route template (/donations/:transactionId/receipt),
//     never the raw URL, so payment ids do not become label values.
//   - Collectors register on the default registry at init; /metrics is mounted
//     by the router with promhttp.Handler().
//   - Pipeline-level series (donations_completed_total and friends) live in
//     internal/observability.

package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedPath labels requests that hit no route, so scanners probing
// random URLs add one series instead of one per URL.
const unmatchedPath = "unmatched"

var (
	// httpReqs counts finished requests.
	httpReqs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "path", "status"})

	// Completion renders a PDF and waits on SMTP, hence the long tail.
	httpLat = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
	}, []string{"method", "path"})

	// httpInflight tracks requests between entering and leaving the chain.
	httpInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_inflight",
		Help: "HTTP requests currently being served.",
	})

	// JSON envelopes are a few hundred bytes; receipt PDFs tens of KiB.
	httpRespSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_response_size_bytes",
		Help:    "HTTP response size in bytes.",
		Buckets: prometheus.ExponentialBuckets(256, 2, 13), // 256B .. 1MiB
	}, []string{"method", "path"})

	// httpReplays counts POST /orders retries served from a stored response.
	httpReplays = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_idempotent_replays_total",
		Help: "Requests answered from a stored Idempotency-Key result.",
	}, []string{"path"})
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, httpReplays)
}

// Metrics records request count, latency, size and idempotent replays per
// route.
//
// Behavior:
//   - Labels are taken after the handler ran, so the status is final.
//   - Requests that matched no route are folded into path="unmatched".
//   - A replay is counted only when the idempotency flag survived the
//     handler; a key reused for a different request clears it first.
//
// Mount promhttp.Handler() separately.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		method := c.Request.Method

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
		if IsReplay(c) {
			httpReplays.WithLabelValues(path).Inc()
		}
	}
}
