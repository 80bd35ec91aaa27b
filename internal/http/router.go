// Package httpapi assembles the Gin engine: middleware, the donation
// services built from Deps, and the /api/v1 routes.
//
// Routes (under cfg.APIBasePath):
//
//	POST /orders                              create a gateway order
//	POST /donations                           complete a donation after checkout
//	GET  /donations                           list donations (admin token)
//	GET  /donations/:transactionId/receipt    download a receipt (donor email or admin)
//	POST /receipts                            render a receipt without persisting
//
// Outside the base path: GET /health, GET /metrics and, when enabled,
// GET /swagger/*any.
//
// Notes:
//   - The database handle is shared by the ledger and the idempotency store.
//   - Optional adapters (Mailer, Mirror) are passed as nil interfaces when
//     disabled; the services skip those steps.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-donation-backend/docs"
	"github.com/tbourn/go-donation-backend/internal/config"
	"github.com/tbourn/go-donation-backend/internal/http/handlers"
	"github.com/tbourn/go-donation-backend/internal/http/middleware"
	"github.com/tbourn/go-donation-backend/internal/mirror"
	"github.com/tbourn/go-donation-backend/internal/notify"
	"github.com/tbourn/go-donation-backend/internal/payments"
	"github.com/tbourn/go-donation-backend/internal/receipt"
	"github.com/tbourn/go-donation-backend/internal/repo"
	"github.com/tbourn/go-donation-backend/internal/services"
)

// Deps are the external adapters built from configuration by cmd/server.
// Gateway, Verifier and Receipts are required; a nil Mailer or Mirror skips
// that step.
type Deps struct {
	Gateway  payments.Gateway
	Verifier services.SignatureChecker
	Receipts *receipt.Generator
	Mailer   notify.Dispatcher
	Mirror   mirror.Mirror
}

// RegisterRoutes installs the middleware chain and mounts the API under
// cfg.APIBasePath. Order: tracing, request id, access log, recovery, body
// cap, gzip, metrics, idempotency (so replays can skip the limiter), rate
// limit, CORS, security headers.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, deps Deps, cfg config.Config) error {
	r.HandleMethodNotAllowed = true

	if err := handlers.RegisterValidators(); err != nil {
		return err
	}

	r.Use(
		otelgin.Middleware(cfg.OTEL.ServiceName),
		middleware.RequestID(),
		middleware.RedactingLogger(middleware.RedactOptions{}),
		middleware.Recovery(),
		limitBody(64<<10),
		// Receipts keep their Content-Length; PDFs barely compress.
		gzip.Gzip(gzip.DefaultCompression,
			gzip.WithExcludedExtensions([]string{".pdf"}),
			gzip.WithExcludedPathsRegexs([]string{`/receipts?$`}),
		),
		middleware.Metrics(),
	)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP(), "/health", "/metrics")
	r.Use(
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idempotencyLookup(db)),
		rl.Handler(),
	)
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	ledger := &services.Ledger{DB: db}
	orders := payments.NewOrderService(deps.Gateway, cfg.Payment.Currency)
	donations := &services.DonationService{
		Verifier: deps.Verifier,
		Orders:   orders,
		Ledger:   ledger,
		Mailer:   deps.Mailer,
		Mirror:   deps.Mirror,
		OrgName:  cfg.Receipt.OrgName,
	}
	// A typed nil must not reach the Renderer interface.
	var renderer receipt.Renderer
	if deps.Receipts != nil {
		renderer = deps.Receipts
		donations.Receipts = deps.Receipts
		donations.FormatNumber = deps.Receipts.FormatNumber
	}

	h := handlers.New(orders, donations, ledger, renderer, handlers.Options{
		IdempotencyDB:  db,
		IdempotencyTTL: cfg.IdempotencyTTL,
		AdminToken:     cfg.AdminToken,
	})

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/orders", h.CreateOrder)

		api.POST("/donations", h.CompleteDonation)
		api.GET("/donations", h.ListDonations)
		api.GET("/donations/:transactionId/receipt", h.DownloadReceipt)

		api.POST("/receipts", h.RenderReceipt)
	}
	return nil
}

// idempotencyLookup adapts the repo to middleware.IdempotencyLookup. A miss
// is not an error; other store errors propagate and the validator treats
// them as a miss.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
		rec, err := repo.GetIdempotency(ctx, db, scope, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return rec != nil, err
	}
}

// corsMiddleware allows any origin when origins is empty. The explicit "*"
// also covers same-origin and server-to-server calls that send no Origin.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
		ExposeHeaders: []string{
			"X-Request-ID", "Content-Length", "Content-Disposition", middleware.HeaderIdempotencyReplayed,
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) > 0 {
		conf.AllowOrigins = origins
		return []gin.HandlerFunc{cors.New(conf)}
	}
	conf.AllowAllOrigins = true
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		},
		cors.New(conf),
	}
}

// limitBody caps the request body size using http.MaxBytesReader. Requests
// exceeding the cap cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
