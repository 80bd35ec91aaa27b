// Command server runs the donation API.
//
// Startup order: .env (optional), config, logger, tracing, database and
// migrations, adapters (gateway, verifier, receipts, mailer, mirror), routes,
// then the HTTP server. SIGINT or SIGTERM drains in-flight requests for up to
// 10s before the tracer and database are closed.
//
// @title       Donation API
// @version     1.0
// @description Order creation, donation completion and receipt downloads for Mahila Swashthya Mission.
// @BasePath    /api/v1
//
// @securityDefinitions.apikey AdminToken
// @in   header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-donation-backend/internal/config"
	httpapi "github.com/tbourn/go-donation-backend/internal/http"
	"github.com/tbourn/go-donation-backend/internal/mirror"
	"github.com/tbourn/go-donation-backend/internal/notify"
	"github.com/tbourn/go-donation-backend/internal/observability"
	"github.com/tbourn/go-donation-backend/internal/payments"
	"github.com/tbourn/go-donation-backend/internal/receipt"
	"github.com/tbourn/go-donation-backend/internal/repo"
	"github.com/tbourn/go-donation-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// main exits non-zero on invalid configuration or when the database cannot
// be opened; a failed tracer setup only disables tracing.
func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := sysutil.ConfigureLogger("error", true, "go-donation-backend")
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := sysutil.ConfigureLogger(cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		logger.Warn().Err(err).Msg("tracing disabled")
		shutdownOTel = func(context.Context) error { return nil }
	}

	db, err := repo.Open(cfg.DBDriver, cfg.DBPath, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate database")
	}

	deps, err := buildDeps(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build dependencies")
	}

	router := gin.New()
	if err := httpapi.RegisterRoutes(router, db, deps, cfg); err != nil {
		logger.Fatal().Err(err).Msg("register routes")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("env", cfg.AppEnv).
			Str("gateway", cfg.Payment.Gateway).
			Str("db", cfg.DBDriver).
			Msg("donation api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-shutdown
	logger.Info().Msg("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracer shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// buildDeps turns configuration into the external adapters. A Razorpay
// gateway without credentials is left nil so order creation answers 503
// instead of failing startup.
func buildDeps(cfg config.Config, logger zerolog.Logger) (httpapi.Deps, error) {
	var deps httpapi.Deps

	switch cfg.Payment.Gateway {
	case "mock":
		deps.Gateway = payments.NewMockGateway()
	default:
		gw, err := payments.NewRazorpayGateway(cfg.Payment.KeyID, cfg.Payment.KeySecret)
		if err != nil {
			logger.Warn().Err(err).Msg("razorpay credentials missing; orders will be rejected")
		} else {
			deps.Gateway = gw
		}
	}

	var opts []payments.VerifierOption
	if cfg.Payment.AllowDemoSignature {
		logger.Warn().Msg("demo payment signatures are accepted")
		opts = append(opts, payments.WithDemoSignatures())
	}
	deps.Verifier = payments.NewSignatureVerifier(cfg.Payment.KeySecret, opts...)

	gen, err := receipt.NewGenerator(cfg.Receipt.OrgName, cfg.Receipt.Locale, cfg.Receipt.Timezone)
	if err != nil {
		return deps, err
	}
	deps.Receipts = gen

	mailer, err := notify.New(cfg.Mail, cfg.Receipt.OrgName)
	if err != nil {
		return deps, err
	}
	if _, mock := mailer.(notify.MockDispatcher); mock {
		logger.Warn().Msg("SMTP not configured; receipt emails are logged only")
	}
	deps.Mailer = mailer

	deps.Mirror = mirror.New(cfg.Sanity)
	return deps, nil
}
