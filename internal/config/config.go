// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, storage, payment gateway credentials, receipt and mail settings,
// the optional CMS mirror, rate limiting and observability.
//
// Behavior:
//   - Every setting has a default; Load never fails on a missing variable.
//   - Unparsable numbers, booleans and durations fall back to the default.
//   - validate then reports every out-of-range value in one joined error.
//
// Production guards: APP_ENV=production refuses PAYMENT_GATEWAY=mock and
// ALLOW_DEMO_SIGNATURE=true.
//
// cmd/server loads a local .env (github.com/joho/godotenv) before calling
// Load; this package reads only the process environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // RECEIPT_TIMEZONE must resolve on minimal images
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string // CORS_ALLOWED_ORIGINS, comma list; empty allows any
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool          // ENABLE_HSTS
	HSTSMaxAge time.Duration // HSTS_MAX_AGE
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-donation-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// PaymentConfig selects and configures the payment gateway.
type PaymentConfig struct {
	Gateway            string // PAYMENT_GATEWAY: razorpay|mock
	KeyID              string // RAZORPAY_KEY_ID
	KeySecret          string // RAZORPAY_KEY_SECRET, also the signature secret
	Currency           string // PAYMENT_CURRENCY
	AllowDemoSignature bool   // ALLOW_DEMO_SIGNATURE, never in production
}

// Configured reports whether live gateway credentials are present.
func (p PaymentConfig) Configured() bool {
	return strings.TrimSpace(p.KeyID) != "" && strings.TrimSpace(p.KeySecret) != ""
}

// MailConfig holds SMTP settings for receipt emails.
type MailConfig struct {
	Host    string        // SMTP_HOST
	Port    int           // SMTP_PORT; 465 means implicit TLS
	User    string        // SMTP_USER
	Pass    string        // SMTP_PASS
	From    string        // MAIL_FROM; defaults to SMTP_USER
	Timeout time.Duration // MAIL_TIMEOUT, per message
}

// Enabled reports whether SMTP credentials are present. Without them the
// service falls back to a logging dispatcher.
func (m MailConfig) Enabled() bool {
	return m.User != "" && m.Pass != ""
}

// SanityConfig configures the best-effort CMS mirror.
type SanityConfig struct {
	ProjectID  string        // SANITY_PROJECT_ID
	Dataset    string        // SANITY_DATASET
	Token      string        // SANITY_TOKEN, write access
	APIVersion string        // SANITY_API_VERSION, date form
	Timeout    time.Duration // MIRROR_TIMEOUT, per write
}

// Enabled reports whether the mirror has enough settings to run.
func (s SanityConfig) Enabled() bool {
	return s.ProjectID != "" && s.Token != ""
}

// ReceiptConfig controls receipt rendering.
type ReceiptConfig struct {
	OrgName  string // ORG_NAME
	Locale   string // RECEIPT_LOCALE, BCP 47
	Timezone string // RECEIPT_TIMEZONE, IANA name
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test
	AppEnv            string        // development|staging|production

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBDriver    string // sqlite|postgres
	DBPath      string // SQLite path
	DatabaseURL string // Postgres DSN

	// Domain
	Payment PaymentConfig
	Mail    MailConfig
	Sanity  SanityConfig
	Receipt ReceiptConfig

	// Admin listing; empty disables the route.
	AdminToken string

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool { return c.AppEnv == "production" }

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		AppEnv:            strings.ToLower(getenv("APP_ENV", "development")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		DBDriver:    strings.ToLower(getenv("DB_DRIVER", "sqlite")),
		DBPath:      getenv("DB_PATH", "donations.db"),
		DatabaseURL: getenv("DATABASE_URL", ""),

		Payment: PaymentConfig{
			Gateway:            strings.ToLower(getenv("PAYMENT_GATEWAY", "razorpay")),
			KeyID:              getenv("RAZORPAY_KEY_ID", ""),
			KeySecret:          getenv("RAZORPAY_KEY_SECRET", ""),
			Currency:           strings.ToUpper(getenv("PAYMENT_CURRENCY", "INR")),
			AllowDemoSignature: getbool("ALLOW_DEMO_SIGNATURE", false),
		},
		Mail: MailConfig{
			Host:    getenv("SMTP_HOST", "smtpout.secureserver.net"),
			Port:    getint("SMTP_PORT", 587),
			User:    getenv("SMTP_USER", ""),
			Pass:    getenv("SMTP_PASS", ""),
			From:    getenv("MAIL_FROM", ""),
			Timeout: getdur("MAIL_TIMEOUT", 10*time.Second),
		},
		Sanity: SanityConfig{
			ProjectID:  getenv("SANITY_PROJECT_ID", ""),
			Dataset:    getenv("SANITY_DATASET", "production"),
			Token:      getenv("SANITY_TOKEN", ""),
			APIVersion: getenv("SANITY_API_VERSION", "2024-01-01"),
			Timeout:    getdur("MIRROR_TIMEOUT", 5*time.Second),
		},
		Receipt: ReceiptConfig{
			OrgName:  getenv("ORG_NAME", "Mahila Swashthya Mission"),
			Locale:   getenv("RECEIPT_LOCALE", "en-IN"),
			Timezone: getenv("RECEIPT_TIMEZONE", "Asia/Kolkata"),
		},

		AdminToken: getenv("ADMIN_TOKEN", ""),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-donation-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	cfg.normalize()
	return cfg, cfg.validate()
}

// normalize folds accepted aliases (LOG_LEVEL=warning, DB_DRIVER=postgresql,
// APP_ENV=prod) into their canonical values and forces an unknown GIN_MODE
// to release.
func (c *Config) normalize() {
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
	if c.DBDriver == "postgresql" {
		c.DBDriver = "postgres"
	}
	if c.AppEnv == "prod" {
		c.AppEnv = "production"
	}
}

// validate reports every invalid setting at once so a misconfigured
// deployment can be fixed in one pass.
func (c Config) validate() error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}
	oneOf := func(v string, allowed ...string) bool {
		for _, a := range allowed {
			if v == a {
				return true
			}
		}
		return false
	}

	check(oneOf(c.LogLevel, "debug", "info", "warn", "error", "fatal", "panic"),
		"LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	check(strings.TrimSpace(c.Port) != "", "PORT must not be empty")
	check(c.ReadTimeout > 0 && c.ReadHeaderTimeout > 0 && c.WriteTimeout > 0 && c.IdleTimeout > 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")

	switch c.DBDriver {
	case "sqlite":
		check(strings.TrimSpace(c.DBPath) != "", "DB_PATH must not be empty")
	case "postgres":
		check(strings.TrimSpace(c.DatabaseURL) != "", "DATABASE_URL must be set when DB_DRIVER=postgres")
	default:
		check(false, "DB_DRIVER must be one of: sqlite, postgres")
	}

	check(oneOf(c.Payment.Gateway, "razorpay", "mock"), "PAYMENT_GATEWAY must be one of: razorpay, mock")
	check(!(c.Payment.Gateway == "mock" && c.IsProduction()), "PAYMENT_GATEWAY=mock is not allowed in production")
	check(!(c.Payment.AllowDemoSignature && c.IsProduction()), "ALLOW_DEMO_SIGNATURE is not allowed in production")
	check(len(c.Payment.Currency) == 3, "PAYMENT_CURRENCY must be a 3-letter ISO code")

	check(c.Mail.Port > 0 && c.Mail.Port <= 65535, "SMTP_PORT must be in [1,65535]")
	check(c.Mail.Timeout > 0, "MAIL_TIMEOUT must be > 0")
	check(c.Sanity.Timeout > 0, "MIRROR_TIMEOUT must be > 0")
	check(strings.TrimSpace(c.Receipt.OrgName) != "", "ORG_NAME must not be empty")
	if _, err := time.LoadLocation(c.Receipt.Timezone); err != nil {
		check(false, "RECEIPT_TIMEZONE must be a valid IANA time zone")
	}

	check(c.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(c.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(c.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")
	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}

// Environment helpers. An unset, empty or unparsable variable yields def;
// validate catches values that parse but are out of range.

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// splitCSV splits a comma list, dropping blanks ("a, ,b" -> [a b]).
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
