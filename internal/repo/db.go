// Package repo is the GORM persistence layer for donations and idempotency
// records. Both SQLite (pure Go driver, the default) and PostgreSQL are
// supported; every query runs through the OpenTelemetry GORM plugin.
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-donation-backend/internal/domain"
)

// sqlitePragmas favour concurrent readers (admin listing) alongside the
// single writer that records donations.
var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA foreign_keys=ON;",
	"PRAGMA busy_timeout=5000;",
}

// Open selects a driver by name ("sqlite" or "postgres").
func Open(driver, path, dsn string) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		return OpenSQLite(path)
	case "postgres", "postgresql":
		return OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// OpenSQLite opens (or creates) the database file at path. The parent
// directory must exist.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	for _, p := range sqlitePragmas {
		if err := db.Exec(p).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return instrument(db, 10)
}

// OpenPostgres connects with a libpq-style DSN or URL.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("DATABASE_URL must not be empty for postgres")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	return instrument(db, 20)
}

// instrument applies pool limits and installs the OpenTelemetry plugin.
// Query metrics are left to the HTTP and domain collectors.
func instrument(db *gorm.DB, maxOpen int) (*gorm.DB, error) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates or updates the donation and idempotency tables. It is
// additive only: columns added later (e.g. the idempotency fingerprint) get
// their defaults on existing rows.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Donation{},
		&domain.Idempotency{},
	)
}
