// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Idempotency
// model used to implement safe-retry semantics for POST endpoints.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-donation-backend/internal/domain"
)

// ErrDuplicate indicates that a record already exists for a unique key
// (an idempotency (scope, key) pair or a donation transaction id).
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency returns a non-expired record or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("scope = ? AND key = ? AND expires_at > ?", scope, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency stores the response produced for the request identified
// by fingerprint and returns ErrDuplicate on unique violation. Expired rows
// for the same (scope, key) are purged first so a key can be reused once its
// TTL has elapsed.
func CreateIdempotency(ctx context.Context, db *gorm.DB, scope, key, fingerprint string, status int, body []byte, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	if err := db.WithContext(ctx).
		Where("scope = ? AND key = ? AND expires_at <= ?", scope, key, now).
		Delete(&domain.Idempotency{}).Error; err != nil {
		return nil, err
	}

	rec := &domain.Idempotency{
		ID:          uuid.NewString(),
		Scope:       scope,
		Key:         key,
		Fingerprint: fingerprint,
		Status:      status,
		Body:        body,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// IsUniqueViolation detects unique-constraint violations across drivers.
// glebarez/sqlite often returns plain-text errors instead of
// gorm.ErrDuplicatedKey, and Postgres reports "duplicate key value".
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
