// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Donation
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only
// persistence and query composition.
//
// Error semantics:
//   - When a donation is not found, functions return ErrNotFound.
//   - A second insert for an existing transaction id returns ErrDuplicate;
//     the unique index on transaction_id decides, not a prior read.
//   - On other DB errors the raw gorm error is propagated.
//
// Usage:
//
//	d, err := repo.CreateDonation(ctx, tx, donation)
//	if errors.Is(err, repo.ErrDuplicate) {
//	    existing, _ := repo.GetDonationByTransactionID(ctx, db, donation.TransactionID)
//	    // compare and replay
//	}
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-donation-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateDonation inserts d. ID and CreatedAt are assigned when empty.
// A unique violation on transaction_id is reported as ErrDuplicate.
func CreateDonation(ctx context.Context, db *gorm.DB, d *domain.Donation) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetDonationByTransactionID fetches the donation recorded for a gateway
// payment id, or ErrNotFound.
func GetDonationByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*domain.Donation, error) {
	var d domain.Donation
	err := db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDonation fetches a donation by primary key, or ErrNotFound.
func GetDonation(ctx context.Context, db *gorm.DB, id string) (*domain.Donation, error) {
	var d domain.Donation
	if err := db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// MarkReceiptSent flips receipt_sent from false to true for id. It reports
// whether this call performed the transition; a second call is a no-op that
// returns (false, nil). A missing id returns ErrNotFound.
func MarkReceiptSent(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Donation{}).
		Where("id = ? AND receipt_sent = ?", id, false).
		Update("receipt_sent", true)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	if _, err := GetDonation(ctx, db, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}
	return false, nil
}

// CountDonations returns the total number of donation rows.
func CountDonations(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Donation{}).Count(&total).Error
	return total, err
}

// ListDonationsPage returns a page of donations, newest first. Ties on
// created_at are broken by id so pages are stable.
func ListDonationsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Donation, error) {
	var out []domain.Donation
	err := db.WithContext(ctx).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
