// Package services – Ledger
//
// Ledger is the write path for verified donations. Uniqueness of the gateway
// payment id is decided by the database: a unique-index violation on insert
// turns into an idempotent read of the existing row.

package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-donation-backend/internal/domain"
	"github.com/tbourn/go-donation-backend/internal/repo"
	"github.com/tbourn/go-donation-backend/internal/utils"
)

// Listing bounds for ListPage.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Ledger records and reads donations. It satisfies DonationLedger and is
// also used directly by the receipt and listing handlers.
type Ledger struct {
	DB *gorm.DB
}

// RecordDonation validates in and inserts it as a successful donation.
//
// If the transaction id is already recorded with the same order id and
// amount, the stored record is returned with replayed=true. A mismatch is
// ErrDuplicateTransaction. Other storage failures wrap ErrPersistence.
func (l *Ledger) RecordDonation(ctx context.Context, in domain.DonationInput) (*domain.Donation, bool, error) {
	tr := otel.Tracer("services/Ledger")
	ctx, span := tr.Start(ctx, "RecordDonation",
		trace.WithAttributes(attribute.String("order.id", in.OrderID)),
	)
	defer span.End()

	d, err := NormalizeDonation(in)
	if err != nil {
		return nil, false, err
	}

	err = l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repo.CreateDonation(ctx, tx, d)
	})
	switch {
	case err == nil:
		return d, false, nil
	case errors.Is(err, repo.ErrDuplicate):
		// The failed transaction is gone; read through the base handle.
		existing, gerr := repo.GetDonationByTransactionID(ctx, l.DB, d.TransactionID)
		if gerr != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrPersistence, gerr)
		}
		if existing.OrderID != d.OrderID || existing.Amount != d.Amount {
			return nil, false, ErrDuplicateTransaction
		}
		span.SetAttributes(attribute.Bool("donation.replayed", true))
		return existing, true, nil
	default:
		span.RecordError(err)
		return nil, false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
}

// MarkReceiptSent records a confirmed receipt dispatch for donation id.
func (l *Ledger) MarkReceiptSent(ctx context.Context, id string) error {
	if _, err := repo.MarkReceiptSent(ctx, l.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrDonationNotFound
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Get returns the donation recorded for a gateway payment id.
func (l *Ledger) Get(ctx context.Context, transactionID string) (*domain.Donation, error) {
	d, err := repo.GetDonationByTransactionID(ctx, l.DB, transactionID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrDonationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return d, nil
}

// Page is one page of the donation listing.
type Page struct {
	Items    []domain.Donation `json:"items"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Total    int64             `json:"total"`
}

// ListPage returns donations newest first. page is 1-based; page and size
// are clamped to sane bounds.
func (l *Ledger) ListPage(ctx context.Context, page, size int) (*Page, error) {
	page, size = utils.ClampPage(page, size, defaultPageSize, maxPageSize)

	total, err := repo.CountDonations(ctx, l.DB)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	items, err := repo.ListDonationsPage(ctx, l.DB, utils.Offset(page, size), size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &Page{Items: items, Page: page, PageSize: size, Total: total}, nil
}
