package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-donation-backend/internal/domain"
)

func newDonation(txn string) *domain.Donation {
	return &domain.Donation{
		DonorName:     "Asha Devi",
		Email:         "asha@example.com",
		Phone:         "9876543210",
		Amount:        1000,
		OrderID:       "order_1",
		TransactionID: txn,
		PaymentStatus: domain.PaymentSuccess,
	}
}

func TestCreateDonation_AssignsIDAndCreatedAt(t *testing.T) {
	db := newTestDB(t, &domain.Donation{})
	ctx := context.Background()

	d := newDonation("pay_1")
	if err := CreateDonation(ctx, db, d); err != nil {
		t.Fatalf("CreateDonation: %v", err)
	}
	if d.ID == "" {
		t.Fatalf("expected generated ID")
	}
	if d.CreatedAt.IsZero() || time.Since(d.CreatedAt) > time.Minute {
		t.Fatalf("unexpected CreatedAt: %v", d.CreatedAt)
	}

	got, err := GetDonationByTransactionID(ctx, db, "pay_1")
	if err != nil {
		t.Fatalf("GetDonationByTransactionID: %v", err)
	}
	if got.ID != d.ID || got.Amount != 1000 || got.PaymentStatus != domain.PaymentSuccess {
		t.Fatalf("unexpected readback: %+v", got)
	}
}

func TestCreateDonation_DuplicateTransaction(t *testing.T) {
	db := newTestDB(t, &domain.Donation{})
	ctx := context.Background()

	if err := CreateDonation(ctx, db, newDonation("pay_dup")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := CreateDonation(ctx, db, newDonation("pay_dup"))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	total, err := CountDonations(ctx, db)
	if err != nil || total != 1 {
		t.Fatalf("expected 1 row, got %d (err=%v)", total, err)
	}
}

func TestGetDonation_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.Donation{})
	ctx := context.Background()

	if _, err := GetDonationByTransactionID(ctx, db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := GetDonation(ctx, db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkReceiptSent_OnlyOnce(t *testing.T) {
	db := newTestDB(t, &domain.Donation{})
	ctx := context.Background()

	d := newDonation("pay_receipt")
	if err := CreateDonation(ctx, db, d); err != nil {
		t.Fatalf("seed: %v", err)
	}

	changed, err := MarkReceiptSent(ctx, db, d.ID)
	if err != nil || !changed {
		t.Fatalf("first MarkReceiptSent = (%v, %v); want (true, nil)", changed, err)
	}
	changed, err = MarkReceiptSent(ctx, db, d.ID)
	if err != nil || changed {
		t.Fatalf("second MarkReceiptSent = (%v, %v); want (false, nil)", changed, err)
	}

	got, _ := GetDonation(ctx, db, d.ID)
	if !got.ReceiptSent {
		t.Fatalf("receipt_sent should be true")
	}

	if _, err := MarkReceiptSent(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestListDonationsPage_NewestFirst(t *testing.T) {
	db := newTestDB(t, &domain.Donation{})
	ctx := context.Background()

	base := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	for i, txn := range []string{"pay_a", "pay_b", "pay_c"} {
		d := newDonation(txn)
		d.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := CreateDonation(ctx, db, d); err != nil {
			t.Fatalf("seed %s: %v", txn, err)
		}
	}

	page, err := ListDonationsPage(ctx, db, 0, 2)
	if err != nil {
		t.Fatalf("ListDonationsPage: %v", err)
	}
	if len(page) != 2 || page[0].TransactionID != "pay_c" || page[1].TransactionID != "pay_b" {
		t.Fatalf("unexpected first page: %+v", page)
	}

	page, err = ListDonationsPage(ctx, db, 2, 2)
	if err != nil || len(page) != 1 || page[0].TransactionID != "pay_a" {
		t.Fatalf("unexpected second page: %+v (err=%v)", page, err)
	}
}
