package domain

import (
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Donation{}, &Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedDonation(id, txn string) *Donation {
	return &Donation{
		ID:            id,
		DonorName:     "Asha Devi",
		Email:         "asha@example.com",
		Phone:         "9876543210",
		Amount:        1000,
		OrderID:       "order_1",
		TransactionID: txn,
		PaymentStatus: PaymentSuccess,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestTableNames(t *testing.T) {
	if got := (Donation{}).TableName(); got != "donations" {
		t.Fatalf("Donation.TableName() = %q", got)
	}
	if got := (Idempotency{}).TableName(); got != "idempotency" {
		t.Fatalf("Idempotency.TableName() = %q", got)
	}
}

func TestPaymentStatus_Valid(t *testing.T) {
	for _, s := range []PaymentStatus{PaymentPending, PaymentSuccess, PaymentFailed} {
		if !s.Valid() {
			t.Fatalf("%q should be valid", s)
		}
	}
	if PaymentStatus("refunded").Valid() || PaymentStatus("").Valid() {
		t.Fatalf("unknown statuses must be invalid")
	}
}

func TestDonation_Migration_UniqueTransactionID(t *testing.T) {
	db := newTestDB(t)

	if !db.Migrator().HasIndex(&Donation{}, "ux_donations_transaction_id") {
		t.Fatalf("expected unique index ux_donations_transaction_id")
	}
	if err := db.Create(seedDonation("d1", "pay_1")).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := db.Create(seedDonation("d2", "pay_1")).Error; err == nil {
		t.Fatalf("expected unique violation for duplicate transaction_id")
	}

	var n int64
	db.Model(&Donation{}).Where("transaction_id = ?", "pay_1").Count(&n)
	if n != 1 {
		t.Fatalf("expected exactly one row, got %d", n)
	}
}

func TestDonation_Migration_CheckConstraints(t *testing.T) {
	db := newTestDB(t)

	low := seedDonation("d-low", "pay_low")
	low.Amount = 99
	if err := db.Create(low).Error; err == nil {
		t.Fatalf("expected amount check constraint to reject 99")
	}

	bad := seedDonation("d-status", "pay_status")
	bad.PaymentStatus = "refunded"
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected payment_status check constraint to reject unknown status")
	}
}

func TestDonation_ReceiptSentDefaultsFalse(t *testing.T) {
	db := newTestDB(t)

	if err := db.Create(seedDonation("d1", "pay_default")).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	var got Donation
	if err := db.First(&got, "id = ?", "d1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ReceiptSent {
		t.Fatalf("receipt_sent should default to false")
	}
	if got.PAN != nil {
		t.Fatalf("PAN should be nil when not provided, got %q", *got.PAN)
	}
}

func TestIdempotency_Migration_UniqueScopeKey(t *testing.T) {
	db := newTestDB(t)

	now := time.Now().UTC()
	rec := func(id string) *Idempotency {
		return &Idempotency{
			ID:        id,
			Scope:     "orders",
			Key:       "k1",
			Status:    200,
			Body:      []byte(`{"id":"order_1"}`),
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		}
	}
	if err := db.Create(rec("i1")).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := db.Create(rec("i2")).Error; err == nil {
		t.Fatalf("expected unique violation on (scope, key)")
	}

	other := rec("i3")
	other.Scope = "receipts"
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("same key in another scope should insert: %v", err)
	}
}
