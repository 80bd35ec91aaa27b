package repo

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-donation-backend/internal/domain"
)

func openTempSQLite(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "donations.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db, path
}

func TestOpenSQLite_MissingDirectory(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "missing", "donations.db")
	if db, err := OpenSQLite(bad); err == nil || db != nil {
		t.Fatalf("expected error for %q, got db=%v err=%v", bad, db, err)
	}
}

func TestOpenSQLite_PragmasAndPool(t *testing.T) {
	db, _ := openTempSQLite(t)

	var mode string
	if err := db.Raw("PRAGMA journal_mode;").Row().Scan(&mode); err != nil || !strings.EqualFold(mode, "wal") {
		t.Fatalf("journal_mode = %q (%v); want wal", mode, err)
	}
	for pragma, want := range map[string]int{
		"PRAGMA synchronous;":  1, // NORMAL
		"PRAGMA foreign_keys;": 1,
		"PRAGMA busy_timeout;": 5000,
	} {
		var got int
		if err := db.Raw(pragma).Row().Scan(&got); err != nil || got != want {
			t.Errorf("%s = %d (%v); want %d", pragma, got, err, want)
		}
	}

	sqlDB, _ := db.DB()
	if n := sqlDB.Stats().MaxOpenConnections; n != 10 {
		t.Fatalf("MaxOpenConnections = %d; want 10", n)
	}
}

func TestAutoMigrate_DonationConstraints(t *testing.T) {
	db, _ := openTempSQLite(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, tbl := range []any{&domain.Donation{}, &domain.Idempotency{}} {
		if !db.Migrator().HasTable(tbl) {
			t.Fatalf("table for %T missing", tbl)
		}
	}

	now := time.Now().UTC()
	row := func(id, txn string, amount int64, status domain.PaymentStatus) *domain.Donation {
		return &domain.Donation{
			ID: id, DonorName: "Asha Devi", Email: "asha@example.com", Phone: "9876543210",
			Amount: amount, OrderID: "order_1", TransactionID: txn,
			PaymentStatus: status, CreatedAt: now,
		}
	}

	if err := db.Create(row("d1", "pay_1", 1000, domain.PaymentSuccess)).Error; err != nil {
		t.Fatalf("valid donation rejected: %v", err)
	}
	if err := db.Create(row("d2", "pay_1", 1000, domain.PaymentSuccess)).Error; !IsUniqueViolation(err) {
		t.Fatalf("second row for pay_1 should violate uniqueness, got %v", err)
	}
	if err := db.Create(row("d3", "pay_3", 99, domain.PaymentSuccess)).Error; err == nil {
		t.Fatalf("amount below 100 should fail the check constraint")
	}
	if err := db.Create(row("d4", "pay_4", 500, "refunded")).Error; err == nil {
		t.Fatalf("unknown payment status should fail the check constraint")
	}

	var got domain.Donation
	if err := db.First(&got, "transaction_id = ?", "pay_1").Error; err != nil || got.Amount != 1000 || got.ReceiptSent {
		t.Fatalf("readback = %+v (%v)", got, err)
	}
}

func TestOpen_DriverSelection(t *testing.T) {
	cases := []struct {
		driver, dsn string
		wantErr     string
	}{
		{"oracle", "", "unsupported DB_DRIVER"},
		{"postgres", "", "DATABASE_URL"},
		{"PostgreSQL", "  ", "DATABASE_URL"},
	}
	for _, tc := range cases {
		if _, err := Open(tc.driver, "", tc.dsn); err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Errorf("Open(%q) err = %v; want %q", tc.driver, err, tc.wantErr)
		}
	}

	for _, driver := range []string{"", "sqlite", " SQLite "} {
		db, err := Open(driver, filepath.Join(t.TempDir(), "open.db"), "")
		if err != nil {
			t.Fatalf("Open(%q): %v", driver, err)
		}
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	}
}
