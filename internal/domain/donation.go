// Package domain defines the persistence models for donations and the
// idempotency records that back safe retries. These types are mapped with
// GORM and form the core data layer of the donation service.
package domain

import (
	"time"
)

// PaymentStatus is the gateway-reported state of a donation payment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// Valid reports whether s is one of the known payment states.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentSuccess, PaymentFailed:
		return true
	}
	return false
}

// MinDonationAmount is the smallest accepted donation, in whole rupees.
const MinDonationAmount int64 = 100

// Donation is a completed, signature-verified donation. It is the record of
// truth for the organisation's accounting.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - DonorName / Email / Phone: donor contact details, all required.
//   - Amount: whole rupees, at least MinDonationAmount.
//   - PAN: optional tax identifier printed on 80G receipts.
//   - OrderID: gateway order the payment was made against.
//   - TransactionID: gateway payment id; unique, the idempotency key.
//   - PaymentStatus: pending|success|failed (DB check constraint).
//   - ReceiptSent: flips false → true once, after a confirmed email dispatch.
//   - CreatedAt: insert time, never updated.
type Donation struct {
	ID            string        `json:"id"             gorm:"type:char(36);primaryKey"`
	DonorName     string        `json:"donorName"      gorm:"type:varchar(255);not null"`
	Email         string        `json:"email"          gorm:"type:varchar(255);not null;index"`
	Phone         string        `json:"phone"          gorm:"type:varchar(16);not null"`
	Amount        int64         `json:"amount"         gorm:"not null;check:amount >= 100"`
	PAN           *string       `json:"pan,omitempty"  gorm:"type:varchar(10)"`
	OrderID       string        `json:"orderId"        gorm:"type:varchar(64);not null;index"`
	TransactionID string        `json:"transactionId"  gorm:"type:varchar(64);not null;uniqueIndex:ux_donations_transaction_id"`
	PaymentStatus PaymentStatus `json:"paymentStatus"  gorm:"type:varchar(16);not null;default:'pending';check:payment_status IN ('pending','success','failed')"`
	ReceiptSent   bool          `json:"receiptSent"    gorm:"not null;default:false"`
	CreatedAt     time.Time     `json:"createdAt"      gorm:"not null;index"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// TableName returns the database table name for Donation.
func (Donation) TableName() string { return "donations" }

// DonationInput is the candidate the ledger validates and records.
type DonationInput struct {
	DonorName     string
	Email         string
	Phone         string
	Amount        int64
	PAN           string
	OrderID       string
	TransactionID string
}
