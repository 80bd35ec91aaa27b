// Donation field rules.
//
// Rules applied by NormalizeDonation:
//   - donorName: trimmed, at least 2 characters
//   - email: trimmed, syntactically valid (validator "email")
//   - phone: 10 digits starting 6-9, no country prefix
//   - pan: optional; upper-cased, AAAAA9999A
//   - orderId, paymentId: trimmed, non-empty
//   - amount: at least domain.MinDonationAmount rupees
//
// The same mobile rule backs the "in_mobile" binding tag registered by the
// handlers, so the HTTP layer and the ledger cannot disagree.

package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-donation-backend/internal/domain"
)

// Field patterns. Email syntax is left to validator's "email" rule.
var (
	mobileRe = regexp.MustCompile(`^[6-9]\d{9}$`)
	panRe    = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

	validate = validator.New()
)

// IsIndianMobile reports whether s is a 10-digit Indian mobile number.
func IsIndianMobile(s string) bool { return mobileRe.MatchString(s) }

// IsPAN reports whether s is a well-formed, upper-case PAN.
func IsPAN(s string) bool { return panRe.MatchString(s) }

// NormalizeDonation trims and canonicalizes in and checks every field. It
// returns the candidate record or an error wrapping ErrInvalidInput or
// ErrInvalidAmount.
func NormalizeDonation(in domain.DonationInput) (*domain.Donation, error) {
	name := strings.TrimSpace(in.DonorName)
	email := strings.TrimSpace(in.Email)
	phone := strings.TrimSpace(in.Phone)
	pan := strings.ToUpper(strings.TrimSpace(in.PAN))
	orderID := strings.TrimSpace(in.OrderID)
	txnID := strings.TrimSpace(in.TransactionID)

	switch {
	case utf8.RuneCountInString(name) < 2:
		return nil, fmt.Errorf("%w: donorName must be at least 2 characters", ErrInvalidInput)
	case validate.Var(email, "required,email") != nil:
		return nil, fmt.Errorf("%w: email is not a valid address", ErrInvalidInput)
	case !IsIndianMobile(phone):
		return nil, fmt.Errorf("%w: phone must be a 10-digit mobile number", ErrInvalidInput)
	case pan != "" && !IsPAN(pan):
		return nil, fmt.Errorf("%w: pan is not a valid PAN", ErrInvalidInput)
	case orderID == "":
		return nil, fmt.Errorf("%w: orderId is required", ErrInvalidInput)
	case txnID == "":
		return nil, fmt.Errorf("%w: paymentId is required", ErrInvalidInput)
	case in.Amount < domain.MinDonationAmount:
		return nil, ErrInvalidAmount
	}

	d := &domain.Donation{
		DonorName:     name,
		Email:         email,
		Phone:         phone,
		Amount:        in.Amount,
		OrderID:       orderID,
		TransactionID: txnID,
		PaymentStatus: domain.PaymentSuccess,
	}
	if pan != "" {
		d.PAN = &pan
	}
	return d, nil
}
