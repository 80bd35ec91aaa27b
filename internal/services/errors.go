// Package services holds the donation business logic: the ledger that
// records verified donations and the orchestrator that drives a completed
// payment through verification, persistence, receipt and notification.
// This file centralizes the service-level error values; translation into
// HTTP status codes happens in the handler layer.
package services

import (
	"errors"

	"github.com/tbourn/go-donation-backend/internal/payments"
)

var (
	// ErrInvalidInput is returned when a donation field is missing or
	// malformed. The wrapping error names the field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidAmount is returned for amounts below the donation minimum.
	ErrInvalidAmount = payments.ErrInvalidAmount

	// ErrInvalidSignature is returned when the gateway signature does not
	// authenticate the (order, payment) pair.
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrAmountMismatch is returned when the submitted amount differs from
	// the amount of the gateway order the payment was made against.
	ErrAmountMismatch = errors.New("amount does not match the order")

	// ErrGatewayUnavailable is returned when the order behind a payment
	// cannot be checked because no gateway is configured.
	ErrGatewayUnavailable = payments.ErrGatewayUnavailable

	// ErrGateway is returned when the order lookup fails at the gateway.
	ErrGateway = payments.ErrGateway

	// ErrDuplicateTransaction is returned when a payment id is already
	// recorded with a different order or amount.
	ErrDuplicateTransaction = errors.New("transaction already recorded with different details")

	// ErrPersistence is returned when the ledger cannot durably record a donation.
	ErrPersistence = errors.New("failed to process donation")

	// ErrDonationNotFound is returned when no donation matches a lookup.
	ErrDonationNotFound = errors.New("donation not found")
)
