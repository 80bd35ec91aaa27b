// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These codes give clients a stable, machine-readable error taxonomy next to
// the human-readable message. Codes are lowercase snake_case. Generic codes
// mirror HTTP status semantics; domain codes name the pipeline step that
// failed so the donation form can branch on them.
//
// Example response:
//
//	{
//	  "success": false,
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_amount",
//	  "error": "amount must be at least 100",
//	  "message": "amount must be at least 100"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Donation pipeline:
	ErrCodeInvalidInput         = "invalid_input"
	ErrCodeInvalidAmount        = "invalid_amount"
	ErrCodeInvalidSignature     = "invalid_signature"
	ErrCodeAmountMismatch       = "amount_mismatch"
	ErrCodeDuplicateTransaction = "duplicate_transaction"
	ErrCodeGatewayUnavailable   = "gateway_unavailable"
	ErrCodeGatewayError         = "gateway_error"
	ErrCodePersistence          = "persistence_error"
	ErrCodeRenderFailed         = "render_failed"
	ErrCodeIdempotencyConflict  = "idempotency_key_conflict"
)
