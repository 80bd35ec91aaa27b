package payments

import "errors"

var (
	// ErrInvalidAmount is returned when an amount is below domain.MinDonationAmount.
	ErrInvalidAmount = errors.New("amount must be at least 100")
	// ErrGatewayUnavailable is returned when no gateway is configured.
	ErrGatewayUnavailable = errors.New("payment gateway not configured")
	// ErrGateway is returned when the gateway rejects or fails an order
	// request. Provider diagnostics stay in the logs.
	ErrGateway = errors.New("payment gateway request failed")
	// ErrOrderNotFound is returned when the gateway has no order with the
	// requested id.
	ErrOrderNotFound = errors.New("order not found")
)
