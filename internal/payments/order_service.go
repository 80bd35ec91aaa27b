// OrderService is the application-facing side of the gateway.
//
// Behavior:
//   - CreateOrder converts whole rupees to paise and creates exactly one
//     gateway order per call, tagged with a unique receipt reference.
//   - FetchOrder reloads an issued order so completions can be checked
//     against the amount that was actually ordered.
//   - Provider errors are logged here with the gateway name and replaced by
//     ErrGateway; callers never see provider text.
//
// Metrics: donation_orders_total{outcome} counts every CreateOrder call.

package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-donation-backend/internal/domain"
	"github.com/tbourn/go-donation-backend/internal/observability"
)

// OrderService turns a donation amount into a gateway order.
type OrderService struct {
	Gateway  Gateway // nil means not configured
	Currency string   // ISO 4217, "INR" unless configured
	Now      func() time.Time
}

// NewOrderService returns an OrderService for gw. currency defaults to INR.
func NewOrderService(gw Gateway, currency string) *OrderService {
	if currency == "" {
		currency = "INR"
	}
	return &OrderService{Gateway: gw, Currency: currency, Now: time.Now}
}

// CreateOrder creates a single gateway order for amount whole rupees.
// No retries: a failed call surfaces as ErrGateway and the client decides.
func (s *OrderService) CreateOrder(ctx context.Context, amount int64) (*Order, error) {
	if amount < domain.MinDonationAmount {
		observability.DonationOrders.WithLabelValues("invalid_amount").Inc()
		return nil, ErrInvalidAmount
	}
	if s == nil || s.Gateway == nil {
		observability.DonationOrders.WithLabelValues("unavailable").Inc()
		return nil, ErrGatewayUnavailable
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	req := OrderRequest{
		AmountMinor: amount * 100,
		Currency:    s.Currency,
		Receipt:     fmt.Sprintf("receipt_%d", now().UnixNano()),
		Notes:       map[string]string{"purpose": "donation"},
	}

	ctx, step := observability.StartStep(ctx, "create_order")
	o, err := s.Gateway.CreateOrder(ctx, req)
	step.End(err)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("gateway", s.Gateway.Name()).
			Int64("amount", amount).
			Msg("gateway order creation failed")
		observability.DonationOrders.WithLabelValues("gateway_error").Inc()
		if errors.Is(err, ErrGatewayUnavailable) {
			return nil, ErrGatewayUnavailable
		}
		return nil, fmt.Errorf("%w: %s", ErrGateway, s.Gateway.Name())
	}

	observability.DonationOrders.WithLabelValues("created").Inc()
	return &o, nil
}

// FetchOrder looks up an order the gateway issued earlier. Unknown ids
// surface as ErrOrderNotFound; every other gateway failure as ErrGateway.
func (s *OrderService) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	if s == nil || s.Gateway == nil {
		return nil, ErrGatewayUnavailable
	}

	ctx, step := observability.StartStep(ctx, "fetch_order")
	o, err := s.Gateway.FetchOrder(ctx, orderID)
	step.End(err)
	switch {
	case err == nil:
		return &o, nil
	case errors.Is(err, ErrOrderNotFound):
		return nil, ErrOrderNotFound
	case errors.Is(err, ErrGatewayUnavailable):
		return nil, ErrGatewayUnavailable
	}
	zerolog.Ctx(ctx).Error().Err(err).
		Str("gateway", s.Gateway.Name()).
		Str("order_id", orderID).
		Msg("gateway order lookup failed")
	return nil, fmt.Errorf("%w: %s", ErrGateway, s.Gateway.Name())
}
