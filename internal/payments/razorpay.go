// Razorpay adapter.
//
// Features:
//   - Order creation and lookup through github.com/razorpay/razorpay-go
//   - Request context bounds every SDK call (the SDK takes none)
//   - Unknown order ids reported as ErrOrderNotFound
//
// Notes:
//   - Amounts travel in paise. The SDK decodes JSON numbers as float64,
//     which is exact for any realistic donation.
//   - A call abandoned by ctx keeps running in the SDK until its own HTTP
//     timeout; its result is dropped.

package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"
	rzperrors "github.com/razorpay/razorpay-go/errors"
)

// orderAPI is the subset of the Razorpay SDK order resource we call.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayGateway creates and fetches orders through the Razorpay REST API.
type RazorpayGateway struct {
	orders orderAPI
}

// NewRazorpayGateway returns a gateway for the given API key pair, or
// ErrGatewayUnavailable when either half is missing.
func NewRazorpayGateway(keyID, keySecret string) (*RazorpayGateway, error) {
	if strings.TrimSpace(keyID) == "" || strings.TrimSpace(keySecret) == "" {
		return nil, ErrGatewayUnavailable
	}
	client := razorpay.NewClient(keyID, keySecret)
	return &RazorpayGateway{orders: client.Order}, nil
}

// Name identifies the gateway in logs.
func (g *RazorpayGateway) Name() string { return "razorpay" }

// CreateOrder creates an order for req.AmountMinor paise.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	data := map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}

	body, err := call(ctx, func() (map[string]interface{}, error) {
		return g.orders.Create(data, nil)
	})
	if err != nil {
		return Order{}, err
	}
	return decodeOrder(body, req)
}

// FetchOrder loads an existing order. Razorpay answers unknown ids with a
// BAD_REQUEST_ERROR, which maps to ErrOrderNotFound.
func (g *RazorpayGateway) FetchOrder(ctx context.Context, orderID string) (Order, error) {
	body, err := call(ctx, func() (map[string]interface{}, error) {
		return g.orders.Fetch(orderID, nil, nil)
	})
	if err != nil {
		var bad *rzperrors.BadRequestError
		if errors.As(err, &bad) {
			return Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return Order{}, err
	}
	o, err := decodeOrder(body, OrderRequest{})
	if err != nil {
		return Order{}, err
	}
	if o.ID != orderID {
		return Order{}, fmt.Errorf("razorpay: fetched order %q for %q", o.ID, orderID)
	}
	return o, nil
}

// call runs an SDK request on a separate goroutine so ctx can bound it; the
// SDK itself takes no context.
func call(ctx context.Context, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	type result struct {
		body map[string]interface{}
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		body, err := fn()
		ch <- result{body, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.body, r.err
	}
}

// decodeOrder maps the SDK's generic JSON map onto Order, falling back to
// req for fields the response omits. Numbers arrive as float64 from
// encoding/json.
func decodeOrder(body map[string]interface{}, req OrderRequest) (Order, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return Order{}, fmt.Errorf("razorpay: order response without id")
	}
	o := Order{ID: id, Amount: req.AmountMinor, Currency: req.Currency, Receipt: req.Receipt}
	switch a := body["amount"].(type) {
	case float64:
		o.Amount = int64(a)
	case int64:
		o.Amount = a
	case int:
		o.Amount = int64(a)
	}
	if c, ok := body["currency"].(string); ok && c != "" {
		o.Currency = c
	}
	if r, ok := body["receipt"].(string); ok && r != "" {
		o.Receipt = r
	}
	return o, nil
}
