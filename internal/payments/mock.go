package payments

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockGateway fabricates orders locally and remembers them, so completions
// can be checked against the amount that was ordered. It backs the demo
// checkout and is refused by config in production.
type MockGateway struct {
	now func() time.Time

	mu     sync.Mutex
	orders map[string]Order
}

// NewMockGateway returns an empty in-memory gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{now: time.Now, orders: make(map[string]Order)}
}

// Name identifies the gateway in logs.
func (g *MockGateway) Name() string { return "mock" }

// CreateOrder issues an order id derived from the clock.
func (g *MockGateway) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	o := Order{
		ID:       fmt.Sprintf("order_%d", g.now().UnixNano()),
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	}
	g.mu.Lock()
	g.orders[o.ID] = o
	g.mu.Unlock()
	return o, nil
}

// FetchOrder returns an order previously issued by CreateOrder.
func (g *MockGateway) FetchOrder(ctx context.Context, orderID string) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}
