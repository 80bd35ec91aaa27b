package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type fakeGateway struct {
	got OrderRequest
	err error

	fetched  Order
	fetchErr error
}

func (f *fakeGateway) Name() string { return "fake" }

func (f *fakeGateway) CreateOrder(_ context.Context, req OrderRequest) (Order, error) {
	f.got = req
	if f.err != nil {
		return Order{}, f.err
	}
	return Order{ID: "order_test", Amount: req.AmountMinor, Currency: req.Currency, Receipt: req.Receipt}, nil
}

func (f *fakeGateway) FetchOrder(_ context.Context, id string) (Order, error) {
	if f.fetchErr != nil {
		return Order{}, f.fetchErr
	}
	o := f.fetched
	o.ID = id
	return o, nil
}

func TestCreateOrder_BelowMinimum(t *testing.T) {
	gw := &fakeGateway{}
	s := NewOrderService(gw, "")
	for _, amt := range []int64{99, 0, -5} {
		if _, err := s.CreateOrder(context.Background(), amt); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("CreateOrder(%d) err = %v; want ErrInvalidAmount", amt, err)
		}
	}
	if gw.got.Currency != "" {
		t.Fatalf("gateway must not be called for invalid amounts")
	}
}

func TestCreateOrder_Minimum_Succeeds(t *testing.T) {
	gw := &fakeGateway{}
	s := NewOrderService(gw, "INR")
	s.Now = func() time.Time { return time.Unix(0, 42) }

	o, err := s.CreateOrder(context.Background(), 100)
	if err != nil {
		t.Fatalf("CreateOrder(100): %v", err)
	}
	if o.ID != "order_test" || o.Amount != 10000 || o.Currency != "INR" || o.Receipt != "receipt_42" {
		t.Fatalf("unexpected order: %+v", o)
	}
	if gw.got.Notes["purpose"] != "donation" {
		t.Fatalf("notes should carry purpose=donation: %+v", gw.got.Notes)
	}
}

func TestCreateOrder_NotConfigured(t *testing.T) {
	s := NewOrderService(nil, "INR")
	if _, err := s.CreateOrder(context.Background(), 500); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("err = %v; want ErrGatewayUnavailable", err)
	}
	var nilSvc *OrderService
	if _, err := nilSvc.CreateOrder(context.Background(), 500); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("nil service err = %v; want ErrGatewayUnavailable", err)
	}
}

func TestCreateOrder_GatewayFailure_IsGeneric(t *testing.T) {
	s := NewOrderService(&fakeGateway{err: errors.New("BAD_REQUEST_ERROR: key_id rzp_live_secret")}, "INR")
	_, err := s.CreateOrder(context.Background(), 500)
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("err = %v; want ErrGateway", err)
	}
	if strings.Contains(err.Error(), "rzp_live_secret") {
		t.Fatalf("gateway diagnostics leaked: %v", err)
	}
}

func TestMockGateway_CreatesOrder(t *testing.T) {
	g := NewMockGateway()
	g.now = func() time.Time { return time.Unix(0, 7) }
	s := NewOrderService(g, "INR")

	o, err := s.CreateOrder(context.Background(), 1000)
	if err != nil {
		t.Fatalf("mock CreateOrder: %v", err)
	}
	if o.ID != "order_7" || o.Amount != 100000 {
		t.Fatalf("unexpected mock order: %+v", o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.CreateOrder(ctx, OrderRequest{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled ctx err = %v", err)
	}
}

func TestFetchOrder_Mappings(t *testing.T) {
	s := NewOrderService(&fakeGateway{fetched: Order{Amount: 100000, Currency: "INR"}}, "INR")
	o, err := s.FetchOrder(context.Background(), "order_1")
	if err != nil || o.ID != "order_1" || o.Amount != 100000 {
		t.Fatalf("FetchOrder = (%+v, %v)", o, err)
	}

	cases := []struct {
		name string
		svc  *OrderService
		want error
	}{
		{"nil service", nil, ErrGatewayUnavailable},
		{"nil gateway", NewOrderService(nil, "INR"), ErrGatewayUnavailable},
		{"unknown id", NewOrderService(&fakeGateway{fetchErr: fmt.Errorf("%w: order_x", ErrOrderNotFound)}, "INR"), ErrOrderNotFound},
		{"provider error", NewOrderService(&fakeGateway{fetchErr: errors.New("502 from api.razorpay.com")}, "INR"), ErrGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.svc.FetchOrder(context.Background(), "order_x")
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v; want %v", err, tc.want)
			}
			if strings.Contains(fmt.Sprint(err), "api.razorpay.com") {
				t.Fatalf("provider diagnostics leaked: %v", err)
			}
		})
	}
}

func TestMockGateway_FetchesIssuedOrders(t *testing.T) {
	g := NewMockGateway()
	ctx := context.Background()

	o, err := g.CreateOrder(ctx, OrderRequest{AmountMinor: 10000, Currency: "INR", Receipt: "receipt_1"})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	got, err := g.FetchOrder(ctx, o.ID)
	if err != nil || got != o {
		t.Fatalf("FetchOrder = (%+v, %v); want %+v", got, err, o)
	}
	if _, err := g.FetchOrder(ctx, "order_never_issued"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("unknown id err = %v", err)
	}
}
