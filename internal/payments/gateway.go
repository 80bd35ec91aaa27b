package payments

import "context"

// Order is a gateway checkout order. Amount is in minor units (paise), the
// unit the checkout widget consumes.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// OrderRequest is what the OrderService asks a gateway to create.
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Gateway creates and looks up orders on a payment provider.
//
// FetchOrder returns ErrOrderNotFound for ids the provider never issued; the
// completion flow relies on it to compare the donated amount with what the
// donor actually paid.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)
	FetchOrder(ctx context.Context, orderID string) (Order, error)
	Name() string
}
