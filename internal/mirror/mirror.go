// Package mirror copies ledger records to the content platform the public
// site reads from. It is a secondary, best-effort write: the ledger in the
// service database stays authoritative and mirror failures are never
// surfaced to donors.
//
// Behavior:
//   - One createIfNotExists mutation per donation, keyed by DocumentID, so a
//     retried or replayed completion never creates a second document.
//   - Each write is bounded by SanityConfig.Timeout.
//   - Non-2xx answers become errors carrying the status and a short body
//     excerpt; the caller logs them.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tbourn/go-donation-backend/internal/config"
	"github.com/tbourn/go-donation-backend/internal/domain"
)

// ErrDisabled is returned by NoopMirror.
var ErrDisabled = errors.New("mirror disabled")

// Mirror writes a donation to a secondary store.
type Mirror interface {
	Mirror(ctx context.Context, d *domain.Donation) error
}

// New returns a SanityMirror when cfg is complete and a NoopMirror otherwise.
func New(cfg config.SanityConfig) Mirror {
	if !cfg.Enabled() {
		return NoopMirror{}
	}
	return NewSanityMirror(cfg)
}

// NoopMirror drops every write.
type NoopMirror struct{}

// Mirror reports ErrDisabled without doing anything.
func (NoopMirror) Mirror(context.Context, *domain.Donation) error { return ErrDisabled }

// SanityMirror writes donation documents through the Sanity mutate API.
type SanityMirror struct {
	endpoint string
	token    string
	timeout  time.Duration
	client   *http.Client
}

// NewSanityMirror builds a mirror for the project, dataset and API version in cfg.
func NewSanityMirror(cfg config.SanityConfig) *SanityMirror {
	return &SanityMirror{
		endpoint: fmt.Sprintf("https://%s.api.sanity.io/v%s/data/mutate/%s", cfg.ProjectID, cfg.APIVersion, cfg.Dataset),
		token:    cfg.Token,
		timeout:  cfg.Timeout,
		client:   &http.Client{},
	}
}

// DocumentID is the mirror document id for a transaction. Writes use
// createIfNotExists, so replays of the same payment are no-ops.
func DocumentID(transactionID string) string {
	return "donation-" + transactionID
}

// donationDoc is the Sanity document shape of a donation.
type donationDoc struct {
	ID            string  `json:"_id"`
	Type          string  `json:"_type"`
	DonorName     string  `json:"donorName"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Amount        int64   `json:"amount"`
	PAN           *string `json:"pan,omitempty"`
	TransactionID string  `json:"transactionId"`
	OrderID       string  `json:"orderId"`
	PaymentStatus string  `json:"paymentStatus"`
	ReceiptSent   bool    `json:"receiptSent"`
	CreatedAt     string  `json:"createdAt"`
}

type mutation struct {
	CreateIfNotExists donationDoc `json:"createIfNotExists"`
}

type mutateRequest struct {
	Mutations []mutation `json:"mutations"`
}

// Mirror posts d as a "donation" document.
func (m *SanityMirror) Mirror(ctx context.Context, d *domain.Donation) error {
	if d == nil {
		return errors.New("mirror: nil donation")
	}
	body, err := json.Marshal(mutateRequest{Mutations: []mutation{{CreateIfNotExists: donationDoc{
		ID:            DocumentID(d.TransactionID),
		Type:          "donation",
		DonorName:     d.DonorName,
		Email:         d.Email,
		Phone:         d.Phone,
		Amount:        d.Amount,
		PAN:           d.PAN,
		TransactionID: d.TransactionID,
		OrderID:       d.OrderID,
		PaymentStatus: string(d.PaymentStatus),
		ReceiptSent:   d.ReceiptSent,
		CreatedAt:     d.CreatedAt.UTC().Format(time.RFC3339),
	}}}})
	if err != nil {
		return err
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.token)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mirror: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mirror: sanity responded %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
