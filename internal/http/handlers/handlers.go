// Package handlers exposes the donation REST endpoints:
//   - POST /orders                              (create a gateway order)
//   - POST /donations                           (complete a donation)
//   - POST /receipts                            (render a receipt from raw fields)
//   - GET  /donations/{transactionId}/receipt   (re-download a recorded receipt)
//   - GET  /donations                           (admin listing)
//
// Handlers are transport-thin: they bind and validate input, call the
// application services, and translate sentinel errors into HTTP responses.
package handlers

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/tbourn/go-donation-backend/internal/domain"
	"github.com/tbourn/go-donation-backend/internal/payments"
	"github.com/tbourn/go-donation-backend/internal/receipt"
	"github.com/tbourn/go-donation-backend/internal/services"
	"github.com/tbourn/go-donation-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// OrderCreator creates gateway orders for a donation amount in whole rupees.
type OrderCreator interface {
	CreateOrder(ctx context.Context, amount int64) (*payments.Order, error)
}

// DonationCompleter drives a completed payment through the pipeline.
type DonationCompleter interface {
	Complete(ctx context.Context, req services.CompleteRequest) (*services.CompleteResult, error)
}

// DonationReader reads recorded donations.
type DonationReader interface {
	Get(ctx context.Context, transactionID string) (*domain.Donation, error)
	ListPage(ctx context.Context, page, size int) (*services.Page, error)
}

//
// Handler wiring
//

// Options carries the optional collaborators of Handlers.
type Options struct {
	// IdempotencyDB stores replayable order responses; nil disables replay.
	IdempotencyDB *gorm.DB
	// IdempotencyTTL bounds how long a stored response is replayed.
	IdempotencyTTL time.Duration
	// AdminToken guards the donation listing; empty disables the endpoint.
	AdminToken string
}

// Handlers groups the donation endpoints.
type Handlers struct {
	orders    OrderCreator
	donations DonationCompleter
	ledger    DonationReader
	receipts  receipt.Renderer

	idemDB     *gorm.DB
	idemTTL    time.Duration
	adminToken string
}

// New constructs Handlers bound to the given services.
func New(orders OrderCreator, donations DonationCompleter, ledger DonationReader, receipts receipt.Renderer, opts Options) *Handlers {
	ttl := opts.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Handlers{
		orders:     orders,
		donations:  donations,
		ledger:     ledger,
		receipts:   receipts,
		idemDB:     opts.IdempotencyDB,
		idemTTL:    ttl,
		adminToken: opts.AdminToken,
	}
}

// RegisterValidators installs the custom binding tags used by the request
// DTOs on gin's validator engine and reports field errors under their JSON
// names:
//
//	in_mobile: a 10-digit Indian mobile number
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v.RegisterValidation("in_mobile", func(fl validator.FieldLevel) bool {
		return services.IsIndianMobile(fl.Field().String())
	})
}

//
// Helpers
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	return utils.ClampPage(
		utils.AtoiDefault(c.Query("page"), defaultPage),
		utils.AtoiDefault(c.Query("page_size"), defaultPageSize),
		defaultPageSize, maxPageSize,
	)
}
