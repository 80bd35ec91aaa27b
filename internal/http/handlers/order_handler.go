// Order HTTP handler.
//
// POST /orders reserves an amount with the payment gateway before checkout.
//
// Idempotency:
// When the client supplies an Idempotency-Key and a response for the same key
// and route is still stored, that response is replayed byte for byte with
// `Idempotency-Replayed: true` and no second gateway order is created.
// Replays require the same request: each stored response carries a
// fingerprint of the canonical payload, and reusing a key for a different
// amount answers 409 `idempotency_key_conflict` without calling the gateway.
package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-donation-backend/internal/http/middleware"
	"github.com/tbourn/go-donation-backend/internal/payments"
	"github.com/tbourn/go-donation-backend/internal/repo"
)

// CreateOrderRequest is the JSON payload for creating an order.
type CreateOrderRequest struct {
	// Amount in whole rupees, at least 100.
	Amount int64 `json:"amount" example:"1000"`
}

// fingerprint identifies the request for idempotent replay.
func (r CreateOrderRequest) fingerprint() string {
	sum := sha256.Sum256([]byte("amount=" + strconv.FormatInt(r.Amount, 10)))
	return hex.EncodeToString(sum[:])
}

// CreateOrder godoc
// @ID          createOrder
// @Summary     Create a payment order
// @Description Creates a gateway order for the amount (whole rupees). The returned amount is in paise, ready for the checkout widget.
// @Description Supports idempotency via the Idempotency-Key header (same key → same order).
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(checkout-7a8d9f4c)
// @Param       body             body    handlers.CreateOrderRequest  true  "Order payload"
//
// @Success     200  {object}  payments.Order
// @Header      200  {string}  Idempotency-Replayed  "true when served from a stored response"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid amount"
// @Failure     409  {object}  handlers.ErrorResponse  "Idempotency-Key already used for a different amount"
// @Failure     502  {object}  handlers.ErrorResponse  "Gateway error"
// @Failure     503  {object}  handlers.ErrorResponse  "Gateway not configured"
// @Router      /orders [post]
func (h *Handlers) CreateOrder(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, "invalid JSON body")
		return
	}

	idemKey, _ := middleware.GetIdempotencyKey(c)
	scope := middleware.IdempotencyScope(c)
	fingerprint := req.fingerprint()
	if idemKey != "" && h.idemDB != nil {
		if rec, err := repo.GetIdempotency(ctx, h.idemDB, scope, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if !rec.Matches(fingerprint) {
				middleware.ClearReplay(c)
				fail(c, http.StatusConflict, ErrCodeIdempotencyConflict, "Idempotency-Key already used for a different request")
				return
			}
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			c.Data(rec.Status, "application/json; charset=utf-8", rec.Body)
			return
		}
	}

	order, err := h.orders.CreateOrder(ctx, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrInvalidAmount):
			fail(c, http.StatusBadRequest, ErrCodeInvalidAmount, payments.ErrInvalidAmount.Error())
		case errors.Is(err, payments.ErrGatewayUnavailable):
			fail(c, http.StatusServiceUnavailable, ErrCodeGatewayUnavailable, payments.ErrGatewayUnavailable.Error())
		default:
			fail(c, http.StatusBadGateway, ErrCodeGatewayError, payments.ErrGateway.Error())
		}
		return
	}

	// Store path: best effort, a lost record only costs a second order.
	if idemKey != "" && h.idemDB != nil {
		if body, err := json.Marshal(order); err == nil {
			if _, err := repo.CreateIdempotency(ctx, h.idemDB, scope, idemKey, fingerprint, http.StatusOK, body, h.idemTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
				middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
			}
		}
	}

	ok(c, http.StatusOK, order)
}
