// Donation HTTP handlers.
//
//   - POST /donations                          completes a paid donation
//   - GET  /donations                          admin listing (Bearer token)
//
// Completion never answers `success: true` unless the ledger committed the
// record; receipt and email problems after that point do not change the
// response.
package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-donation-backend/internal/domain"
	"github.com/tbourn/go-donation-backend/internal/services"
	"github.com/tbourn/go-donation-backend/internal/utils"
)

//
// DTOs
//

// CompleteDonationRequest is the checkout completion payload.
type CompleteDonationRequest struct {
	DonorName string `json:"donorName" binding:"required,min=2,max=255" example:"Asha Devi"`
	Email     string `json:"email"     binding:"required,email,max=255" example:"asha@example.com"`
	Phone     string `json:"phone"     binding:"required,in_mobile" example:"9876543210"`
	// Amount in whole rupees; must match the order amount.
	Amount    int64  `json:"amount" example:"1000"`
	PAN       string `json:"pan,omitempty" binding:"omitempty,len=10" example:"ABCDE1234F"`
	OrderID   string `json:"orderId"   binding:"required,max=64" example:"order_1"`
	PaymentID string `json:"paymentId" binding:"required,max=64" example:"pay_1"`
	Signature string `json:"signature" binding:"required" example:"9e1b…"`
}

// DonationResponse is the success body of POST /donations.
type DonationResponse struct {
	Success bool             `json:"success" example:"true"`
	Data    *domain.Donation `json:"data"`
	// Replayed is true when the payment had already been recorded.
	Replayed bool `json:"replayed,omitempty"`
}

// ListDonationsResponse wraps a page of donations and pagination information.
type ListDonationsResponse struct {
	Donations  []domain.Donation `json:"donations"`
	Pagination Pagination        `json:"pagination"`
}

//
// Handlers
//

// CompleteDonation godoc
// @ID          completeDonation
// @Summary     Complete a donation
// @Description Verifies the gateway signature and the order amount, records the donation exactly once, then emails the receipt.
// @Description Re-submitting the same paymentId with the same details returns the recorded donation.
// @Tags        Donations
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CompleteDonationRequest  true  "Completion payload"
//
// @Success     200  {object}  handlers.DonationResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid input, amount or signature, or amount differs from the order"
// @Failure     409  {object}  handlers.ErrorResponse  "paymentId already recorded with different details"
// @Failure     500  {object}  handlers.ErrorResponse  "Donation not recorded"
// @Failure     502  {object}  handlers.ErrorResponse  "Order lookup failed"
// @Failure     503  {object}  handlers.ErrorResponse  "Gateway not configured"
// @Router      /donations [post]
func (h *Handlers) CompleteDonation(c *gin.Context) {
	var req CompleteDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, bindMessage(err))
		return
	}

	res, err := h.donations.Complete(c.Request.Context(), services.CompleteRequest{
		DonorName: req.DonorName,
		Email:     req.Email,
		Phone:     req.Phone,
		Amount:    req.Amount,
		PAN:       req.PAN,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAmountMismatch):
			fail(c, http.StatusBadRequest, ErrCodeAmountMismatch, services.ErrAmountMismatch.Error())
		case errors.Is(err, services.ErrInvalidAmount):
			fail(c, http.StatusBadRequest, ErrCodeInvalidAmount, services.ErrInvalidAmount.Error())
		case errors.Is(err, services.ErrInvalidInput):
			fail(c, http.StatusBadRequest, ErrCodeInvalidInput, err.Error())
		case errors.Is(err, services.ErrInvalidSignature):
			fail(c, http.StatusBadRequest, ErrCodeInvalidSignature, services.ErrInvalidSignature.Error())
		case errors.Is(err, services.ErrDuplicateTransaction):
			fail(c, http.StatusConflict, ErrCodeDuplicateTransaction, services.ErrDuplicateTransaction.Error())
		case errors.Is(err, services.ErrGatewayUnavailable):
			fail(c, http.StatusServiceUnavailable, ErrCodeGatewayUnavailable, services.ErrGatewayUnavailable.Error())
		case errors.Is(err, services.ErrGateway):
			fail(c, http.StatusBadGateway, ErrCodeGatewayError, services.ErrGateway.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodePersistence, services.ErrPersistence.Error())
		}
		return
	}

	ok(c, http.StatusOK, DonationResponse{Success: true, Data: res.Donation, Replayed: res.Replayed})
}

// ListDonations godoc
// @ID          listDonations
// @Summary     List donations (admin)
// @Description Returns recorded donations newest first. Requires the admin bearer token; answers 404 when no token is configured.
// @Tags        Admin
// @Produce     json
// @Security    AdminToken
//
// @Param       Authorization  header  string  true  "Bearer admin token"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListDonationsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or wrong token"
// @Failure     404  {object}  handlers.ErrorResponse  "Listing disabled"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /donations [get]
func (h *Handlers) ListDonations(c *gin.Context) {
	if h.adminToken == "" {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "resource not found")
		return
	}
	if !h.authorized(c) {
		c.Header("WWW-Authenticate", `Bearer realm="admin"`)
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "admin token required")
		return
	}

	page, pageSize := clampPagination(c)
	p, err := h.ledger.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodePersistence, "could not list donations")
		return
	}

	totalPages := utils.TotalPages(p.Total, p.PageSize)
	items := p.Items
	if items == nil {
		items = []domain.Donation{}
	}
	ok(c, http.StatusOK, ListDonationsResponse{
		Donations: items,
		Pagination: Pagination{
			Page:       p.Page,
			PageSize:   p.PageSize,
			Total:      p.Total,
			TotalPages: totalPages,
			HasNext:    p.Page < totalPages,
		},
	})
}

// authorized checks the Bearer token in constant time.
func (h *Handlers) authorized(c *gin.Context) bool {
	const prefix = "Bearer "
	auth := c.GetHeader("Authorization")
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return false
	}
	got := strings.TrimSpace(auth[len(prefix):])
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.adminToken)) == 1
}

// bindMessage turns a binding failure into a client-safe message naming the
// offending field.
func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fe.Field() + " is required"
		case "in_mobile":
			return "phone must be a 10-digit mobile number"
		case "email":
			return "email is not a valid address"
		default:
			return fe.Field() + " is invalid"
		}
	}
	return "invalid JSON body"
}
