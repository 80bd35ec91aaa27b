// Receipt HTTP handlers.
//
//   - POST /receipts                           renders a receipt from raw fields
//   - GET  /donations/{transactionId}/receipt  renders the recorded donation
//
// Both answer with an application/pdf attachment named
// donation_receipt_<transactionId>.pdf.
//
// Downloading a recorded receipt takes the donor's email (?email=,
// case-insensitive) or the admin bearer token next to the payment id. A
// wrong email gets the same 404 as an unknown id.
package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-donation-backend/internal/receipt"
	"github.com/tbourn/go-donation-backend/internal/services"
)

// ReceiptRequest carries the fields printed on a receipt.
type ReceiptRequest struct {
	DonorName     string `json:"donorName"     binding:"required,max=255" example:"Asha Devi"`
	Email         string `json:"email"         binding:"required,email,max=255" example:"asha@example.com"`
	Phone         string `json:"phone"         binding:"required,max=16" example:"9876543210"`
	Amount        int64  `json:"amount"        binding:"required,gt=0" example:"1000"`
	PAN           string `json:"pan,omitempty" binding:"omitempty,len=10" example:"ABCDE1234F"`
	TransactionID string `json:"transactionId" binding:"required,max=64" example:"pay_1"`
	// Date is RFC 3339 or YYYY-MM-DD; defaults to now.
	Date string `json:"date,omitempty" example:"2026-10-18"`
}

// parseReceiptDate accepts RFC 3339 timestamps and plain dates.
func parseReceiptDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// RenderReceipt godoc
// @ID          renderReceipt
// @Summary     Download a receipt
// @Description Renders a PDF receipt from the supplied donation fields.
// @Tags        Receipts
// @Accept      json
// @Produce     application/pdf
//
// @Param       body  body  handlers.ReceiptRequest  true  "Receipt fields"
//
// @Success     200  {file}    file
// @Header      200  {string}  Content-Disposition  "attachment; filename=\"donation_receipt_<id>.pdf\""
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid input"
// @Failure     500  {object}  handlers.ErrorResponse  "Rendering failed"
// @Router      /receipts [post]
func (h *Handlers) RenderReceipt(c *gin.Context) {
	var req ReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, bindMessage(err))
		return
	}
	date, err := parseReceiptDate(req.Date)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, "date must be RFC 3339 or YYYY-MM-DD")
		return
	}

	in := receipt.Input{
		DonorName:     strings.TrimSpace(req.DonorName),
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		PAN:           strings.TrimSpace(req.PAN),
		Amount:        req.Amount,
		TransactionID: strings.TrimSpace(req.TransactionID),
		Date:          date,
	}
	if in.DonorName == "" || in.TransactionID == "" {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, "donorName and transactionId must not be blank")
		return
	}
	h.writeReceipt(c, in)
}

// DownloadReceipt godoc
// @ID          downloadReceipt
// @Summary     Re-download a recorded receipt
// @Description Renders the receipt for a recorded donation, identified by its gateway payment id.
// @Description The donor's email (or the admin token) must accompany the id.
// @Tags        Receipts
// @Produce     application/pdf
//
// @Param       transactionId  path   string  true   "Gateway payment id"  example(pay_1)
// @Param       email          query  string  false  "Donor email; required unless the admin token is sent"  example(asha@example.com)
// @Param       Authorization  header string  false  "Bearer admin token"
//
// @Success     200  {file}    file
// @Failure     400  {object}  handlers.ErrorResponse  "Missing email"
// @Failure     404  {object}  handlers.ErrorResponse  "Donation not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /donations/{transactionId}/receipt [get]
func (h *Handlers) DownloadReceipt(c *gin.Context) {
	txn := strings.TrimSpace(c.Param("transactionId"))
	if txn == "" {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, "transactionId is required")
		return
	}
	admin := h.adminToken != "" && h.authorized(c)
	email := strings.TrimSpace(c.Query("email"))
	if !admin && email == "" {
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, "email is required")
		return
	}

	d, err := h.ledger.Get(c.Request.Context(), txn)
	if err != nil {
		if errors.Is(err, services.ErrDonationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrDonationNotFound.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodePersistence, "could not load donation")
		return
	}
	if !admin && !sameEmail(email, d.Email) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrDonationNotFound.Error())
		return
	}

	h.writeReceipt(c, services.ReceiptInput(d))
}

// sameEmail compares addresses case-insensitively in constant time.
func sameEmail(a, b string) bool {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (h *Handlers) writeReceipt(c *gin.Context, in receipt.Input) {
	data, err := h.receipts.Render(in)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeRenderFailed, receipt.ErrRender.Error())
		return
	}
	pdf(c, receipt.Filename(in.TransactionID), data)
}
