// Package services – DonationService
//
// DonationService drives a completed payment through the pipeline:
//
//	Initiated -> SignatureChecked -> Persisted -> ReceiptRendered -> Notified -> Complete
//
// Between the signature check and persistence the gateway order is fetched;
// its amount must equal the submitted amount, since the signature covers
// only the order and payment ids.
//
// Any failure up to and including persistence abandons the attempt with no
// durable effect. Past persistence the donation is a fact: receipt, email and
// mirror failures are logged and counted but never change the outcome, and
// the work no longer follows the caller's cancellation.

package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-donation-backend/internal/domain"
	"github.com/tbourn/go-donation-backend/internal/mirror"
	"github.com/tbourn/go-donation-backend/internal/notify"
	"github.com/tbourn/go-donation-backend/internal/observability"
	"github.com/tbourn/go-donation-backend/internal/payments"
	"github.com/tbourn/go-donation-backend/internal/receipt"
	"github.com/tbourn/go-donation-backend/internal/sysutil"
)

// State is a stage of the completion pipeline.
type State string

// Pipeline states, in order. StateAbandoned is terminal and only reachable
// before StatePersisted.
const (
	StateInitiated        State = "initiated"
	StateSignatureChecked State = "signature_checked"
	StatePersisted        State = "persisted"
	StateReceiptRendered  State = "receipt_rendered"
	StateNotified         State = "notified"
	StateComplete         State = "complete"
	StateAbandoned        State = "abandoned"
)

// SignatureChecker authenticates a gateway completion event. Implementations
// must compare in constant time; see payments.SignatureVerifier.
type SignatureChecker interface {
	Verify(orderID, paymentID, signature string) bool
}

// OrderLookup resolves the gateway order a payment was made against.
type OrderLookup interface {
	FetchOrder(ctx context.Context, orderID string) (*payments.Order, error)
}

// DonationLedger is the persistence the orchestrator needs. RecordDonation
// reports replayed=true when the payment id was already stored with the same
// details; MarkReceiptSent is called at most once per fresh donation.
type DonationLedger interface {
	RecordDonation(ctx context.Context, in domain.DonationInput) (*domain.Donation, bool, error)
	MarkReceiptSent(ctx context.Context, id string) error
}

// CompleteRequest is the completion event submitted after checkout.
type CompleteRequest struct {
	DonorName string
	Email     string
	Phone     string
	Amount    int64
	PAN       string
	OrderID   string
	PaymentID string
	Signature string
}

// CompleteResult describes a recorded donation.
type CompleteResult struct {
	Donation *domain.Donation
	State    State
	Replayed bool
	// ReceiptRendered and Notified report the best-effort steps; the
	// persisted flag is Donation.ReceiptSent.
	ReceiptRendered bool
	Notified        bool
}

// DonationService orchestrates donation completion.
//
// Verifier, Orders and Ledger are required for any completion to succeed.
// Receipts, Mailer and Mirror are optional; a nil one skips its step.
// FormatNumber renders the receipt number from the donation's sequence.
type DonationService struct {
	Verifier SignatureChecker
	Orders   OrderLookup // nil rejects every completion with ErrGatewayUnavailable
	Ledger   DonationLedger
	Receipts receipt.Renderer
	Mailer   notify.Dispatcher
	Mirror   mirror.Mirror

	OrgName      string
	FormatNumber func(int64) string
}

// Complete verifies, records and fulfils a donation. Errors are only
// returned from the steps up to persistence: ErrInvalidInput,
// ErrInvalidAmount, ErrInvalidSignature, ErrAmountMismatch,
// ErrGatewayUnavailable, ErrGateway, ErrDuplicateTransaction or
// ErrPersistence.
func (s *DonationService) Complete(ctx context.Context, req CompleteRequest) (*CompleteResult, error) {
	ctx, root := observability.StartStep(ctx, "complete",
		attribute.String("order.id", req.OrderID),
	)
	log := zerolog.Ctx(ctx).With().
		Str("order_id", req.OrderID).
		Str("payment_id", sysutil.Mask(req.PaymentID)).
		Logger()

	in := domain.DonationInput{
		DonorName:     req.DonorName,
		Email:         req.Email,
		Phone:         req.Phone,
		Amount:        req.Amount,
		PAN:           req.PAN,
		OrderID:       req.OrderID,
		TransactionID: req.PaymentID,
	}

	// Initiated: reject malformed requests before touching anything. From
	// here on the trimmed ids are the ones verified and stored.
	cand, err := NormalizeDonation(in)
	if err != nil {
		root.End(err)
		observability.DonationsCompleted.WithLabelValues(observability.OutcomeInvalidInput).Inc()
		return nil, err
	}
	if req.Signature == "" {
		root.End(ErrInvalidInput)
		observability.DonationsCompleted.WithLabelValues(observability.OutcomeInvalidInput).Inc()
		return nil, fmt.Errorf("%w: signature is required", ErrInvalidInput)
	}

	_, step := observability.StartStep(ctx, "verify_signature")
	ok := s.Verifier != nil && s.Verifier.Verify(cand.OrderID, cand.TransactionID, req.Signature)
	if !ok {
		step.End(ErrInvalidSignature)
		root.End(ErrInvalidSignature)
		log.Warn().Str("state", string(StateAbandoned)).Msg("payment signature rejected")
		observability.DonationsCompleted.WithLabelValues(observability.OutcomeInvalidSignature).Inc()
		return nil, ErrInvalidSignature
	}
	step.End(nil)

	if err := s.checkOrder(ctx, cand); err != nil {
		root.End(err)
		outcome := observability.OutcomeInvalidInput
		switch {
		case errors.Is(err, ErrAmountMismatch):
			outcome = observability.OutcomeAmountMismatch
			log.Warn().Str("state", string(StateAbandoned)).Int64("amount", cand.Amount).
				Msg("submitted amount does not match the order")
		case errors.Is(err, ErrGatewayUnavailable), errors.Is(err, ErrGateway):
			outcome = observability.OutcomeGatewayError
			log.Error().Err(err).Str("state", string(StateAbandoned)).Msg("order could not be checked")
		}
		observability.DonationsCompleted.WithLabelValues(outcome).Inc()
		return nil, err
	}

	in.OrderID, in.TransactionID = cand.OrderID, cand.TransactionID
	pctx, step := observability.StartStep(ctx, "persist")
	d, replayed, err := s.Ledger.RecordDonation(pctx, in)
	step.End(err)
	if err != nil {
		root.End(err)
		outcome := observability.OutcomePersistenceError
		switch {
		case errors.Is(err, ErrDuplicateTransaction):
			outcome = observability.OutcomeDuplicate
			log.Warn().Str("state", string(StateAbandoned)).Msg("payment id reused with different details")
		case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidAmount):
			outcome = observability.OutcomeInvalidInput
		default:
			log.Error().Err(err).Str("state", string(StateAbandoned)).Msg("donation not recorded")
		}
		observability.DonationsCompleted.WithLabelValues(outcome).Inc()
		return nil, err
	}

	res := &CompleteResult{Donation: d, State: StatePersisted, Replayed: replayed}
	if replayed {
		res.State = StateComplete
		root.Span().SetAttributes(attribute.Bool("donation.replayed", true))
		root.End(nil)
		log.Info().Str("donation_id", d.ID).Msg("donation already recorded, replaying")
		observability.DonationsCompleted.WithLabelValues(observability.OutcomeReplayed).Inc()
		return res, nil
	}
	log.Info().Str("donation_id", d.ID).Int64("amount", d.Amount).Msg("donation recorded")

	// The donation is durable; the rest must not be cut short by a client
	// disconnect.
	ctx = context.WithoutCancel(ctx)

	s.fulfil(ctx, log, res)

	res.State = StateComplete
	root.End(nil)
	observability.DonationsCompleted.WithLabelValues(observability.OutcomeSuccess).Inc()
	return res, nil
}

// checkOrder requires the gateway order behind cand to be for exactly
// cand.Amount rupees. Gateway amounts are in paise.
//
// Errors:
//   - ErrGatewayUnavailable when no lookup is configured
//   - ErrInvalidInput when the gateway does not know cand.OrderID
//   - ErrAmountMismatch when the amounts differ
//   - the lookup's ErrGateway or ErrGatewayUnavailable otherwise
func (s *DonationService) checkOrder(ctx context.Context, cand *domain.Donation) error {
	if s.Orders == nil {
		return ErrGatewayUnavailable
	}
	octx, step := observability.StartStep(ctx, "verify_order")
	o, err := s.Orders.FetchOrder(octx, cand.OrderID)
	switch {
	case errors.Is(err, payments.ErrOrderNotFound):
		err = fmt.Errorf("%w: orderId does not match a gateway order", ErrInvalidInput)
	case err != nil:
	case o.Amount != cand.Amount*100:
		err = ErrAmountMismatch
	}
	step.End(err)
	return err
}

// fulfil runs the best-effort steps after persistence, in order:
//   - render the receipt PDF (a failure still sends the email, unattached)
//   - email the donor, flagging receipt_sent only on real delivery
//   - mirror the record to the CMS
//
// Each step logs and counts its own failure and never stops the next.
func (s *DonationService) fulfil(ctx context.Context, log zerolog.Logger, res *CompleteResult) {
	d := res.Donation

	var attachment *notify.Attachment
	if s.Receipts != nil {
		_, step := observability.StartStep(ctx, "render_receipt")
		pdf, err := s.Receipts.Render(ReceiptInput(d))
		step.End(err)
		if err != nil {
			log.Error().Err(err).Str("donation_id", d.ID).Msg("receipt render failed, emailing without attachment")
		} else {
			res.ReceiptRendered = true
			res.State = StateReceiptRendered
			attachment = &notify.Attachment{
				Name:        receipt.AttachmentName(d.TransactionID),
				ContentType: "application/pdf",
				Data:        pdf,
			}
		}
	}

	if s.Mailer != nil {
		s.notify(ctx, log, res, attachment)
	}

	if s.Mirror != nil {
		mctx, step := observability.StartStep(ctx, "mirror")
		err := s.Mirror.Mirror(mctx, d)
		switch {
		case errors.Is(err, mirror.ErrDisabled):
			step.End(nil)
			observability.MirrorWrites.WithLabelValues(observability.ResultSkipped).Inc()
		case err != nil:
			step.End(err)
			log.Warn().Err(err).Str("donation_id", d.ID).Msg("cms mirror failed")
			observability.MirrorWrites.WithLabelValues(observability.ResultFailed).Inc()
		default:
			step.End(nil)
			observability.MirrorWrites.WithLabelValues(observability.ResultSent).Inc()
		}
	}
}

// notify builds and sends the receipt email and updates res.
func (s *DonationService) notify(ctx context.Context, log zerolog.Logger, res *CompleteResult, attachment *notify.Attachment) {
	d := res.Donation
	format := s.FormatNumber
	if format == nil {
		format = func(n int64) string { return strconv.FormatInt(n, 10) }
	}
	msg, err := notify.ReceiptEmail(notify.ReceiptDetails{
		Org:           s.OrgName,
		DonorName:     d.DonorName,
		Email:         d.Email,
		AmountText:    format(d.Amount),
		TransactionID: d.TransactionID,
		Receipt:       attachment,
	})
	if err != nil {
		log.Error().Err(err).Msg("receipt email template failed")
		observability.ReceiptEmails.WithLabelValues(observability.ResultFailed).Inc()
		return
	}

	nctx, step := observability.StartStep(ctx, "notify")
	out := s.Mailer.Send(nctx, msg)
	step.End(out.Err)
	if !out.Delivered {
		log.Warn().Err(out.Err).Str("donation_id", d.ID).Msg("receipt email not delivered")
		observability.ReceiptEmails.WithLabelValues(observability.ResultFailed).Inc()
		return
	}
	res.Notified = true
	res.State = StateNotified
	if out.Mock {
		// Nothing left the building; receipt_sent stays false.
		observability.ReceiptEmails.WithLabelValues(observability.ResultMock).Inc()
		return
	}
	observability.ReceiptEmails.WithLabelValues(observability.ResultSent).Inc()

	if err := s.Ledger.MarkReceiptSent(ctx, d.ID); err != nil {
		log.Error().Err(err).Str("donation_id", d.ID).Msg("could not flag receipt as sent")
		return
	}
	d.ReceiptSent = true
}

// ReceiptInput maps a ledger record onto the receipt layout.
func ReceiptInput(d *domain.Donation) receipt.Input {
	in := receipt.Input{
		DonorName:     d.DonorName,
		Email:         d.Email,
		Phone:         d.Phone,
		Amount:        d.Amount,
		TransactionID: d.TransactionID,
		Date:          d.CreatedAt,
	}
	if d.PAN != nil {
		in.PAN = *d.PAN
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}
	return in
}
