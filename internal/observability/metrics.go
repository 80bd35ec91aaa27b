// Domain metrics for the donation pipeline.
//
// Series:
//   - donations_completed_total{outcome}: one increment per Complete call
//   - donation_orders_total{outcome}: one increment per CreateOrder call
//   - receipt_emails_total{result}, donation_mirror_total{result}: the
//     best-effort steps after persistence
//   - donation_step_duration_seconds{step}: fed by StartStep
//
// Label values are the constants below; never pass request data as a label.

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for DonationsCompleted.
const (
	OutcomeSuccess          = "success"
	OutcomeReplayed         = "replayed"
	OutcomeInvalidInput     = "invalid_input"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeAmountMismatch   = "amount_mismatch"
	OutcomeGatewayError     = "gateway_error"
	OutcomeDuplicate        = "duplicate"
	OutcomePersistenceError = "persistence_error"
)

// Result labels shared by the email and mirror counters.
const (
	ResultSent    = "sent"
	ResultMock    = "mock"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

var (
	// DonationsCompleted counts terminal outcomes of the completion flow.
	DonationsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donations_completed_total",
			Help: "Donation completion attempts by terminal outcome.",
		},
		[]string{"outcome"},
	)

	// DonationOrders counts gateway order creation attempts.
	DonationOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donation_orders_total",
			Help: "Gateway order creation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// ReceiptEmails counts receipt email attempts; "mock" means no mailer.
	ReceiptEmails = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receipt_emails_total",
			Help: "Receipt email dispatches by result.",
		},
		[]string{"result"},
	)

	// MirrorWrites counts CMS mirror writes; "skipped" means disabled.
	MirrorWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donation_mirror_total",
			Help: "CMS mirror writes by result.",
		},
		[]string{"result"},
	)

	// StepDuration records per-step latency of the completion flow.
	// Email and gateway round-trips dominate, hence the wider upper buckets.
	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "donation_step_duration_seconds",
			Help:    "Duration of donation pipeline steps in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"step"},
	)
)

// Registered on the default registry, which /metrics serves.
func init() {
	prometheus.MustRegister(DonationsCompleted, DonationOrders, ReceiptEmails, MirrorWrites, StepDuration)
}
