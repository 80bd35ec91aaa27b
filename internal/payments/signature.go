// Package payments talks to the payment gateway: it creates checkout orders
// and verifies the signature the gateway attaches to a completed payment.
package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Literal signatures produced by the demo checkout page. They are only
// honoured by a verifier built WithDemoSignatures.
const (
	DemoSignature     = "demo_signature"
	MockDemoSignature = "mock_signature_for_demo"
)

// SignatureVerifier checks Razorpay payment signatures:
// hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
// It is immutable after construction and safe for concurrent use.
type SignatureVerifier struct {
	secret    []byte
	allowDemo bool
}

// VerifierOption customizes a SignatureVerifier.
type VerifierOption func(*SignatureVerifier)

// WithDemoSignatures accepts DemoSignature and MockDemoSignature. Never use
// outside local development.
func WithDemoSignatures() VerifierOption {
	return func(v *SignatureVerifier) { v.allowDemo = true }
}

// NewSignatureVerifier returns a verifier keyed by secret. An empty secret
// yields a verifier that rejects everything.
func NewSignatureVerifier(secret string, opts ...VerifierOption) *SignatureVerifier {
	v := &SignatureVerifier{secret: []byte(secret)}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify reports whether signature authenticates (orderID, paymentID).
func (v *SignatureVerifier) Verify(orderID, paymentID, signature string) bool {
	if v == nil {
		return false
	}
	if v.allowDemo && (signature == DemoSignature || signature == MockDemoSignature) {
		return true
	}
	if len(v.secret) == 0 || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	want := v.Sign(orderID, paymentID)
	return hmac.Equal([]byte(want), []byte(signature))
}

// Sign returns the lowercase hex signature for (orderID, paymentID), or ""
// when no secret is configured.
func (v *SignatureVerifier) Sign(orderID, paymentID string) string {
	if v == nil || len(v.secret) == 0 {
		return ""
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
