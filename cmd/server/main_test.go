package main

import (
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-donation-backend/internal/config"
	"github.com/tbourn/go-donation-backend/internal/mirror"
	"github.com/tbourn/go-donation-backend/internal/notify"
	"github.com/tbourn/go-donation-backend/internal/payments"
)

func baseConfig() config.Config {
	return config.Config{
		Payment: config.PaymentConfig{Gateway: "razorpay", Currency: "INR"},
		Receipt: config.ReceiptConfig{OrgName: "Mahila Swashthya Mission", Locale: "en-IN", Timezone: "Asia/Kolkata"},
	}
}

func TestBuildDeps_Defaults(t *testing.T) {
	deps, err := buildDeps(baseConfig(), zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("buildDeps: %v", err)
	}
	if deps.Gateway != nil {
		t.Fatalf("razorpay without credentials must leave the gateway unset, got %T", deps.Gateway)
	}
	if deps.Verifier == nil || deps.Verifier.Verify("order_1", "pay_1", payments.DemoSignature) {
		t.Fatalf("verifier must fail closed without a secret")
	}
	if deps.Receipts == nil {
		t.Fatalf("receipt generator missing")
	}
	if _, ok := deps.Mailer.(notify.MockDispatcher); !ok {
		t.Fatalf("expected mock mailer, got %T", deps.Mailer)
	}
	if _, ok := deps.Mirror.(mirror.NoopMirror); !ok {
		t.Fatalf("expected noop mirror, got %T", deps.Mirror)
	}
}

func TestBuildDeps_Configured(t *testing.T) {
	cfg := baseConfig()
	cfg.Payment = config.PaymentConfig{Gateway: "razorpay", KeyID: "rzp_test_1", KeySecret: "s", Currency: "INR", AllowDemoSignature: true}
	cfg.Sanity = config.SanityConfig{ProjectID: "p1", Dataset: "production", Token: "tok", APIVersion: "2024-01-01"}

	deps, err := buildDeps(cfg, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("buildDeps: %v", err)
	}
	if _, ok := deps.Gateway.(*payments.RazorpayGateway); !ok {
		t.Fatalf("expected razorpay gateway, got %T", deps.Gateway)
	}
	if !deps.Verifier.Verify("order_1", "pay_1", payments.DemoSignature) {
		t.Fatalf("demo signatures should be accepted when allowed")
	}
	if _, ok := deps.Mirror.(*mirror.SanityMirror); !ok {
		t.Fatalf("expected sanity mirror, got %T", deps.Mirror)
	}

	cfg.Payment.Gateway = "mock"
	deps, _ = buildDeps(cfg, zerolog.New(io.Discard))
	if _, ok := deps.Gateway.(*payments.MockGateway); !ok {
		t.Fatalf("expected mock gateway, got %T", deps.Gateway)
	}
}

func TestBuildDeps_BadReceiptSettings(t *testing.T) {
	cfg := baseConfig()
	cfg.Receipt.Timezone = "Mars/Olympus"
	if _, err := buildDeps(cfg, zerolog.New(io.Discard)); err == nil {
		t.Fatalf("expected error for unknown time zone")
	}
}
