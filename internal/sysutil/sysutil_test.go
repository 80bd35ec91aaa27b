package sysutil

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLogLevel_AllVariants(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tc := range cases {
		SetLogLevel(tc.in)
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Fatalf("SetLogLevel(%q) -> %v; want %v", tc.in, got, tc.want)
		}
	}
}

func TestConfigureLogger_SetsLevelAndContextDefault(t *testing.T) {
	origLevel := zerolog.GlobalLevel()
	origDefault := zerolog.DefaultContextLogger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(origLevel)
		zerolog.DefaultContextLogger = origDefault
	})

	l := ConfigureLogger("warn", true, "donations-test")
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Fatalf("global level = %v; want warn", zerolog.GlobalLevel())
	}
	if zerolog.DefaultContextLogger == nil {
		t.Fatalf("DefaultContextLogger should be installed")
	}
	if got := zerolog.Ctx(context.Background()); got.GetLevel() != l.GetLevel() {
		t.Fatalf("context fallback logger level mismatch")
	}
}

func TestMask(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"abc":        "***",
		"pay_1":      "*ay_1",
		"pay_ABC123": "******C123",
	}
	for in, want := range cases {
		if got := Mask(in); got != want {
			t.Fatalf("Mask(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{" ", "\t", "\n"}, ""},
		{[]string{"", "  help@example.org ", "noreply@example.org"}, "  help@example.org "},
		{[]string{"receipts@example.org", "help@example.org"}, "receipts@example.org"},
	}
	for _, tc := range cases {
		if got := FirstNonEmpty(tc.in...); got != tc.want {
			t.Errorf("FirstNonEmpty(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}
