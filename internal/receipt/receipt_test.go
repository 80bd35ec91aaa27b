package receipt

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"
)

func newGen(t *testing.T) *Generator {
	t.Helper()
	g, err := NewGenerator("Mahila Swashthya Mission", "en-IN", "Asia/Kolkata")
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g
}

func sample() Input {
	return Input{
		DonorName:     "Asha Devi",
		Email:         "asha@example.com",
		Phone:         "9876543210",
		Amount:        1000,
		TransactionID: "pay_1",
		Date:          time.Date(2026, 10, 17, 20, 30, 0, 0, time.UTC),
	}
}

func TestRender_ContainsReceiptFields(t *testing.T) {
	g := newGen(t)
	out, err := g.Render(sample())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
	for _, want := range []string{
		"Mahila Swashthya Mission",
		"Donation Receipt",
		"Transaction ID: pay_1",
		"Name: Asha Devi",
		"Email: asha@example.com",
		"Phone: 9876543210",
		"Amount: INR 1,000",
		// 20:30 UTC is already the next day in Asia/Kolkata.
		"Receipt Date: 18/10/2026",
		"Thank you for your generous donation!",
		"80G",
	} {
		if !bytes.Contains(out, []byte(want)) {
			t.Fatalf("receipt missing %q", want)
		}
	}
	if bytes.Contains(out, []byte("PAN:")) {
		t.Fatalf("PAN line must be omitted when PAN is empty")
	}
}

func TestRender_WithPAN(t *testing.T) {
	in := sample()
	in.PAN = "abcde1234f"
	out, err := newGen(t).Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(out, []byte("PAN: ABCDE1234F")) {
		t.Fatalf("PAN not printed upper-cased")
	}
}

func TestRender_Deterministic(t *testing.T) {
	g := newGen(t)
	a, err := g.Render(sample())
	if err != nil {
		t.Fatalf("Render a: %v", err)
	}
	b, err := g.Render(sample())
	if err != nil {
		t.Fatalf("Render b: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("same input produced different documents")
	}
}

func TestRender_InvalidInput(t *testing.T) {
	g := newGen(t)
	cases := []func(*Input){
		func(in *Input) { in.TransactionID = "" },
		func(in *Input) { in.DonorName = "  " },
		func(in *Input) { in.Amount = 0 },
	}
	for i, mutate := range cases {
		in := sample()
		mutate(&in)
		if _, err := g.Render(in); !errors.Is(err, ErrRender) {
			t.Fatalf("case %d: err = %v; want ErrRender", i, err)
		}
	}
}

func TestNewGenerator_BadSettings(t *testing.T) {
	if _, err := NewGenerator("Org", "not a locale!!", "UTC"); err == nil {
		t.Fatalf("expected locale error")
	}
	if _, err := NewGenerator("Org", "en-IN", "Nowhere/City"); err == nil {
		t.Fatalf("expected timezone error")
	}
}

func TestFormatAmount_And_Names(t *testing.T) {
	g := newGen(t)
	if got := g.FormatAmount(100); got != "INR 100" {
		t.Fatalf("FormatAmount(100) = %q", got)
	}
	if got := g.FormatAmount(2500); !strings.HasPrefix(got, "INR 2,500") {
		t.Fatalf("FormatAmount(2500) = %q", got)
	}
	if Filename("pay_1") != "donation_receipt_pay_1.pdf" {
		t.Fatalf("Filename = %q", Filename("pay_1"))
	}
	if AttachmentName("pay_1") != "receipt_pay_1.pdf" {
		t.Fatalf("AttachmentName = %q", AttachmentName("pay_1"))
	}
}
