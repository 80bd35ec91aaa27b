package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"testing"
)

func expectedSig(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerify_ValidSignature(t *testing.T) {
	v := NewSignatureVerifier("s3cret")
	sig := expectedSig("s3cret", "order_1", "pay_1")
	if !v.Verify("order_1", "pay_1", sig) {
		t.Fatalf("expected valid signature to verify")
	}
	if got := v.Sign("order_1", "pay_1"); got != sig {
		t.Fatalf("Sign = %q; want %q", got, sig)
	}
}

func TestVerify_EmptySecret_FailsClosed(t *testing.T) {
	v := NewSignatureVerifier("")
	inputs := [][3]string{
		{"order_1", "pay_1", expectedSig("", "order_1", "pay_1")},
		{"order_1", "pay_1", "deadbeef"},
		{"", "", ""},
		{"order_1", "pay_1", DemoSignature},
	}
	for _, in := range inputs {
		if v.Verify(in[0], in[1], in[2]) {
			t.Fatalf("empty secret must reject %v", in)
		}
	}
	if v.Sign("order_1", "pay_1") != "" {
		t.Fatalf("Sign without secret should be empty")
	}

	var nilV *SignatureVerifier
	if nilV.Verify("order_1", "pay_1", "x") {
		t.Fatalf("nil verifier must reject")
	}
}

func TestVerify_SingleCharMutation_Rejected(t *testing.T) {
	v := NewSignatureVerifier("s3cret")
	sig := expectedSig("s3cret", "order_1", "pay_1")

	for i := range sig {
		b := []byte(sig)
		if b[i] == 'a' {
			b[i] = 'b'
		} else {
			b[i] = 'a'
		}
		if v.Verify("order_1", "pay_1", string(b)) {
			t.Fatalf("mutated signature at %d accepted", i)
		}
	}
	if v.Verify("order_2", "pay_1", sig) || v.Verify("order_1", "pay_2", sig) {
		t.Fatalf("signature must bind both order and payment ids")
	}
	if v.Verify("order_1", "pay_1", sig[:len(sig)-1]) {
		t.Fatalf("truncated signature accepted")
	}
}

func TestVerify_DemoSignatures_OnlyWhenEnabled(t *testing.T) {
	strict := NewSignatureVerifier("s3cret")
	if strict.Verify("order_1", "pay_1", DemoSignature) || strict.Verify("order_1", "pay_1", MockDemoSignature) {
		t.Fatalf("demo signatures must be rejected by default")
	}

	demo := NewSignatureVerifier("s3cret", WithDemoSignatures())
	if !demo.Verify("order_1", "pay_1", DemoSignature) || !demo.Verify("order_1", "pay_1", MockDemoSignature) {
		t.Fatalf("demo signatures should be accepted with WithDemoSignatures")
	}
	if demo.Verify("order_1", "pay_1", "nope") {
		t.Fatalf("demo verifier must still reject garbage")
	}
}

func TestVerify_ConcurrentUse(t *testing.T) {
	v := NewSignatureVerifier("s3cret")
	sig := v.Sign("order_1", "pay_1")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !v.Verify("order_1", "pay_1", sig) {
				t.Errorf("concurrent verify failed")
			}
		}()
	}
	wg.Wait()
}
