package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestVerifyPaymentSignature(t *testing.T) {
	secret := []byte("whsec_test_secret")

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte("order_abc123|pay_def456"))
	valid := hex.EncodeToString(mac.Sum(nil))

	cases := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		secret    []byte
		want      bool
	}{
		{"valid signature", "order_abc123", "pay_def456", valid, secret, true},
		{"upper-case signature accepted", "order_abc123", "pay_def456", strings.ToUpper(valid), secret, true},
		{"whitespace trimmed", "order_abc123", "pay_def456", "  " + valid + "  ", secret, true},
		{"wrong payment id", "order_abc123", "pay_other", valid, secret, false},
		{"wrong order id", "order_other", "pay_def456", valid, secret, false},
		{"tampered signature", "order_abc123", "pay_def456", valid[:len(valid)-1] + "0", secret, false},
		{"empty signature", "order_abc123", "pay_def456", "", secret, false},
		{"wrong secret", "order_abc123", "pay_def456", valid, []byte("other"), false},
		{"empty secret", "order_abc123", "pay_def456", valid, nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := VerifyPaymentSignature(tc.orderID, tc.paymentID, tc.signature, tc.secret)
			if got != tc.want {
				t.Errorf("VerifyPaymentSignature() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSignPaymentIsDeterministic(t *testing.T) {
	secret := []byte("whsec_test_secret")
	first := SignPayment("order_1", "pay_1", secret)
	second := SignPayment("order_1", "pay_1", secret)
	if first != second {
		t.Errorf("signatures differ: %s vs %s", first, second)
	}
	if SignPayment("order_1", "pay_2", secret) == first {
		t.Error("different payment ids must not share a signature")
	}
}
