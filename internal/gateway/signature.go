package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignPayment computes the confirmation signature the gateway attaches to a
// captured payment: hex(HMAC-SHA256(secret, gatewayOrderID + "|" + gatewayPaymentID)).
func SignPayment(gatewayOrderID, gatewayPaymentID string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature reports whether the supplied signature matches the
// expected HMAC for the order/payment pair. The comparison is constant time.
// This is the single trust boundary of the confirmation pipeline; nothing may
// mutate state on input that fails this check.
func VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string, secret []byte) bool {
	if len(secret) == 0 {
		return false
	}
	supplied := strings.ToLower(strings.TrimSpace(signature))
	if supplied == "" {
		return false
	}
	expected := SignPayment(gatewayOrderID, gatewayPaymentID, secret)
	return hmac.Equal([]byte(supplied), []byte(expected))
}
