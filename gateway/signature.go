package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// PaymentSignature computes the checkout signature: hex(HMAC-SHA256(secret, orderID|paymentID))
func PaymentSignature(secret, orderID, paymentID string) string {
	return hmacHex(secret, []byte(orderID+"|"+paymentID))
}

// VerifyPaymentSignature compares a checkout signature in constant time
func VerifyPaymentSignature(secret, orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	expected := PaymentSignature(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// WebhookSignature computes the webhook signature header for a raw body
func WebhookSignature(secret string, body []byte) string {
	return hmacHex(secret, body)
}

func hmacHex(secret string, data []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
