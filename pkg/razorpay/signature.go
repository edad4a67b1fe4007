package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the
// raw request body. The payload must be the exact bytes as received; decoding
// and re-encoding the JSON breaks the signature.
func VerifyWebhookSignature(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	return hmacMatches(payload, signature, secret)
}

// VerifyPaymentSignature checks the signature the hosted checkout hands to
// the client after payment, computed over "paymentID|subscriptionID".
func VerifyPaymentSignature(paymentID, subscriptionID, signature, secret string) bool {
	if paymentID == "" || subscriptionID == "" || signature == "" || secret == "" {
		return false
	}
	return hmacMatches([]byte(paymentID+"|"+subscriptionID), signature, secret)
}

func hmacMatches(payload []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
