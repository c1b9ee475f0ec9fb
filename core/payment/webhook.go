package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader carries the provider's base64 HMAC-SHA256 of the raw
// webhook body.
const SignatureHeader = "X-Webhook-Signature"

func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the digest over the raw body and compares it to
// the header value in constant time. An absent header never verifies.
func VerifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return hmac.Equal(got, mac.Sum(nil))
}
