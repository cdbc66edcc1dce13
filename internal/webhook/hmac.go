package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// SignatureAlgorithm is the only mechanism accepted in the signature header.
const SignatureAlgorithm = "sha1"

// Sign returns the signature header value for body under secret ("sha1=<hex>").
func Sign(body []byte, secret string) string {
	return SignatureAlgorithm + "=" + computeSignature(body, secret)
}

// parseSignature splits "algorithm=hexdigest" on the first '='.
// A header without '=' yields the whole value as algorithm and an empty digest.
func parseSignature(header string) (algo, digest string) {
	algo, digest, _ = strings.Cut(header, "=")
	return algo, digest
}

// computeSignature returns the lowercase hex HMAC-SHA1 of body keyed by secret.
func computeSignature(body []byte, secret string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// signaturesMatch compares the hex strings byte for byte, so case matters.
func signaturesMatch(computed, received string) bool {
	return subtle.ConstantTimeCompare([]byte(computed), []byte(received)) == 1
}
