// Package signature checks that webhook calls really come from Meta.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HeaderName carries the payload signature on message delivery calls.
const HeaderName = "X-Hub-Signature-256"

const algorithm = "sha256"

// Verify reports whether header is a valid "sha256=<hex>" HMAC of rawBody under secret.
// Any malformed header fails closed, and an empty secret never validates.
func Verify(rawBody []byte, header, secret string) bool {
	if secret == "" {
		return false
	}

	alg, digest, ok := strings.Cut(header, "=")
	if !ok || alg != algorithm || digest == "" {
		return false
	}

	got, err := hex.DecodeString(digest)
	if err != nil {
		return false
	}

	return hmac.Equal(got, Sign(rawBody, secret))
}

// Sign returns the raw HMAC-SHA256 of body under secret.
func Sign(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// Header formats body's signature the way Meta sends it.
func Header(body []byte, secret string) string {
	return algorithm + "=" + hex.EncodeToString(Sign(body, secret))
}

// ValidateVerifyToken checks the subscription handshake token. It guards a
// one-time setup call, so plain comparison is enough.
func ValidateVerifyToken(token, expected string) bool {
	return expected != "" && token == expected
}
