package qstash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	appErrors "remindme/internal/pkg/errors"
)

// SignatureHeader carries the webhook signature computed by the callback
// service over the raw request body.
const SignatureHeader = "Upstash-Signature"

// Receiver verifies webhook signatures. Two keys are accepted so the
// signing key can be rotated without dropping in-flight callbacks: the
// service signs with the current key, and during rotation older messages
// may still carry a signature from the previous (now "next") key.
type Receiver struct {
	currentKey []byte
	nextKey    []byte
}

// NewReceiver creates a Receiver for the given signing key pair. nextKey may
// be empty when no rotation is in progress.
func NewReceiver(currentKey, nextKey string) *Receiver {
	return &Receiver{
		currentKey: []byte(currentKey),
		nextKey:    []byte(nextKey),
	}
}

// Verify checks signature against the HMAC-SHA256 of body under either
// signing key. It returns ErrSignatureInvalid when neither key matches;
// callers must not act on the body in that case.
func (r *Receiver) Verify(body []byte, signature string) error {
	if signature == "" {
		return fmt.Errorf("%w: missing signature", appErrors.ErrSignatureInvalid)
	}
	if matchSignature(r.currentKey, body, signature) {
		return nil
	}
	if len(r.nextKey) > 0 && matchSignature(r.nextKey, body, signature) {
		return nil
	}
	return fmt.Errorf("%w: signature does not match any signing key", appErrors.ErrSignatureInvalid)
}

func matchSignature(key, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
