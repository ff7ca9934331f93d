package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
)

var (
	ErrEmptySecret = errors.New("signing secret cannot be empty")
)

// Signer produces and checks HMAC-SHA256 tags over text payloads.
//
// Tags are base64url without padding so they can travel inside a cookie value.
// A Signer is immutable after construction and safe for concurrent use.
type Signer struct {
	key []byte
}

func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	return &Signer{key: []byte(secret)}, nil
}

// Sign returns the tag for payload. Equal payloads always yield equal tags.
func (s *Signer) Sign(payload string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the tag for payload.
// It never panics on malformed input.
func (s *Signer) Verify(payload, signature string) bool {
	if signature == "" {
		return false
	}

	expected := s.Sign(payload)

	// Constant-time comparison over the full tag; only the length leaks
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
