package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const (
	DefaultSecretLength = 48 // bytes, 64 base64url characters
)

// GenerateSecret returns byteLength random bytes as base64url text.
// Non-positive lengths use DefaultSecretLength.
func GenerateSecret(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = DefaultSecretLength
	}

	bytes := make([]byte, byteLength)

	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// HashToken returns the hex SHA-256 digest of value. Used to key counters
// without storing emails or codes in plain text.
func HashToken(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:])
}
