package services

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/lborres/clientportal/core"
	"github.com/lborres/clientportal/pkg/crypto"
)

const tokenSeparator = "."

// SessionCodec turns a SessionRecord into a signed token and back.
//
// Token format: base64url(JSON(record)) + "." + base64url(HMAC-SHA256(payload)).
// No expiry is embedded; the cookie Max-Age is the only lifetime bound.
type SessionCodec struct {
	signer *crypto.Signer
}

func NewSessionCodec(signer *crypto.Signer) *SessionCodec {
	return &SessionCodec{signer: signer}
}

func (c *SessionCodec) Encode(record *core.SessionRecord) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", err
	}

	payload := base64.RawURLEncoding.EncodeToString(data)
	return payload + tokenSeparator + c.signer.Sign(payload), nil
}

// Decode verifies and parses token. Every failure, whether malformed input, a
// bad signature or a payload of the wrong shape, is ErrInvalidToken.
func (c *SessionCodec) Decode(token string) (*core.SessionRecord, error) {
	payload, signature, ok := strings.Cut(token, tokenSeparator)
	if !ok || payload == "" || signature == "" || strings.Contains(signature, tokenSeparator) {
		return nil, core.ErrInvalidToken
	}

	if !c.signer.Verify(payload, signature) {
		return nil, core.ErrInvalidToken
	}

	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, core.ErrInvalidToken
	}

	var record core.SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, core.ErrInvalidToken
	}
	if record.UserID == "" || record.Email == "" || record.DisplayName == "" {
		return nil, core.ErrInvalidToken
	}

	return &record, nil
}
