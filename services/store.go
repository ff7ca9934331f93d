package services

import (
	"fmt"

	"github.com/lborres/clientportal/core"
)

const (
	cookiePath     = "/"
	cookieSameSite = "Lax"
)

// SessionStore binds the codec to the cookie transport.
//
// It holds no per-request state; every call works on the jar it is given.
type SessionStore struct {
	config core.SessionConfig
	codec  *SessionCodec
}

func NewSessionStore(config core.SessionConfig, codec *SessionCodec) *SessionStore {
	if config.CookieName == "" {
		config.CookieName = core.DefaultCookieName
	}
	if config.MaxAge <= 0 {
		config.MaxAge = core.DefaultSessionTTL
	}

	return &SessionStore{config: config, codec: codec}
}

func (s *SessionStore) CookieName() string {
	return s.config.CookieName
}

// Issue writes a freshly signed session cookie to the response.
func (s *SessionStore) Issue(jar core.CookieJar, record *core.SessionRecord) error {
	token, err := s.codec.Encode(record)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	cookie := s.cookie()
	cookie.Value = token
	cookie.MaxAge = int(s.config.MaxAge.Seconds())
	jar.Set(cookie)

	return nil
}

// cookie returns the session cookie attributes shared by writes and deletions.
func (s *SessionStore) cookie() *core.Cookie {
	return &core.Cookie{
		Name:     s.config.CookieName,
		Path:     cookiePath,
		HTTPOnly: true,
		Secure:   s.config.Secure,
		SameSite: cookieSameSite,
	}
}

// Read returns the session carried by the request cookie.
//
// A cookie that is present but fails verification is expired on the response
// so the browser stops sending it.
func (s *SessionStore) Read(jar core.CookieJar) (*core.SessionRecord, error) {
	raw := jar.Get(s.config.CookieName)
	if raw == "" {
		return nil, core.ErrSessionNotFound
	}

	record, err := s.codec.Decode(raw)
	if err != nil {
		jar.Expire(s.cookie())
		return nil, err
	}

	return record, nil
}

// Destroy expires the session cookie. Destroying an absent session is a no-op
// from the caller's point of view.
func (s *SessionStore) Destroy(jar core.CookieJar) {
	jar.Expire(s.cookie())
}
