package core

import (
	"context"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// DIRECTORY PORTS (data store lookups)
// ============================================

// UserDirectory resolves active application users.
// A miss is reported as ErrUserNotFound.
type UserDirectory interface {
	FindActiveUserByEmail(ctx context.Context, email string) (*User, error)
}

// ClientDirectory resolves and provisions client profiles.
// A miss is reported as ErrClientNotFound.
type ClientDirectory interface {
	FindClientByEmail(ctx context.Context, email string) (*Client, error)
	CreateClient(ctx context.Context, input NewClient) (*Client, error)
}

// ProjectDirectory resolves projects joined to their owning client.
// A miss is reported as ErrProjectNotFound.
type ProjectDirectory interface {
	FindProjectByCode(ctx context.Context, code string) (*Project, error)
	ListProjectsByClient(ctx context.Context, clientID string) ([]*Project, error)
}

// Directory is the full data-access surface the portal needs.
type Directory interface {
	UserDirectory
	ClientDirectory
	ProjectDirectory
}

// ============================================
// PASSWORD PORT
// ============================================

// PasswordVerifier checks a plaintext password against a stored one-way hash.
type PasswordVerifier interface {
	Verify(password, hash string) (bool, error)
}

// ============================================
// COOKIE PORT
// ============================================

// Cookie is a transport-neutral cookie description.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	MaxAge   int // seconds
	HTTPOnly bool
	Secure   bool
	SameSite string
}

// CookieJar binds cookie reads to the inbound request and cookie writes to the
// outbound response of a single request.
type CookieJar interface {
	Get(name string) string
	Set(cookie *Cookie)
	// Expire overwrites the named cookie with an empty, already expired one
	// carrying the remaining attributes of cookie.
	Expire(cookie *Cookie)
}

// ============================================
// THROTTLING PORT
// ============================================

// WindowStore counts events inside fixed windows.
type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	// Reset drops key's window. Resetting an unknown key is not an error.
	Reset(ctx context.Context, key string) error
}
