package core

import "time"

const (
	DefaultCookieName = "portal_session"
	DefaultSessionTTL = 7 * 24 * time.Hour
)

type SessionConfig struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool // set in production deployments
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		CookieName: DefaultCookieName,
		MaxAge:     DefaultSessionTTL,
	}
}

// PathConfig names the routes the session layer redirects between.
type PathConfig struct {
	Login     string // login entry point
	Protected string // prefix of the authenticated section
	Dashboard string // authenticated landing page
}

func DefaultPathConfig() PathConfig {
	return PathConfig{
		Login:     "/login",
		Protected: "/client",
		Dashboard: "/client/dashboard",
	}
}

// LimiterConfig configures login throttling. Zero MaxAttempts disables it.
type LimiterConfig struct {
	MaxAttempts int
	Window      time.Duration
}
