package fiber

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/clientportal/core"
)

const (
	localsSession      = "session"
	reasonUnauthorized = "unauthenticated"
)

// Gate returns a middleware that lets requests under the protected prefix
// through only when they carry a valid session. Anything else passes untouched.
func (a *Adapter) Gate() fiber.Handler {
	return func(c fiber.Ctx) error {
		if !underPrefix(routingPath(c, c.Path()), routingPath(c, a.auth.Paths().Protected)) {
			return c.Next()
		}

		session, err := a.auth.ReadSession(jarFor(c))
		if err != nil {
			return a.redirectToLogin(c)
		}

		c.Locals(localsSession, session)
		return c.Next()
	}
}

// RequireSession wraps a handler that needs an identity. It re-reads the
// session through the same provider as Gate, so a handler mounted outside the
// gate still redirects unauthenticated callers.
func (a *Adapter) RequireSession(next func(c fiber.Ctx, session *core.SessionRecord) error) fiber.Handler {
	return func(c fiber.Ctx) error {
		if session := Session(c); session != nil {
			return next(c, session)
		}

		session, err := a.auth.ReadSession(jarFor(c))
		if err != nil {
			return a.redirectToLogin(c)
		}

		c.Locals(localsSession, session)
		return next(c, session)
	}
}

// Session returns the session stored by Gate or RequireSession, or nil.
func Session(c fiber.Ctx) *core.SessionRecord {
	session, _ := c.Locals(localsSession).(*core.SessionRecord)
	return session
}

func (a *Adapter) redirectToLogin(c fiber.Ctx) error {
	query := url.Values{}
	query.Set("redirect", c.OriginalURL())
	query.Set("reason", reasonUnauthorized)

	return c.Redirect().Status(fiber.StatusTemporaryRedirect).To(a.auth.Paths().Login + "?" + query.Encode())
}

// routingPath folds path the way the router does when matching routes:
// lowercased unless the app routes case-sensitively.
func routingPath(c fiber.Ctx, path string) string {
	if !c.App().Config().CaseSensitive {
		return strings.ToLower(path)
	}
	return path
}

// underPrefix matches whole path segments: /client and /client/x, not /clients.
func underPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
