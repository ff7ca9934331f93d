package fiber

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/clientportal/core"
)

// cookieJar reads request cookies and writes response cookies on one fiber.Ctx.
type cookieJar struct {
	c fiber.Ctx
}

var _ core.CookieJar = cookieJar{}

func jarFor(c fiber.Ctx) cookieJar {
	return cookieJar{c: c}
}

func (j cookieJar) Get(name string) string {
	return j.c.Cookies(name)
}

func (j cookieJar) Set(cookie *core.Cookie) {
	j.c.Cookie(&fiber.Cookie{
		Name:     cookie.Name,
		Value:    cookie.Value,
		Path:     cookie.Path,
		MaxAge:   cookie.MaxAge,
		HTTPOnly: cookie.HTTPOnly,
		Secure:   cookie.Secure,
		SameSite: cookie.SameSite,
	})
}

// Expire overwrites the cookie with an empty value dated in the past.
// fasthttp omits Max-Age unless it is positive, so Expires does the work.
func (j cookieJar) Expire(cookie *core.Cookie) {
	j.c.Cookie(&fiber.Cookie{
		Name:     cookie.Name,
		Value:    "",
		Path:     cookie.Path,
		Expires:  time.Unix(0, 0),
		HTTPOnly: cookie.HTTPOnly,
		Secure:   cookie.Secure,
		SameSite: cookie.SameSite,
	})
}
