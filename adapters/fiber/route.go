package fiber

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/clientportal/core"
)

type Adapter struct {
	app  *fiber.App
	auth core.AuthProvider
}

var _ core.HTTPAdapter = (*Adapter)(nil)

func New(app *fiber.App) *Adapter {
	return &Adapter{app: app}
}

// RegisterRoutes installs the gate and the portal routes. Call it before
// registering application routes under the protected prefix so the gate runs
// first.
func (a *Adapter) RegisterRoutes(auth core.AuthProvider) error {
	a.auth = auth
	paths := auth.Paths()

	a.app.Use(a.Gate())

	// Public routes
	a.app.Get(paths.Login, a.loginPage)
	a.app.Post(paths.Login+"/password", a.signInWithPassword)
	a.app.Post(paths.Login+"/project-code", a.signInWithProjectCode)
	a.app.Post("/logout", a.signOut)

	// Protected routes
	protected := strings.TrimSuffix(paths.Protected, "/")
	a.app.Get(protected+"/session", a.RequireSession(a.session))
	a.app.Get(protected+"/projects", a.RequireSession(a.projects))
	a.app.Get(paths.Dashboard, a.RequireSession(a.dashboard))

	return nil
}
