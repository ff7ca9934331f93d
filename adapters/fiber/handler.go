package fiber

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/clientportal/core"
)

// loginPage reports the login form state. A caller that already holds a valid
// session is sent on to its destination instead.
func (a *Adapter) loginPage(c fiber.Ctx) error {
	paths := a.auth.Paths()
	redirect := c.Query("redirect")

	if _, err := a.auth.ReadSession(jarFor(c)); err == nil {
		return c.Redirect().Status(fiber.StatusSeeOther).To(safeRedirect(redirect, paths.Dashboard))
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"redirect": redirect,
		"reason":   c.Query("reason"),
	})
}

func (a *Adapter) signInWithPassword(c fiber.Ctx) error {
	var input core.CredentialsInput
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result := a.auth.SignInWithPassword(c.Context(), jarFor(c), input, c.IP())

	return c.Status(mapFailureToStatus(result.Failure)).JSON(result)
}

func (a *Adapter) signInWithProjectCode(c fiber.Ctx) error {
	var input core.ProjectCodeInput
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result := a.auth.SignInWithProjectCode(c.Context(), jarFor(c), input, c.IP())

	return c.Status(mapFailureToStatus(result.Failure)).JSON(result)
}

func (a *Adapter) signOut(c fiber.Ctx) error {
	a.auth.SignOut(jarFor(c))
	return c.Redirect().Status(fiber.StatusSeeOther).To(a.auth.Paths().Login)
}

func (a *Adapter) session(c fiber.Ctx, session *core.SessionRecord) error {
	return c.Status(http.StatusOK).JSON(session)
}

func (a *Adapter) projects(c fiber.Ctx, session *core.SessionRecord) error {
	projects, err := a.listProjects(c, session)
	if err != nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "projects unavailable",
		})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"projects": projects,
	})
}

// dashboard returns the landing state: the session, its projects, the project
// picked by ?project= (else the first one) and the one-time welcome flag.
func (a *Adapter) dashboard(c fiber.Ctx, session *core.SessionRecord) error {
	projects, err := a.listProjects(c, session)
	if err != nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "projects unavailable",
		})
	}

	var selected *core.Project
	if slug := c.Query("project"); slug != "" {
		for _, p := range projects {
			if p.Slug == slug {
				selected = p
				break
			}
		}
	}
	if selected == nil && len(projects) > 0 {
		selected = projects[0]
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"session":  session,
		"projects": projects,
		"selected": selected,
		"welcome":  c.Query("welcome") == "1",
	})
}

func (a *Adapter) listProjects(c fiber.Ctx, session *core.SessionRecord) ([]*core.Project, error) {
	if !session.HasClient() {
		return []*core.Project{}, nil
	}

	projects, err := a.auth.ListProjects(c.Context(), *session.ClientID)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []*core.Project{}
	}
	return projects, nil
}

// safeRedirect returns target when it is a local absolute path, else fallback.
func safeRedirect(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}

// mapFailureToStatus maps login failure kinds to HTTP status codes
func mapFailureToStatus(kind core.FailureKind) int {
	switch kind {
	case core.FailureNone:
		return http.StatusOK

	case core.FailureValidation:
		return http.StatusBadRequest

	case core.FailureLookup:
		return http.StatusUnauthorized

	case core.FailureThrottled:
		return http.StatusTooManyRequests

	case core.FailureTransport:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
