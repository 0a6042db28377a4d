package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"jamde/internal/domain"
	applog "jamde/internal/log"
	"jamde/internal/services"
)

const sessionCookie = "sid"

func setSID(c *fiber.Ctx, sid string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   c.Protocol() == "https",
		Expires:  expires,
	})
}

// ensureSID returns the caller's session id, issuing one when the request has none.
// Carts are keyed by it, so anonymous shoppers get one on first contact.
func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies(sessionCookie)
	if sid == "" {
		sid = uuid.NewString()
		setSID(c, sid, time.Time{})
	}
	return sid
}

func principal(c *fiber.Ctx) domain.Principal {
	p, _ := c.Locals("principal").(domain.Principal)
	return p
}

// Authenticate resolves the session cookie once per request and stores the Principal in Locals.
func Authenticate(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(sessionCookie)
		if sid == "" {
			return c.Next()
		}
		p, err := auth.Principal(c.UserContext(), sid)
		if err != nil {
			applog.Error(c, "auth.session.lookup", err, nil)
		}
		c.Locals("principal", p)
		return c.Next()
	}
}

// RequireUser sends anonymous callers to the login page.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !principal(c).Authenticated() {
			return c.Redirect("/login")
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := principal(c)
		if !p.Authenticated() {
			return c.Redirect("/login")
		}
		if !p.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"role": string(p.Role)})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}
