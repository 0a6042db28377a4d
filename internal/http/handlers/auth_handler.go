package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"jamde/internal/domain"
	"jamde/internal/log"
	"jamde/internal/repos"
	"jamde/internal/services"
	"jamde/internal/validate"
)

type AuthHandler struct {
	Auth  *services.AuthService
	Carts *repos.CartRepo
}

type credentials struct {
	Email    string `json:"email" form:"email"`
	Name     string `json:"name" form:"name"`
	Password string `json:"password" form:"password"`
}

// LoginForm hands out the CSRF token the client must echo in X-Csrf-Token.
func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"csrfToken": csrfToken(c)})
}

// rotateSID issues a fresh session id so a pre-login id cannot be reused after sign-in.
// The guest cart follows the caller to the new id.
func (h *AuthHandler) rotateSID(c *fiber.Ctx) string {
	sid := uuid.NewString()
	if old := c.Cookies(sessionCookie); old != "" && h.Carts != nil {
		if err := h.Carts.Move(c.UserContext(), old, sid); err != nil {
			log.Error(c, "cart.handover", err, nil)
		}
	}
	setSID(c, sid, time.Time{})
	return sid
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request format")
	}
	sid := h.rotateSID(c)
	u, err := h.Auth.Signup(c.UserContext(), sid, in.Email, in.Name, in.Password)
	if err != nil {
		return fail(c, "auth.signup", err)
	}
	c.Locals("principal", domain.Principal{UserID: u.ID, Role: u.Role})
	log.Audit(c, "auth.signup", map[string]any{"email": u.Email})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": u})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request format")
	}
	email, ok := validate.Email(in.Email)
	if !ok || in.Password == "" {
		log.Security(c, "auth.login.fail", map[string]any{"reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": domain.ErrBadCredentials.Msg})
	}

	sid := h.rotateSID(c)
	u, err := h.Auth.Login(c.UserContext(), sid, email, in.Password)
	if err != nil {
		if domain.KindOf(err) == domain.KindAuth {
			log.Security(c, "auth.login.fail", map[string]any{"email": email})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": domain.ErrBadCredentials.Msg})
		}
		return fail(c, "auth.login", err)
	}
	c.Locals("principal", domain.Principal{UserID: u.ID, Role: u.Role})
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.JSON(fiber.Map{"user": u})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies(sessionCookie); sid != "" {
		if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
			log.Error(c, "auth.logout", err, nil)
		}
	}
	setSID(c, "", time.Now().Add(-time.Hour))
	log.Audit(c, "auth.logout", nil)
	return c.JSON(fiber.Map{"ok": true})
}
