package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"jamde/internal/domain"
	applog "jamde/internal/log"
)

const genericMessage = "Something went wrong. Please try again."

func init() {
	// money goes out as JSON numbers: {"total": 32}
	decimal.MarshalJSONWithoutQuotes = true
}

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if p := principal(c); p.Authenticated() {
		data["Principal"] = p
	}
	if tok := csrfToken(c); tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

// csrfToken is the token the csrf middleware stored for this request, or the cookie copy.
func csrfToken(c *fiber.Ctx) string {
	if tok, ok := c.Locals("csrf").(string); ok && tok != "" {
		return tok
	}
	return c.Cookies("csrf_")
}

var statusByKind = map[domain.ErrorKind]int{
	domain.KindValidation:    fiber.StatusBadRequest,
	domain.KindAuth:          fiber.StatusUnauthorized,
	domain.KindAuthorization: fiber.StatusForbidden,
	domain.KindNotFound:      fiber.StatusNotFound,
	domain.KindConflict:      fiber.StatusConflict,
	domain.KindUpstream:      fiber.StatusInternalServerError,
}

func statusOf(err error) int {
	if st, ok := statusByKind[domain.KindOf(err)]; ok {
		return st
	}
	return fiber.StatusInternalServerError
}

// fail writes the JSON error body for err. Client errors carry the domain message and code;
// anything else is logged in full and answered with a generic message.
func fail(c *fiber.Ctx, action string, err error) error {
	st := statusOf(err)
	var de *domain.Error
	if st >= fiber.StatusInternalServerError || !errors.As(err, &de) {
		c.Status(st)
		applog.Error(c, action+".fail", err, nil)
		return c.JSON(fiber.Map{"error": genericMessage})
	}
	c.Status(st)
	fields := map[string]any{"code": de.Code}
	if st == fiber.StatusForbidden {
		applog.Security(c, action+".denied", fields)
	} else {
		applog.Info(c, action+".rejected", fields)
	}
	return c.JSON(fiber.Map{"error": de.Msg, "code": de.Code})
}

// badRequest answers a malformed request before any service call.
func badRequest(c *fiber.Ctx, field, msg string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg, "code": domain.ErrInvalidInput.Code})
}

func wantsHTML(c *fiber.Ctx) bool {
	if strings.HasPrefix(c.Path(), "/api/") {
		return false
	}
	return c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMETextHTML
}

// ErrorHandler is the app-level fallback for errors no handler answered itself.
func ErrorHandler(c *fiber.Ctx, err error) error {
	st := fiber.StatusInternalServerError
	msg := genericMessage
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		st = fe.Code
		if st < fiber.StatusInternalServerError {
			msg = fe.Message
		}
	case domain.KindOf(err) != domain.KindUnknown:
		return fail(c, "request", err)
	}
	if st >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	if wantsHTML(c) {
		if rerr := c.Status(st).Render("notfound", fiber.Map{"Message": msg}); rerr == nil {
			return nil
		}
	}
	return c.Status(st).JSON(fiber.Map{"error": msg})
}

// NotFound is mounted last and answers every unmatched route.
func NotFound(c *fiber.Ctx) error {
	if wantsHTML(c) {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	}
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
}
