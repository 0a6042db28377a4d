package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"jamde/internal/domain"
	applog "jamde/internal/log"
	"jamde/internal/services"
	"jamde/internal/validate"
)

type SellerHandler struct {
	Sellers *services.SellerService
}

type applicationIn struct {
	BusinessName        string `json:"businessName"`
	OwnerName           string `json:"ownerName"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	CraftType           string `json:"craftType"`
	BusinessDescription string `json:"businessDescription"`
	YearsExperience     string `json:"yearsExperience"`
	Location            string `json:"location"`
	Website             string `json:"website"`
}

func applyFailed(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": msg})
}

// POST /seller-applications answers {success, id} or {success:false, error}.
func (h *SellerHandler) Apply(c *fiber.Ctx) error {
	var in applicationIn
	if err := c.BodyParser(&in); err != nil {
		return applyFailed(c, "Invalid request format")
	}
	app, err := h.Sellers.Apply(c.UserContext(), domain.SellerApplication{
		BusinessName:        in.BusinessName,
		OwnerName:           in.OwnerName,
		Email:               in.Email,
		Phone:               in.Phone,
		CraftType:           in.CraftType,
		BusinessDescription: in.BusinessDescription,
		YearsExperience:     in.YearsExperience,
		Location:            in.Location,
		Website:             in.Website,
	})
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		applog.Info(c, "seller.apply.rejected", map[string]any{"code": "duplicate"})
		return applyFailed(c, "An application with this email already exists")
	case domain.KindOf(err) == domain.KindValidation:
		applog.Info(c, "seller.apply.rejected", map[string]any{"code": "invalid_input"})
		return applyFailed(c, "All required fields must be provided")
	case err != nil:
		applog.Error(c, "seller.apply.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Failed to submit application"})
	}
	applog.Audit(c, "seller.apply", map[string]any{"application_id": app.ID})
	return c.JSON(fiber.Map{"success": true, "id": app.ID})
}

// GET /admin/seller-applications?status=&page=
func (h *SellerHandler) List(c *fiber.Ctx) error {
	page, err := h.Sellers.List(c.UserContext(), domain.ApplicationStatus(c.Query("status")), validate.Page(c.Query("page")))
	if err != nil {
		return fail(c, "admin.sellers.list", err)
	}
	return c.JSON(page)
}

// GET /admin/seller-applications/:id
func (h *SellerHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "admin.sellers.detail", domain.ErrNotFound)
	}
	app, err := h.Sellers.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin.sellers.detail", err)
	}
	return c.JSON(app)
}

// POST /admin/seller-applications/:id/status
func (h *SellerHandler) SetStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "admin.sellers.status", domain.ErrNotFound)
	}
	var in struct {
		Status string `json:"status" form:"status"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request format")
	}
	app, err := h.Sellers.SetStatus(c.UserContext(), id, domain.ApplicationStatus(in.Status))
	if err != nil {
		return fail(c, "admin.sellers.status", err)
	}
	applog.Audit(c, "admin.sellers.status", map[string]any{"application_id": id, "status": in.Status})
	return c.JSON(app)
}
