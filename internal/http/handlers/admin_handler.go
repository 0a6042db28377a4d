package handlers

import (
	"github.com/gofiber/fiber/v2"

	"jamde/internal/domain"
	applog "jamde/internal/log"
	"jamde/internal/repos"
	"jamde/internal/services"
	"jamde/internal/validate"
)

// AdminHandler serves the back-office order, user and dashboard screens.
// RequireAdmin guards the whole group.
type AdminHandler struct {
	Admin     *services.AdminService
	Dashboard *services.DashboardService
}

// GET /admin
func (h *AdminHandler) Home(c *fiber.Ctx) error {
	d, err := h.Dashboard.Load(c.UserContext())
	if err != nil {
		return fail(c, "admin.dashboard", err)
	}
	return c.JSON(d)
}

// GET /admin/orders?q=&status=&paymentStatus=&page=
func (h *AdminHandler) Orders(c *fiber.Ctx) error {
	q, qe := adminQuery(c)
	if qe != nil {
		return badRequest(c, qe.field, qe.msg)
	}
	page, err := h.Admin.ListOrders(c.UserContext(), repos.OrderFilter{
		Q:             q,
		Status:        domain.OrderStatus(c.Query("status")),
		PaymentStatus: domain.PaymentStatus(c.Query("paymentStatus")),
		Page:          validate.Page(c.Query("page")),
	})
	if err != nil {
		return fail(c, "admin.orders.list", err)
	}
	return c.JSON(page)
}

func orderID(c *fiber.Ctx) (string, bool) {
	return validate.ID(c.Params("id"))
}

// GET /admin/orders/:id
func (h *AdminHandler) Order(c *fiber.Ctx) error {
	id, ok := orderID(c)
	if !ok {
		return fail(c, "admin.orders.detail", domain.ErrNotFound)
	}
	d, err := h.Admin.Order(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin.orders.detail", err)
	}
	return c.JSON(d)
}

type statusIn struct {
	Status string `json:"status" form:"status"`
}

// POST /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := orderID(c)
	var in statusIn
	if err := c.BodyParser(&in); err != nil || !ok || in.Status == "" {
		return badRequest(c, "status", "missing id or status")
	}
	o, err := h.Admin.SetOrderStatus(c.UserContext(), id, domain.OrderStatus(in.Status))
	if err != nil {
		return fail(c, "admin.orders.status", err)
	}
	applog.Audit(c, "admin.orders.status", map[string]any{"order_id": id, "status": in.Status})
	return c.JSON(o)
}

// POST /admin/orders/:id/payment-status
func (h *AdminHandler) UpdatePaymentStatus(c *fiber.Ctx) error {
	id, ok := orderID(c)
	var in statusIn
	if err := c.BodyParser(&in); err != nil || !ok || in.Status == "" {
		return badRequest(c, "status", "missing id or status")
	}
	o, err := h.Admin.SetPaymentStatus(c.UserContext(), id, domain.PaymentStatus(in.Status))
	if err != nil {
		return fail(c, "admin.orders.payment", err)
	}
	applog.Audit(c, "admin.orders.payment", map[string]any{"order_id": id, "payment_status": in.Status})
	return c.JSON(o)
}

// POST /admin/orders/:id/refund
func (h *AdminHandler) Refund(c *fiber.Ctx) error {
	id, ok := orderID(c)
	if !ok {
		return fail(c, "admin.orders.refund", domain.ErrNotFound)
	}
	o, err := h.Admin.Refund(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin.orders.refund", err)
	}
	applog.Audit(c, "admin.orders.refund", map[string]any{"order_id": id, "total": o.Total.StringFixed(2)})
	return c.JSON(o)
}

// GET /admin/users?q=&page=
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	q, qe := adminQuery(c)
	if qe != nil {
		return badRequest(c, qe.field, qe.msg)
	}
	page, err := h.Admin.ListUsers(c.UserContext(), q, validate.Page(c.Query("page")))
	if err != nil {
		return fail(c, "admin.users.list", err)
	}
	return c.JSON(page)
}

// GET /admin/users/:id
func (h *AdminHandler) User(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "admin.users.detail", domain.ErrNotFound)
	}
	d, err := h.Admin.User(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin.users.detail", err)
	}
	return c.JSON(d)
}

// POST /admin/users/:id/role
func (h *AdminHandler) ChangeRole(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	var in struct {
		Role string `json:"role" form:"role"`
	}
	if err := c.BodyParser(&in); err != nil || !ok || in.Role == "" {
		return badRequest(c, "role", "missing id or role")
	}
	u, err := h.Admin.ChangeRole(c.UserContext(), id, domain.Role(in.Role))
	if err != nil {
		return fail(c, "admin.users.role", err)
	}
	applog.Audit(c, "admin.users.role", map[string]any{"user_id": id, "role": in.Role})
	return c.JSON(u)
}

// POST /admin/users/:id/delete cancels the user's open orders and keeps them detached.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "missing id")
	}
	if err := h.Admin.DeleteUser(c.UserContext(), id); err != nil {
		return fail(c, "admin.users.delete", err)
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	return c.JSON(fiber.Map{"deleted": id})
}
