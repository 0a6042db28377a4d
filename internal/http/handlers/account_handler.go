package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"jamde/internal/domain"
	applog "jamde/internal/log"
	"jamde/internal/services"
	"jamde/internal/validate"
)

// AccountHandler serves /account/*. RequireUser runs first, so principal(c) is always set.
type AccountHandler struct {
	Account *services.AccountService
}

// GET /account
func (h *AccountHandler) Summary(c *fiber.Ctx) error {
	s, err := h.Account.Summary(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, "account.summary", err)
	}
	return c.JSON(s)
}

// GET /account/profile
func (h *AccountHandler) Profile(c *fiber.Ctx) error {
	s, err := h.Account.Summary(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, "account.profile", err)
	}
	return c.JSON(s.User)
}

// POST /account/profile
func (h *AccountHandler) UpdateProfile(c *fiber.Ctx) error {
	var in struct {
		Name string `json:"name" form:"name"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request format")
	}
	u, err := h.Account.UpdateName(c.UserContext(), principal(c), in.Name)
	if err != nil {
		return fail(c, "account.profile", err)
	}
	applog.Audit(c, "account.profile.update", nil)
	return c.JSON(u)
}

// GET /account/orders
func (h *AccountHandler) Orders(c *fiber.Ctx) error {
	orders, err := h.Account.ListOrders(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, "account.orders", err)
	}
	return c.JSON(fiber.Map{"items": orders})
}

// GET /account/orders/:id
func (h *AccountHandler) Order(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "account.order", domain.ErrNotFound.With("order not found"))
	}
	d, err := h.Account.Order(c.UserContext(), principal(c), oid)
	if errors.Is(err, domain.ErrNotFound) {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	if err != nil {
		return fail(c, "account.order", err)
	}
	return c.JSON(d)
}

// GET /account/addresses
func (h *AccountHandler) Addresses(c *fiber.Ctx) error {
	rows, err := h.Account.ListAddresses(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, "account.addresses", err)
	}
	return c.JSON(fiber.Map{"items": rows})
}

type addressIn struct {
	domain.Address
	IsDefault bool `json:"isDefault" form:"isDefault"`
}

// POST /account/addresses
func (h *AccountHandler) AddAddress(c *fiber.Ctx) error {
	var in addressIn
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request format")
	}
	a := in.Address
	a.ID, a.UserID, a.IsDefault = "", "", false
	created, err := h.Account.AddAddress(c.UserContext(), principal(c), a, in.IsDefault)
	if err != nil {
		return fail(c, "account.addresses.add", err)
	}
	applog.Audit(c, "account.addresses.add", map[string]any{"address_id": created.ID, "default": created.IsDefault})
	return c.Status(fiber.StatusCreated).JSON(created)
}

// DELETE /account/addresses/:id
func (h *AccountHandler) DeleteAddress(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "account.addresses.delete", domain.ErrNotFound)
	}
	if err := h.Account.DeleteAddress(c.UserContext(), principal(c), id); err != nil {
		return fail(c, "account.addresses.delete", err)
	}
	applog.Audit(c, "account.addresses.delete", map[string]any{"address_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /account/addresses/:id/default
func (h *AccountHandler) SetDefaultAddress(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "account.addresses.default", domain.ErrNotFound)
	}
	if err := h.Account.SetDefaultAddress(c.UserContext(), principal(c), id); err != nil {
		return fail(c, "account.addresses.default", err)
	}
	applog.Audit(c, "account.addresses.default", map[string]any{"address_id": id})
	return c.JSON(fiber.Map{"ok": true, "defaultAddressId": id})
}
