package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "jamde/internal/log"
	"jamde/internal/services"
	"jamde/internal/validate"
)

type WishlistHandler struct {
	Wish *services.WishlistService
}

// GET /account/wishlist
func (h *WishlistHandler) List(c *fiber.Ctx) error {
	items, err := h.Wish.List(c.UserContext(), principal(c).UserID)
	if err != nil {
		return fail(c, "wishlist.list", err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// POST /account/wishlist
func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	var in struct {
		ProductID string `json:"productId" form:"productId"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request format")
	}
	pid, ok := validate.ID(in.ProductID)
	if !ok {
		return badRequest(c, "productId", "missing productId")
	}
	if err := h.Wish.Save(c.UserContext(), principal(c).UserID, pid); err != nil {
		return fail(c, "wishlist.save", err)
	}
	applog.Audit(c, "wishlist.save", map[string]any{"product": pid})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"productId": pid})
}

// DELETE /account/wishlist/:productId
func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("productId"))
	if !ok {
		return badRequest(c, "productId", "missing productId")
	}
	if err := h.Wish.Unsave(c.UserContext(), principal(c).UserID, pid); err != nil {
		return fail(c, "wishlist.unsave", err)
	}
	applog.Audit(c, "wishlist.unsave", map[string]any{"product": pid})
	return c.SendStatus(fiber.StatusNoContent)
}
