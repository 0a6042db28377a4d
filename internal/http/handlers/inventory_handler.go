package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"jamde/internal/log"
	"jamde/internal/services"
	"jamde/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// GET /api/v1/availability?productId=
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID := strings.TrimSpace(c.Query("productId"))
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing productId",
		})
	}
	if _, ok := validate.ID(productID); !ok {
		return badRequest(c, "productId", "invalid productId")
	}

	avail, err := h.Inv.CheckAvailability(c.UserContext(), productID)
	if err != nil {
		return fail(c, "availability", err)
	}
	return c.JSON(avail)
}

type stockIn struct {
	Stock *int `json:"stock" form:"stock"`
}

// POST /admin/products/:id/stock
func (h *InventoryHandler) SetStock(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid product id")
	}
	var in stockIn
	if err := c.BodyParser(&in); err != nil || in.Stock == nil {
		return badRequest(c, "stock", "stock is required")
	}
	if err := h.Inv.SetStock(c.UserContext(), pid, *in.Stock); err != nil {
		return fail(c, "admin.inventory.save", err)
	}
	log.Audit(c, "admin.inventory.save", map[string]any{"product": pid, "qty": *in.Stock})
	return c.JSON(fiber.Map{"productId": pid, "stock": *in.Stock})
}

// GET /admin/inventory/low
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	rows, err := h.Inv.LowStock(c.UserContext(), 50)
	if err != nil {
		return fail(c, "admin.inventory.list", err)
	}
	return c.JSON(fiber.Map{"items": rows, "threshold": h.Inv.Threshold})
}
