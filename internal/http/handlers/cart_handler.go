package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"jamde/internal/services"
	"jamde/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

// looseInt accepts 2, 2.0 and "2". Anything unreadable decodes to 0 and the service
// applies its default.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f < 1e6 {
		*n = looseInt(f)
	} else {
		*n = 0
	}
	return nil
}

func (n *looseInt) UnmarshalText(b []byte) error {
	return n.UnmarshalJSON(b)
}

type cartItemIn struct {
	ProductID string   `json:"productId" form:"productId"`
	Quantity  looseInt `json:"quantity" form:"quantity"`
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), ensureSID(c))
	if err != nil {
		return fail(c, "cart.view", err)
	}
	return c.JSON(cv)
}

// POST /cart/items
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var in cartItemIn
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request format")
	}
	pid, ok := validate.ID(in.ProductID)
	if !ok {
		return badRequest(c, "productId", "missing productId")
	}
	qty := int(in.Quantity)
	if qty < 1 {
		qty = 1
	}
	cv, err := h.Cart.Add(c.UserContext(), sid, pid, qty)
	if err != nil {
		return fail(c, "cart.add", err)
	}
	return c.JSON(cv)
}

// PATCH /cart/items/:productId
func (h *CartHandler) Update(c *fiber.Ctx) error {
	sid := ensureSID(c)
	pid, ok := validate.ID(c.Params("productId"))
	if !ok {
		return badRequest(c, "productId", "missing productId")
	}
	var in cartItemIn
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request format")
	}
	cv, err := h.Cart.Update(c.UserContext(), sid, pid, int(in.Quantity))
	if err != nil {
		return fail(c, "cart.update", err)
	}
	return c.JSON(cv)
}

// DELETE /cart/items/:productId
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	pid, ok := validate.ID(c.Params("productId"))
	if !ok {
		return badRequest(c, "productId", "missing productId")
	}
	cv, err := h.Cart.Remove(c.UserContext(), sid, pid)
	if err != nil {
		return fail(c, "cart.remove", err)
	}
	return c.JSON(cv)
}

// DELETE /cart
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cart.Clear(c.UserContext(), ensureSID(c)); err != nil {
		return fail(c, "cart.clear", err)
	}
	return h.View(c)
}
