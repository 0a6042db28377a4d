package handlers

import (
	"github.com/gofiber/fiber/v2"

	"jamde/internal/domain"
	applog "jamde/internal/log"
	"jamde/internal/services"
	"jamde/internal/validate"
)

type OrderHandler struct {
	Cart     *services.CartService
	Order    *services.OrderService
	Payments *services.PaymentService
}

// orderIn is the checkout form. Line prices sent by the client are not decoded at all.
type orderIn struct {
	Items    []cartItemIn        `json:"items"`
	Shipping domain.ShippingInfo `json:"shipping"`
	OrderID  string              `json:"orderId"`
}

// POST /orders/create
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in orderIn
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request format")
	}
	if len(in.Items) == 0 {
		return badRequest(c, "items", "No items")
	}
	lines := make([]services.OrderLine, 0, len(in.Items))
	for _, it := range in.Items {
		lines = append(lines, services.OrderLine{ProductID: it.ProductID, Quantity: int(it.Quantity)})
	}

	r, err := h.Order.CreateOrder(c.UserContext(), principal(c), lines, in.Shipping)
	if err != nil {
		return fail(c, "order.create", err)
	}
	applog.Audit(c, "order.create", map[string]any{"order_id": r.OrderID, "total": r.Total.StringFixed(2)})
	return c.Status(fiber.StatusCreated).JSON(r)
}

// POST /payments/:provider/checkout
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	var in orderIn
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request format")
	}
	orderID, ok := validate.ID(in.OrderID)
	if !ok {
		return badRequest(c, "orderId", "orderId is required")
	}
	provider := c.Params("provider")
	if _, ok := validate.ID(provider); !ok {
		return fail(c, "payment.checkout", domain.ErrNotFound.With("unknown payment provider"))
	}

	sess, err := h.Payments.InitiateCheckout(c.UserContext(), orderID, provider)
	if err != nil {
		return fail(c, "payment.checkout", err)
	}
	applog.Audit(c, "payment.checkout", map[string]any{"order_id": orderID, "provider": provider, "session": sess.ID})
	return c.JSON(sess)
}

// GET /checkout/success clears the shopper's cart. Payment state is settled by the provider
// callback, not here.
func (h *OrderHandler) Success(c *fiber.Ctx) error {
	orderID, _ := validate.ID(c.Query("order_id"))
	if sid := c.Cookies(sessionCookie); sid != "" {
		if err := h.Cart.Clear(c.UserContext(), sid); err != nil {
			applog.Error(c, "checkout.success.clear", err, nil)
		}
	}
	applog.Info(c, "checkout.success", map[string]any{"order_id": orderID, "provider": c.Query("ps")})
	return render(c, "checkout_success", fiber.Map{"OrderID": orderID})
}

// GET /checkout/cancel
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	orderID, _ := validate.ID(c.Query("order_id"))
	applog.Info(c, "checkout.cancel", map[string]any{"order_id": orderID})
	return render(c, "checkout_cancel", fiber.Map{"OrderID": orderID})
}
