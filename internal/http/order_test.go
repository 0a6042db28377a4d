package handlers_test

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderIgnoresClientPrice(t *testing.T) {
	ta := newTestApp(t)

	body := map[string]any{
		"items": []map[string]any{
			{"productId": "prd-001", "quantity": "2", "price": 0.01},
		},
		"shipping": guestShipping(),
	}
	resp, out := call(t, ta.app, newRequest(http.MethodPost, "/orders/create", body))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "body=%v", out)

	assert.NotEmpty(t, out["orderId"])
	assert.Equal(t, 20.0, out["subtotal"])
	assert.Equal(t, 2.0, out["tax"])
	assert.Equal(t, 10.0, out["shippingCost"])
	assert.Equal(t, 32.0, out["total"])

	var stock int
	require.NoError(t, ta.db.Get(&stock, `SELECT stock FROM products WHERE id = 'prd-001'`))
	assert.Equal(t, 3, stock)
}

func TestCreateOrderRejectsBadLinesWithoutWriting(t *testing.T) {
	ta := newTestApp(t)

	cases := []struct {
		name string
		item map[string]any
		code string
	}{
		{"insufficient stock", map[string]any{"productId": "prd-006", "quantity": 10}, "insufficient_stock"},
		{"inactive product", map[string]any{"productId": "prd-007", "quantity": 1}, "product_inactive"},
		{"unknown product", map[string]any{"productId": "prd-999", "quantity": 1}, "invalid_product"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := map[string]any{"items": []map[string]any{tc.item}, "shipping": guestShipping()}
			resp, out := call(t, ta.app, newRequest(http.MethodPost, "/orders/create", body))
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.code, out["code"])
		})
	}
	assert.Equal(t, 0, countOrders(t, ta.db))
}

func TestCreateOrderEmptyItems(t *testing.T) {
	ta := newTestApp(t)

	resp, out := call(t, ta.app, newRequest(http.MethodPost, "/orders/create",
		map[string]any{"items": []any{}, "shipping": guestShipping()}))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No items", out["error"])
}

func TestCreateOrderOwnedBySignedInUser(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.session(t, "sid-ada", "u-ada")

	body := map[string]any{
		"items":    []map[string]any{{"productId": "prd-002", "quantity": 1}},
		"shipping": guestShipping(),
	}
	resp, out := call(t, ta.app, newRequest(http.MethodPost, "/orders/create", body, sid))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var owner string
	require.NoError(t, ta.db.Get(&owner, ta.db.Rebind(`SELECT user_id FROM orders WHERE id = ?`), out["orderId"]))
	assert.Equal(t, "u-ada", owner)

	resp, mine := call(t, ta.app, newRequest(http.MethodGet, "/account/orders/"+out["orderId"].(string), nil, sid))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotNil(t, mine)
}

func TestCheckoutChargesPersistedTotal(t *testing.T) {
	ta := newTestApp(t)

	body := map[string]any{
		"items":    []map[string]any{{"productId": "prd-001", "quantity": 2}},
		"shipping": guestShipping(),
	}
	_, receipt := call(t, ta.app, newRequest(http.MethodPost, "/orders/create", body))
	orderID := receipt["orderId"].(string)

	resp, sess := call(t, ta.app, newRequest(http.MethodPost, "/payments/stripe/checkout",
		map[string]any{"orderId": orderID, "shipping": map[string]any{"email": "someone@else.test", "fullName": "Someone Else"}}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "body=%v", sess)
	assert.Equal(t, "cs_test_"+orderID, sess["id"])
	assert.Equal(t, "https://pay.example/"+orderID, sess["url"])

	require.Len(t, ta.card.got, 1)
	assert.Equal(t, "32", ta.card.got[0].Total.String())
	assert.Equal(t, "guest@example.com", ta.card.got[0].Shipping.Email, "checkout carries the address stored with the order")
	assert.Equal(t, "Guest Buyer", ta.card.got[0].Shipping.FullName)
	assert.Empty(t, ta.mm.got)
}

func TestCheckoutUnknownProviderAndMissingOrder(t *testing.T) {
	ta := newTestApp(t)

	resp, _ := call(t, ta.app, newRequest(http.MethodPost, "/payments/paypal/checkout",
		map[string]any{"orderId": "ord-1"}))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = call(t, ta.app, newRequest(http.MethodPost, "/payments/stripe/checkout",
		map[string]any{"orderId": "does-not-exist"}))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, out := call(t, ta.app, newRequest(http.MethodPost, "/payments/stripe/checkout", map[string]any{}))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "orderId is required", out["error"])
}

func TestCheckoutProviderFailureHidesCause(t *testing.T) {
	ta := newTestApp(t)
	ta.card.err = errors.New("stripe: api key sk_live_secret rejected")

	_, receipt := call(t, ta.app, newRequest(http.MethodPost, "/orders/create", map[string]any{
		"items":    []map[string]any{{"productId": "prd-003", "quantity": 1}},
		"shipping": guestShipping(),
	}))

	var resp *http.Response
	var out map[string]any
	entries := captureLogs(t, func() {
		resp, out = call(t, ta.app, newRequest(http.MethodPost, "/payments/stripe/checkout",
			map[string]any{"orderId": receipt["orderId"]}))
	})
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Something went wrong. Please try again.", out["error"])

	e, ok := findLog(entries, "payment.checkout.fail")
	require.True(t, ok, "expected payment.checkout.fail, got %+v", entries)
	assert.Equal(t, "error", e.Kind)
	assert.Contains(t, e.Error, "sk_live_secret")
}

func TestCheckoutSuccessClearsCart(t *testing.T) {
	ta := newTestApp(t)

	resp, out := call(t, ta.app, newRequest(http.MethodPost, "/cart/items",
		map[string]any{"productId": "prd-004", "quantity": 2}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "body=%v", out)
	sid := cookieValue(resp, "sid")
	require.NotEmpty(t, sid)
	cookie := &http.Cookie{Name: "sid", Value: sid}

	_, cart := call(t, ta.app, newRequest(http.MethodGet, "/cart", nil, cookie))
	require.Len(t, cart["items"], 1)

	req := newRequest(http.MethodGet, "/checkout/success?order_id=ord-42&ps=stripe", nil, cookie)
	req.Header.Set("Accept", "text/html")
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	page, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(page), "ord-42"))

	_, cart = call(t, ta.app, newRequest(http.MethodGet, "/cart", nil, cookie))
	assert.Empty(t, cart["items"])
}
