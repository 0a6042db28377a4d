package payments_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"

	"jamde/internal/domain"
	"jamde/internal/payments"
)

func sampleRequest() payments.CheckoutRequest {
	return payments.CheckoutRequest{
		OrderID: "ord-1",
		Items: []payments.LineItem{
			{Name: "Kente Scarf", UnitPrice: decimal.RequireFromString("10.005"), Quantity: 2},
			{Name: "Shipping", UnitPrice: decimal.RequireFromString("10"), Quantity: 1},
		},
		Shipping: domain.ShippingInfo{Email: "ada@example.com", FullName: "Ada O", Phone: "+2348000000"},
		Total:    decimal.RequireFromString("32"),
	}
}

func TestMinorUnitsRoundsHalfUp(t *testing.T) {
	assert.EqualValues(t, 1001, payments.MinorUnits(decimal.RequireFromString("10.005")))
	assert.EqualValues(t, 1000, payments.MinorUnits(decimal.RequireFromString("10.004")))
	assert.EqualValues(t, 3200, payments.MinorUnits(decimal.RequireFromString("32")))
}

func TestStripeSessionParams(t *testing.T) {
	s := &payments.Stripe{AppURL: "https://shop.test/", Currency: "usd"}
	var got *stripe.CheckoutSessionParams
	s.Create = func(p *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		got = p
		return &stripe.CheckoutSession{ID: "cs_123", URL: "https://checkout.stripe.test/cs_123"}, nil
	}

	sess, err := s.InitiateCheckout(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, payments.Session{ID: "cs_123", URL: "https://checkout.stripe.test/cs_123"}, sess)

	require.NotNil(t, got)
	assert.Equal(t, "payment", *got.Mode)
	assert.Equal(t, "https://shop.test/checkout/success?order_id=ord-1&ps=stripe&session_id={CHECKOUT_SESSION_ID}", *got.SuccessURL)
	assert.Equal(t, "https://shop.test/checkout/cancel?order_id=ord-1", *got.CancelURL)
	require.Len(t, got.LineItems, 2)
	assert.EqualValues(t, 1001, *got.LineItems[0].PriceData.UnitAmount)
	assert.EqualValues(t, 2, *got.LineItems[0].Quantity)
	assert.Equal(t, "usd", *got.LineItems[0].PriceData.Currency)
	assert.Equal(t, "ord-1", got.Metadata["orderId"])
	assert.Equal(t, "ada@example.com", got.Metadata["ship_email"])
	assert.Equal(t, "Ada O", got.Metadata["ship_name"])
	assert.NotContains(t, got.Metadata, "ship_city")
}

func TestStripeMetadataFitsLongAddress(t *testing.T) {
	s := &payments.Stripe{AppURL: "https://shop.test", Currency: "usd"}
	req := sampleRequest()
	req.Shipping.AddressLine1 = strings.Repeat("Plot 7, Adum Road ", 40)
	req.Shipping.AddressLine2 = strings.Repeat("ó", 600)
	req.Shipping.City = "Kumasi"

	got := s.BuildParams(req)
	for k, v := range got.Metadata {
		assert.LessOrEqual(t, len([]rune(v)), 500, k)
	}
	assert.Equal(t, "Kumasi", got.Metadata["ship_city"])
	assert.Equal(t, "ord-1", got.Metadata["orderId"])
}

func TestStripeErrorPropagates(t *testing.T) {
	s := &payments.Stripe{AppURL: "https://shop.test", Currency: "usd"}
	s.Create = func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		return nil, errors.New("card_declined")
	}
	_, err := s.InitiateCheckout(context.Background(), sampleRequest())
	assert.EqualError(t, err, "card_declined")
}

func TestFlutterwaveCheckout(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/payments", r.URL.Path)
		assert.Equal(t, "Bearer FLWSECK_TEST-x", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"status":"success","message":"Hosted Link","data":{"link":"https://checkout.flutterwave.test/pay/abc"}}`))
	}))
	defer srv.Close()

	f := payments.NewFlutterwave(srv.URL, "FLWSECK_TEST-x", "https://shop.test", "ngn")
	sess, err := f.InitiateCheckout(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "tx_ord-1", sess.ID)
	assert.Equal(t, "https://checkout.flutterwave.test/pay/abc", sess.URL)

	assert.Equal(t, "tx_ord-1", body["tx_ref"])
	assert.Equal(t, 32.0, body["amount"])
	assert.Equal(t, "NGN", body["currency"])
	redirect, err := url.Parse(body["redirect_url"].(string))
	require.NoError(t, err)
	assert.Equal(t, "ord-1", redirect.Query().Get("order_id"))
	assert.Equal(t, "flutterwave", redirect.Query().Get("ps"))
	customer := body["customer"].(map[string]any)
	assert.Equal(t, "ada@example.com", customer["email"])
	meta := body["meta"].(map[string]any)
	assert.Equal(t, "ord-1", meta["orderId"])
}

func TestFlutterwaveUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","message":"Invalid authorization key","data":null}`))
	}))
	defer srv.Close()

	f := payments.NewFlutterwave(srv.URL, "FLWSECK_bad", "https://shop.test", "NGN")
	_, err := f.InitiateCheckout(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Invalid authorization key"))
}

func TestRegistryDefault(t *testing.T) {
	s := &payments.Stripe{}
	f := payments.NewFlutterwave("http://x", "k", "http://y", "NGN")
	r := payments.NewRegistry("flutterwave", s, f)

	p, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, "flutterwave", p.Name())

	p, err = r.Get("stripe")
	require.NoError(t, err)
	assert.Equal(t, "stripe", p.Name())

	_, err = r.Get("paypal")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
