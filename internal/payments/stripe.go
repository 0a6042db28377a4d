package payments

import (
	"context"
	"net/url"
	"strings"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"

	"jamde/internal/domain"
)

// SessionCreator matches checkout/session.New; tests swap in a fake.
type SessionCreator func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)

// Stripe is the card-rail adapter. Amounts are sent as integer cents.
type Stripe struct {
	AppURL   string
	Currency string
	Create   SessionCreator
}

func NewStripe(secretKey, appURL, currency string) *Stripe {
	stripe.Key = secretKey
	return &Stripe{AppURL: appURL, Currency: strings.ToLower(currency), Create: session.New}
}

func (s *Stripe) Name() string { return "stripe" }

// BuildParams is exported so the encoding can be inspected without a network call.
func (s *Stripe) BuildParams(req CheckoutRequest) *stripe.CheckoutSessionParams {
	success := returnURL(s.AppURL, "/checkout/success", url.Values{"ps": {"stripe"}, "order_id": {req.OrderID}})
	// placeholder is substituted by the provider, so it must stay unescaped
	success += "&session_id={CHECKOUT_SESSION_ID}"

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(success),
		CancelURL:         stripe.String(returnURL(s.AppURL, "/checkout/cancel", url.Values{"order_id": {req.OrderID}})),
		ClientReferenceID: stripe.String(req.OrderID),
	}
	if req.Shipping.Email != "" {
		params.CustomerEmail = stripe.String(req.Shipping.Email)
	}
	for _, it := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(s.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{Name: stripe.String(it.Name)},
				UnitAmount:  stripe.Int64(MinorUnits(it.UnitPrice)),
			},
			Quantity: stripe.Int64(int64(it.Quantity)),
		})
	}
	params.AddMetadata("orderId", req.OrderID)
	for k, v := range shippingMetadata(req.Shipping) {
		params.AddMetadata(k, v)
	}
	return params
}

// stripeMetadataMax is the longest value Stripe accepts for one metadata key.
const stripeMetadataMax = 500

// shippingMetadata spreads the address over one key per field, each clipped to what
// Stripe accepts, so a long address cannot fail the session.
func shippingMetadata(s domain.ShippingInfo) map[string]string {
	out := map[string]string{}
	for k, v := range map[string]string{
		"ship_email":    s.Email,
		"ship_name":     s.FullName,
		"ship_phone":    s.Phone,
		"ship_line1":    s.AddressLine1,
		"ship_line2":    s.AddressLine2,
		"ship_city":     s.City,
		"ship_state":    s.State,
		"ship_postcode": s.PostalCode,
		"ship_country":  s.Country,
	} {
		if v == "" {
			continue
		}
		if r := []rune(v); len(r) > stripeMetadataMax {
			v = string(r[:stripeMetadataMax])
		}
		out[k] = v
	}
	return out
}

func (s *Stripe) InitiateCheckout(ctx context.Context, req CheckoutRequest) (Session, error) {
	params := s.BuildParams(req)
	params.Context = ctx
	cs, err := s.Create(params)
	if err != nil {
		return Session{}, err
	}
	return Session{ID: cs.ID, URL: cs.URL}, nil
}
