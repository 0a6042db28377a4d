package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Flutterwave is the mobile-money adapter. It talks to the hosted payments endpoint
// directly; amounts are decimal major units.
type Flutterwave struct {
	BaseURL   string
	SecretKey string
	AppURL    string
	Currency  string
	Client    *http.Client
}

func NewFlutterwave(baseURL, secretKey, appURL, currency string) *Flutterwave {
	return &Flutterwave{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		SecretKey: secretKey,
		AppURL:    appURL,
		Currency:  strings.ToUpper(currency),
		Client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (f *Flutterwave) Name() string { return "flutterwave" }

type flwCustomer struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phonenumber,omitempty"`
}

type flwItem struct {
	Name     string      `json:"name"`
	Quantity int         `json:"qty"`
	Price    json.Number `json:"price"`
}

type flwMeta struct {
	OrderID  string    `json:"orderId"`
	Shipping string    `json:"shipping"`
	Items    []flwItem `json:"items"`
}

type flwPaymentRequest struct {
	TxRef       string      `json:"tx_ref"`
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	RedirectURL string      `json:"redirect_url"`
	Customer    flwCustomer `json:"customer"`
	Meta        flwMeta     `json:"meta"`
}

type flwPaymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

func TxRef(orderID string) string { return "tx_" + orderID }

func (f *Flutterwave) BuildRequest(req CheckoutRequest) flwPaymentRequest {
	ref := TxRef(req.OrderID)
	name := req.Shipping.FullName
	if name == "" {
		name = "Customer"
	}
	body := flwPaymentRequest{
		TxRef:       ref,
		Amount:      json.Number(req.Total.StringFixed(2)),
		Currency:    f.Currency,
		RedirectURL: returnURL(f.AppURL, "/checkout/success", url.Values{"ps": {"flutterwave"}, "order_id": {req.OrderID}, "tx_ref": {ref}}),
		Customer:    flwCustomer{Email: req.Shipping.Email, Name: name, PhoneNumber: req.Shipping.Phone},
		Meta:        flwMeta{OrderID: req.OrderID, Shipping: req.Shipping.JSON()},
	}
	for _, it := range req.Items {
		body.Meta.Items = append(body.Meta.Items, flwItem{Name: it.Name, Quantity: it.Quantity, Price: json.Number(it.UnitPrice.StringFixed(2))})
	}
	return body
}

func (f *Flutterwave) InitiateCheckout(ctx context.Context, req CheckoutRequest) (Session, error) {
	payload, err := json.Marshal(f.BuildRequest(req))
	if err != nil {
		return Session{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+"/v3/payments", bytes.NewReader(payload))
	if err != nil {
		return Session{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+f.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.Client.Do(httpReq)
	if err != nil {
		return Session{}, fmt.Errorf("flutterwave: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Session{}, fmt.Errorf("flutterwave: read response: %w", err)
	}

	var out flwPaymentResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Session{}, fmt.Errorf("flutterwave: status %d: undecodable response", resp.StatusCode)
	}
	if resp.StatusCode >= 300 || out.Status != "success" || out.Data.Link == "" {
		return Session{}, fmt.Errorf("flutterwave: status %d: %s", resp.StatusCode, out.Message)
	}
	return Session{ID: TxRef(req.OrderID), URL: out.Data.Link}, nil
}
