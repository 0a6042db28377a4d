// Package payments turns a persisted order into a hosted checkout session at an external
// payment provider. Adapters only build and send the request; they never touch the order.
package payments

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"jamde/internal/domain"
)

type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

type CheckoutRequest struct {
	OrderID  string
	Items    []LineItem
	Shipping domain.ShippingInfo
	Total    decimal.Decimal
}

type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Provider interface {
	Name() string
	InitiateCheckout(ctx context.Context, req CheckoutRequest) (Session, error)
}

// MinorUnits converts a major-unit amount to an integer count of cents, rounding half up.
func MinorUnits(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func returnURL(appURL, path string, q url.Values) string {
	return strings.TrimRight(appURL, "/") + path + "?" + q.Encode()
}

// Registry resolves a provider by name; the empty name selects the default.
type Registry struct {
	byName      map[string]Provider
	defaultName string
}

func NewRegistry(defaultName string, providers ...Provider) *Registry {
	r := &Registry{byName: make(map[string]Provider, len(providers)), defaultName: defaultName}
	for _, p := range providers {
		r.byName[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(name string) (Provider, error) {
	if name == "" {
		name = r.defaultName
	}
	p, ok := r.byName[name]
	if !ok {
		return nil, domain.ErrNotFound.With("payment provider %q is not enabled", name)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	return out
}

func (r *Registry) String() string {
	return fmt.Sprintf("payments(default=%s, %s)", r.defaultName, strings.Join(r.Names(), ","))
}
