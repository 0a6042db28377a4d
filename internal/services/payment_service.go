package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"jamde/internal/domain"
	"jamde/internal/metrics"
	"jamde/internal/payments"
	"jamde/internal/repos"
)

type PaymentService struct {
	Orders    *repos.OrderRepo
	Providers *payments.Registry
	Log       logrus.FieldLogger
}

func NewPaymentService(orders *repos.OrderRepo, providers *payments.Registry, log logrus.FieldLogger) *PaymentService {
	return &PaymentService{Orders: orders, Providers: providers, Log: log}
}

// checkoutLines prices the session from the stored order so the provider charges exactly
// the order total: one line per item plus shipping and tax lines when non-zero.
func checkoutLines(o domain.Order, items []domain.OrderItem) []payments.LineItem {
	lines := make([]payments.LineItem, 0, len(items)+2)
	for _, it := range items {
		lines = append(lines, payments.LineItem{Name: it.Name, UnitPrice: it.Price, Quantity: it.Quantity})
	}
	if o.ShippingCost.GreaterThan(decimal.Zero) {
		lines = append(lines, payments.LineItem{Name: "Shipping", UnitPrice: o.ShippingCost, Quantity: 1})
	}
	if o.Tax.GreaterThan(decimal.Zero) {
		lines = append(lines, payments.LineItem{Name: "Tax", UnitPrice: o.Tax, Quantity: 1})
	}
	return lines
}

// InitiateCheckout opens a hosted checkout at the named provider (empty selects the default)
// for an existing order still awaiting payment. The order row is never modified here, and
// the provider only sees the address snapshot taken at order time.
func (s *PaymentService) InitiateCheckout(ctx context.Context, orderID, provider string) (payments.Session, error) {
	p, err := s.Providers.Get(provider)
	if err != nil {
		return payments.Session{}, err
	}
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return payments.Session{}, err
	}
	if o.PaymentStatus != domain.PaymentPending {
		return payments.Session{}, domain.ErrInvalidTransition.With("order %s is already %s", o.ID, o.PaymentStatus)
	}
	items, err := s.Orders.Items(ctx, o.ID)
	if err != nil {
		return payments.Session{}, err
	}
	sess, err := p.InitiateCheckout(ctx, payments.CheckoutRequest{
		OrderID:  o.ID,
		Items:    checkoutLines(o, items),
		Shipping: o.Shipping(),
		Total:    o.Total,
	})
	if err != nil {
		metrics.CheckoutSessions.WithLabelValues(p.Name(), "error").Inc()
		if s.Log != nil {
			s.Log.WithError(err).WithFields(logrus.Fields{"order_id": o.ID, "provider": p.Name()}).Error("payment.init.fail")
		}
		return payments.Session{}, domain.ErrPaymentInit.Wrap(err)
	}
	metrics.CheckoutSessions.WithLabelValues(p.Name(), "ok").Inc()
	if s.Log != nil {
		s.Log.WithFields(logrus.Fields{"order_id": o.ID, "provider": p.Name(), "session_id": sess.ID}).Info("payment.init")
	}
	return sess, nil
}
