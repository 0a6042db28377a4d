package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamde/internal/domain"
	"jamde/internal/payments"
	"jamde/internal/services"
)

type fakeProvider struct {
	name string
	got  payments.CheckoutRequest
	err  error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) InitiateCheckout(_ context.Context, req payments.CheckoutRequest) (payments.Session, error) {
	f.got = req
	if f.err != nil {
		return payments.Session{}, f.err
	}
	return payments.Session{ID: "cs_test_1", URL: "https://pay.example/cs_test_1"}, nil
}

func TestInitiateCheckoutChargesPersistedOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	card := &fakeProvider{name: "stripe"}
	svc := services.NewPaymentService(e.orders, payments.NewRegistry("stripe", card), logrus.New())

	r, err := e.svc.CreateOrder(ctx, domain.Principal{}, []services.OrderLine{{ProductID: "prd-001", Quantity: 2}}, guest())
	require.NoError(t, err)

	sess, err := svc.InitiateCheckout(ctx, r.OrderID, "")
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", sess.ID)

	assert.Equal(t, r.OrderID, card.got.OrderID)
	assert.Equal(t, "buyer@example.com", card.got.Shipping.Email, "the order's address snapshot")
	sum := decimal.Zero
	for _, li := range card.got.Items {
		sum = sum.Add(li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	money(t, "32.00", sum)
	money(t, "32.00", card.got.Total)
	require.Len(t, card.got.Items, 3)
	assert.Equal(t, "Kente Cloth Scarf", card.got.Items[0].Name)
	money(t, "10.00", card.got.Items[0].UnitPrice)

	o, err := e.orders.Get(ctx, r.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)
}

func TestInitiateCheckoutProviderError(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cause := errors.New("card rail down")
	mm := &fakeProvider{name: "flutterwave", err: cause}
	svc := services.NewPaymentService(e.orders, payments.NewRegistry("stripe", &fakeProvider{name: "stripe"}, mm), nil)

	r, err := e.svc.CreateOrder(ctx, domain.Principal{}, []services.OrderLine{{ProductID: "prd-003", Quantity: 1}}, guest())
	require.NoError(t, err)

	_, err = svc.InitiateCheckout(ctx, r.OrderID, "flutterwave")
	require.ErrorIs(t, err, domain.ErrPaymentInit)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))

	o, err := e.orders.Get(ctx, r.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)
	assert.Equal(t, domain.OrderPending, o.Status)
}

func TestInitiateCheckoutPreconditions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := services.NewPaymentService(e.orders, payments.NewRegistry("stripe", &fakeProvider{name: "stripe"}), nil)

	_, err := svc.InitiateCheckout(ctx, "missing", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.InitiateCheckout(ctx, "missing", "paypal")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	r, err := e.svc.CreateOrder(ctx, domain.Principal{}, []services.OrderLine{{ProductID: "prd-003", Quantity: 1}}, guest())
	require.NoError(t, err)
	require.NoError(t, e.orders.UpdatePaymentStatus(ctx, r.OrderID, domain.PaymentPending, domain.PaymentPaid))

	_, err = svc.InitiateCheckout(ctx, r.OrderID, "stripe")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}
