package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamde/internal/domain"
	"jamde/internal/repos"
	"jamde/internal/services"
)

type env struct {
	db     *sqlx.DB
	prods  *repos.ProductRepo
	users  *repos.UserRepo
	orders *repos.OrderRepo
	inv    *repos.InventoryRepo
	svc    *services.OrderService
	hook   *test.Hook
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger, hook := test.NewNullLogger()
	e := &env{
		db:     db,
		prods:  repos.NewProductRepo(db),
		users:  repos.NewUserRepo(db),
		orders: repos.NewOrderRepo(db),
		inv:    repos.NewInventoryRepo(db),
		hook:   hook,
	}
	e.svc = services.NewOrderService(db, e.prods, e.users, e.orders, e.inv, 0.10, 10, logger)
	return e
}

func guest() domain.ShippingInfo {
	return domain.ShippingInfo{Email: "Buyer@Example.com", FullName: "Guest Buyer", City: "Lagos", Country: "NG"}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func money(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func stock(t *testing.T, e *env, id string) int {
	t.Helper()
	qty, _, err := e.inv.Stock(context.Background(), id)
	require.NoError(t, err)
	return qty
}

func noOrders(t *testing.T, e *env) {
	t.Helper()
	o, i, err := e.orders.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, o, "orders written")
	assert.Zero(t, i, "order items written")
}

func TestCreateOrderComputesTotalsFromServerPrices(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	r, err := e.svc.CreateOrder(ctx, domain.Principal{}, []services.OrderLine{{ProductID: "prd-001", Quantity: 2}}, guest())
	require.NoError(t, err)

	money(t, "20.00", r.Subtotal)
	money(t, "2.00", r.Tax)
	money(t, "10.00", r.ShippingCost)
	money(t, "32.00", r.Total)
	assert.True(t, r.Total.Equal(r.Subtotal.Add(r.Tax).Add(r.ShippingCost)))
	assert.Equal(t, 3, stock(t, e, "prd-001"))

	o, err := e.orders.Get(ctx, r.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, o.Status)
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)
	money(t, "32.00", o.Total)
	assert.Equal(t, "buyer@example.com", o.Shipping().Email)

	u, err := e.users.ByEmail(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.True(t, u.Guest())
	assert.Equal(t, u.ID, o.UserID)

	require.NotNil(t, e.hook.LastEntry())
	assert.Equal(t, "order.create", e.hook.LastEntry().Message)
}

func TestCreateOrderSnapshotsPriceAndName(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	r, err := e.svc.CreateOrder(ctx, domain.Principal{}, []services.OrderLine{{ProductID: "prd-002", Quantity: 1}}, guest())
	require.NoError(t, err)

	p, err := e.prods.ByID(ctx, "prd-002")
	require.NoError(t, err)
	_, err = e.prods.Update(ctx, p.ID, repos.ProductInput{
		CategoryID: p.CategoryID, Name: "Adire Throw (Large)", Price: decimal.RequireFromString("99.00"),
		Stock: p.Stock, Active: true, Images: p.Images(),
	})
	require.NoError(t, err)

	items, err := e.orders.Items(ctx, r.OrderID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Adire Indigo Throw", items[0].Name)
	money(t, "45.50", items[0].Price)
}

func TestCreateOrderInsufficientStockWritesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.CreateOrder(ctx, domain.Principal{}, []services.OrderLine{{ProductID: "prd-006", Quantity: 10}}, guest())
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	noOrders(t, e)
	assert.Equal(t, 3, stock(t, e, "prd-006"))

	_, err = e.users.ByEmail(ctx, "buyer@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound, "validation failures must not create the guest")
}

func TestCreateOrderInactiveProduct(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.CreateOrder(context.Background(), domain.Principal{},
		[]services.OrderLine{{ProductID: "prd-001", Quantity: 1}, {ProductID: "prd-007", Quantity: 1}}, guest())
	require.ErrorIs(t, err, domain.ErrProductInactive)
	noOrders(t, e)
	assert.Equal(t, 5, stock(t, e, "prd-001"))
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.CreateOrder(ctx, domain.Principal{}, nil, guest())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.svc.CreateOrder(ctx, domain.Principal{}, []services.OrderLine{{ProductID: "prd-001", Quantity: 1}}, domain.ShippingInfo{FullName: "No Email"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.svc.CreateOrder(ctx, domain.Principal{}, []services.OrderLine{{ProductID: "prd-404", Quantity: 1}}, guest())
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	noOrders(t, e)
}

func TestCreateOrderMergesDuplicateLines(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// 2 + 2 of a product with 3 in stock must fail even though each line alone fits
	_, err := e.svc.CreateOrder(ctx, domain.Principal{},
		[]services.OrderLine{{ProductID: "prd-006", Quantity: 2}, {ProductID: "prd-006", Quantity: 2}}, guest())
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	r, err := e.svc.CreateOrder(ctx, domain.Principal{},
		[]services.OrderLine{{ProductID: "prd-001", Quantity: 1}, {ProductID: "prd-001", Quantity: 0}}, guest())
	require.NoError(t, err)
	items, err := e.orders.Items(ctx, r.OrderID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity, "zero quantity defaults to 1 and merges")
	money(t, "20.00", r.Subtotal)
}

func TestCreateOrderTaxRoundsHalfUp(t *testing.T) {
	e := newEnv(t)
	// 18.75 * 0.10 = 1.875 -> 1.88
	r, err := e.svc.CreateOrder(context.Background(), domain.Principal{}, []services.OrderLine{{ProductID: "prd-004", Quantity: 1}}, guest())
	require.NoError(t, err)
	money(t, "1.88", r.Tax)
	money(t, "30.63", r.Total)
}

func TestCreateOrderUsesPrincipal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ship := guest()
	ship.Email = "someone.else@example.com"

	r, err := e.svc.CreateOrder(ctx, domain.Principal{UserID: "u-ada", Role: domain.RoleCustomer},
		[]services.OrderLine{{ProductID: "prd-003", Quantity: 1}}, ship)
	require.NoError(t, err)
	o, err := e.orders.Get(ctx, r.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "u-ada", o.UserID)
}

func TestCreateOrderConcurrentLastUnits(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.CreateOrder(ctx, domain.Principal{}, []services.OrderLine{{ProductID: "prd-006", Quantity: 2}}, guest())
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, stock(t, e, "prd-006"))
	orders, _, err := e.orders.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, orders)
}
