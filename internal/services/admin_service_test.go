package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamde/internal/domain"
	"jamde/internal/services"
)

func TestLastAdminCannotBeDemotedOrDeleted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := services.NewAdminService(e.orders, e.users, nil)

	_, err := admin.ChangeRole(ctx, "u-admin", domain.RoleCustomer)
	require.ErrorIs(t, err, domain.ErrLastAdmin)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	err = admin.DeleteUser(ctx, "u-admin")
	require.ErrorIs(t, err, domain.ErrLastAdmin)

	n, err := e.users.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	u, err := e.users.ByID(ctx, "u-admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	// with a second admin the first may step down
	_, err = admin.ChangeRole(ctx, "u-ada", domain.RoleAdmin)
	require.NoError(t, err)
	_, err = admin.ChangeRole(ctx, "u-admin", domain.RoleCustomer)
	require.NoError(t, err)

	_, err = admin.ChangeRole(ctx, "u-ada", domain.Role("OWNER"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRefundGuard(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := services.NewAdminService(e.orders, e.users, nil)

	r, err := e.svc.CreateOrder(ctx, domain.Principal{}, []services.OrderLine{{ProductID: "prd-003", Quantity: 1}}, guest())
	require.NoError(t, err)

	_, err = admin.Refund(ctx, r.OrderID)
	require.ErrorIs(t, err, domain.ErrNotRefundable, "unpaid orders cannot be refunded")

	_, err = admin.SetPaymentStatus(ctx, r.OrderID, domain.PaymentPaid)
	require.NoError(t, err)
	o, err := admin.Refund(ctx, r.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRefunded, o.Status)
	assert.Equal(t, domain.PaymentRefunded, o.PaymentStatus)

	_, err = admin.Refund(ctx, r.OrderID)
	assert.ErrorIs(t, err, domain.ErrNotRefundable)
	_, err = admin.SetOrderStatus(ctx, r.OrderID, domain.OrderProcessing)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = admin.SetPaymentStatus(ctx, r.OrderID, domain.PaymentPaid)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancelledOrderIsTerminal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := services.NewAdminService(e.orders, e.users, nil)

	r, err := e.svc.CreateOrder(ctx, domain.Principal{}, []services.OrderLine{{ProductID: "prd-003", Quantity: 1}}, guest())
	require.NoError(t, err)

	_, err = admin.SetOrderStatus(ctx, r.OrderID, domain.OrderStatus("LOST"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	o, err := admin.SetOrderStatus(ctx, r.OrderID, domain.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, o.Status)

	_, err = admin.SetOrderStatus(ctx, r.OrderID, domain.OrderShipped)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestDeleteCustomerKeepsOrders(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := services.NewAdminService(e.orders, e.users, nil)

	r, err := e.svc.CreateOrder(ctx, domain.Principal{UserID: "u-kofi", Role: domain.RoleCustomer},
		[]services.OrderLine{{ProductID: "prd-003", Quantity: 1}}, guest())
	require.NoError(t, err)

	require.NoError(t, admin.DeleteUser(ctx, "u-kofi"))
	d, err := admin.Order(ctx, r.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, d.Status)
	assert.Nil(t, d.Customer)

	assert.ErrorIs(t, admin.DeleteUser(ctx, "u-kofi"), domain.ErrNotFound)
}

func TestDashboardCountsPaidRevenue(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := services.NewAdminService(e.orders, e.users, nil)
	dash := &services.DashboardService{Orders: e.orders, Users: e.users, Inv: services.NewInventoryService(e.inv, 10)}

	paid, err := e.svc.CreateOrder(ctx, domain.Principal{}, []services.OrderLine{{ProductID: "prd-001", Quantity: 2}}, guest())
	require.NoError(t, err)
	_, err = e.svc.CreateOrder(ctx, domain.Principal{}, []services.OrderLine{{ProductID: "prd-003", Quantity: 1}}, guest())
	require.NoError(t, err)
	_, err = admin.SetPaymentStatus(ctx, paid.OrderID, domain.PaymentPaid)
	require.NoError(t, err)

	d, err := dash.Load(ctx)
	require.NoError(t, err)
	money(t, "32.00", d.TotalRevenue)
	money(t, "32.00", d.AverageOrderValue)
	assert.Equal(t, 2, d.TotalOrders)
	assert.Equal(t, 1, d.PaidOrders)
	assert.Equal(t, 3, d.Customers, "two seeded customers plus the guest")
	assert.Len(t, d.RecentOrders, 2)
	require.Len(t, d.RevenueByDay, 1)
	money(t, "32.00", d.RevenueByDay[0].Revenue)

	low := map[string]int{}
	for _, row := range d.LowStock {
		low[row.ProductID] = row.Stock
	}
	assert.Equal(t, 3, low["prd-001"])
	assert.Equal(t, 3, low["prd-006"])
	assert.NotContains(t, low, "prd-007")
}

func TestClosingOrderRestocks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := services.NewAdminService(e.orders, e.users, nil)
	before := stock(t, e, "prd-001")

	cancelled, err := e.svc.CreateOrder(ctx, domain.Principal{}, []services.OrderLine{{ProductID: "prd-001", Quantity: 2}}, guest())
	require.NoError(t, err)
	assert.Equal(t, before-2, stock(t, e, "prd-001"))
	_, err = admin.SetOrderStatus(ctx, cancelled.OrderID, domain.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, before, stock(t, e, "prd-001"))

	refunded, err := e.svc.CreateOrder(ctx, domain.Principal{}, []services.OrderLine{
		{ProductID: "prd-001", Quantity: 1}, {ProductID: "prd-003", Quantity: 4},
	}, guest())
	require.NoError(t, err)
	_, err = admin.SetPaymentStatus(ctx, refunded.OrderID, domain.PaymentPaid)
	require.NoError(t, err)
	_, err = admin.Refund(ctx, refunded.OrderID)
	require.NoError(t, err)
	assert.Equal(t, before, stock(t, e, "prd-001"))
	assert.Equal(t, 20, stock(t, e, "prd-003"))

	// a terminal order does not restock twice
	_, err = admin.SetOrderStatus(ctx, cancelled.OrderID, domain.OrderRefunded)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, before, stock(t, e, "prd-001"))
}

func TestDeleteCustomerRestocksOpenOrders(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := services.NewAdminService(e.orders, e.users, nil)
	kofi := domain.Principal{UserID: "u-kofi", Role: domain.RoleCustomer}

	open, err := e.svc.CreateOrder(ctx, kofi, []services.OrderLine{{ProductID: "prd-004", Quantity: 3}}, guest())
	require.NoError(t, err)
	shipped, err := e.svc.CreateOrder(ctx, kofi, []services.OrderLine{{ProductID: "prd-004", Quantity: 2}}, guest())
	require.NoError(t, err)
	_, err = admin.SetOrderStatus(ctx, shipped.OrderID, domain.OrderShipped)
	require.NoError(t, err)
	require.Equal(t, 35, stock(t, e, "prd-004"))

	require.NoError(t, admin.DeleteUser(ctx, "u-kofi"))
	assert.Equal(t, 38, stock(t, e, "prd-004"), "only the open order goes back on the shelf")
	d, err := admin.Order(ctx, open.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, d.Status)
}
