package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"jamde/internal/domain"
	"jamde/internal/repos"
)

type DashboardService struct {
	Orders *repos.OrderRepo
	Users  *repos.UserRepo
	Inv    *InventoryService
}

type Dashboard struct {
	TotalRevenue       decimal.Decimal      `json:"totalRevenue"`
	TotalOrders        int                  `json:"totalOrders"`
	PaidOrders         int                  `json:"paidOrders"`
	Customers          int                  `json:"customers"`
	AverageOrderValue  decimal.Decimal      `json:"averageOrderValue"`
	RecentOrders       []repos.OrderSummary `json:"recentOrders"`
	StatusDistribution []repos.StatusCount  `json:"statusDistribution"`
	RevenueByDay       []repos.DayRevenue   `json:"revenueByDay"`
	LowStock           []repos.InventoryRow `json:"lowStock"`
}

// Load computes the back-office summary. Revenue and the average order value count PAID orders only.
func (s *DashboardService) Load(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	var err error
	if d.TotalRevenue, d.PaidOrders, err = s.Orders.PaidTotals(ctx); err != nil {
		return Dashboard{}, err
	}
	if d.PaidOrders > 0 {
		d.AverageOrderValue = d.TotalRevenue.Div(decimal.NewFromInt(int64(d.PaidOrders))).Round(2)
	}
	if d.TotalOrders, err = s.Orders.CountAll(ctx); err != nil {
		return Dashboard{}, err
	}
	if d.Customers, err = s.Users.CountByRole(ctx, domain.RoleCustomer); err != nil {
		return Dashboard{}, err
	}
	if d.RecentOrders, err = s.Orders.Recent(ctx, 10); err != nil {
		return Dashboard{}, err
	}
	if d.StatusDistribution, err = s.Orders.StatusDistribution(ctx); err != nil {
		return Dashboard{}, err
	}
	since := time.Now().UTC().AddDate(0, 0, -365).Format(repos.TimeLayout)
	if d.RevenueByDay, err = s.Orders.RevenueByDay(ctx, since[:10]); err != nil {
		return Dashboard{}, err
	}
	if d.LowStock, err = s.Inv.LowStock(ctx, 10); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
