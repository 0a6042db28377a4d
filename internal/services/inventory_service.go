package services

import (
	"context"
	"errors"

	"jamde/internal/domain"
	"jamde/internal/repos"
)

type InventoryService struct {
	Inv       *repos.InventoryRepo
	Threshold int
}

func NewInventoryService(inv *repos.InventoryRepo, lowStockThreshold int) *InventoryService {
	return &InventoryService{Inv: inv, Threshold: lowStockThreshold}
}

// CheckAvailability converts stock to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
// Unknown and inactive products read as out of stock.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string) (domain.Availability, error) {
	qty, active, err := s.Inv.Stock(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Availability{Status: "OUT_OF_STOCK", Qty: 0}, nil
		}
		return domain.Availability{}, err
	}
	if !active {
		return domain.Availability{Status: "OUT_OF_STOCK", Qty: 0}, nil
	}

	status := "OUT_OF_STOCK"
	switch {
	case qty >= s.Threshold:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}

func (s *InventoryService) SetStock(ctx context.Context, productID string, qty int) error {
	return s.Inv.SetStock(ctx, productID, qty)
}

func (s *InventoryService) LowStock(ctx context.Context, limit int) ([]repos.InventoryRow, error) {
	return s.Inv.LowStock(ctx, s.Threshold, limit)
}
