package services

import (
	"context"
	"errors"

	"jamde/internal/domain"
	"jamde/internal/repos"
)

type WishlistService struct {
	Repo  *repos.WishlistRepo
	Prods *repos.ProductRepo
}

func NewWishlistService(r *repos.WishlistRepo, prods *repos.ProductRepo) *WishlistService {
	return &WishlistService{Repo: r, Prods: prods}
}

// Save adds a product to the user's wishlist, creating the list on first use. Saving twice is a no-op.
func (s *WishlistService) Save(ctx context.Context, userID, productID string) error {
	if _, err := s.Prods.ByID(ctx, productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidProduct.With("product %q not found", productID)
		}
		return err
	}
	id, err := s.Repo.Ensure(ctx, userID)
	if err != nil {
		return err
	}
	return s.Repo.Add(ctx, id, productID)
}

func (s *WishlistService) Unsave(ctx context.Context, userID, productID string) error {
	id, err := s.Repo.Ensure(ctx, userID)
	if err != nil {
		return err
	}
	return s.Repo.Remove(ctx, id, productID)
}

func (s *WishlistService) List(ctx context.Context, userID string) ([]repos.WishlistRow, error) {
	id, err := s.Repo.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Repo.List(ctx, id)
}
