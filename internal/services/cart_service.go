package services

import (
	"context"
	"errors"

	"jamde/internal/cart"
	"jamde/internal/domain"
	"jamde/internal/repos"
)

type CartService struct {
	Store     cart.Store
	Prods     *repos.ProductRepo
	Listeners []cart.Listener
}

func NewCartService(store cart.Store, prods *repos.ProductRepo, listeners ...cart.Listener) *CartService {
	return &CartService{Store: store, Prods: prods, Listeners: listeners}
}

type CartView struct {
	Items   []cart.Item  `json:"items"`
	Summary cart.Summary `json:"summary"`
}

func view(c *cart.Cart) CartView {
	items := c.Items()
	return CartView{Items: items, Summary: cart.Totals(items)}
}

func (s *CartService) open(ctx context.Context, sessionID string) (*cart.Cart, error) {
	return cart.Open(ctx, s.Store, sessionID, s.Listeners...)
}

func (s *CartService) View(ctx context.Context, sessionID string) (CartView, error) {
	c, err := s.open(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return view(c), nil
}

// Add puts qty of an active product in the cart. The line's name, price and stock come from
// the catalog, not the caller.
func (s *CartService) Add(ctx context.Context, sessionID, productID string, qty int) (CartView, error) {
	p, err := s.Prods.ByID(ctx, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return CartView{}, domain.ErrInvalidProduct.With("product %q not found", productID)
	}
	if err != nil {
		return CartView{}, err
	}
	if !p.Active {
		return CartView{}, domain.ErrProductInactive.With("%s is no longer available", p.Name)
	}
	c, err := s.open(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	image := ""
	if imgs := p.Images(); len(imgs) > 0 {
		image = imgs[0]
	}
	ref := cart.Item{ProductID: p.ID, Name: p.Name, Price: p.Price, Slug: p.Slug, Image: image, Stock: p.Stock}
	if err := c.AddItem(ctx, ref, qty); err != nil {
		return CartView{}, err
	}
	return view(c), nil
}

func (s *CartService) Update(ctx context.Context, sessionID, productID string, qty int) (CartView, error) {
	c, err := s.open(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	if err := c.UpdateQuantity(ctx, productID, qty); err != nil {
		return CartView{}, err
	}
	return view(c), nil
}

func (s *CartService) Remove(ctx context.Context, sessionID, productID string) (CartView, error) {
	c, err := s.open(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	if err := c.RemoveItem(ctx, productID); err != nil {
		return CartView{}, err
	}
	return view(c), nil
}

// Clear empties the session's cart; called after a successful checkout.
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	c, err := s.open(ctx, sessionID)
	if err != nil {
		return err
	}
	return c.Clear(ctx)
}
