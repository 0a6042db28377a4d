// Package cart is the shopper's cart: a list of product lines kept in a per-owner storage
// slot under StorageKey. All arithmetic is local; the only side effect is the slot write.
package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const StorageKey = "cart-store"

type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Slug      string          `json:"slug"`
	Image     string          `json:"image"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"quantity"`
}

type Snapshot struct {
	Items []Item `json:"items"`
}

// Store persists one serialized snapshot per owner.
type Store interface {
	Load(ctx context.Context, owner, key string) ([]byte, error)
	Save(ctx context.Context, owner, key string, payload []byte) error
}

// Listener is told about every write; used to fan clears out to other views of the cart.
type Listener func(owner string, s Snapshot)

type Cart struct {
	owner     string
	store     Store
	items     []Item
	listeners []Listener
}

// Open loads owner's cart. A missing or unreadable slot yields an empty cart.
func Open(ctx context.Context, store Store, owner string, listeners ...Listener) (*Cart, error) {
	c := &Cart{owner: owner, store: store, listeners: listeners}
	raw, err := store.Load(ctx, owner, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(raw) > 0 {
		var s Snapshot
		if json.Unmarshal(raw, &s) == nil {
			c.items = s.Items
		}
	}
	return c, nil
}

func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) index(productID string) int {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem inserts ref or raises an existing line, never past ref.Stock.
// Stock on the line is refreshed from ref.
func (c *Cart) AddItem(ctx context.Context, ref Item, qty int) error {
	if qty < 1 {
		qty = 1
	}
	if i := c.index(ref.ProductID); i >= 0 {
		line := &c.items[i]
		line.Stock = ref.Stock
		line.Price = ref.Price
		line.Quantity = min(line.Quantity+qty, ref.Stock)
		if line.Quantity < 1 {
			c.items = append(c.items[:i], c.items[i+1:]...)
		}
		return c.save(ctx)
	}
	ref.Quantity = min(qty, ref.Stock)
	if ref.Quantity < 1 {
		return nil
	}
	c.items = append(c.items, ref)
	return c.save(ctx)
}

func (c *Cart) RemoveItem(ctx context.Context, productID string) error {
	i := c.index(productID)
	if i < 0 {
		return nil
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return c.save(ctx)
}

// UpdateQuantity clamps qty to [1, stock]. Unknown products are ignored.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, qty int) error {
	i := c.index(productID)
	if i < 0 {
		return nil
	}
	line := &c.items[i]
	q := max(1, min(qty, line.Stock))
	line.Quantity = q
	return c.save(ctx)
}

// Clear writes an empty cart and notifies listeners.
func (c *Cart) Clear(ctx context.Context) error {
	c.items = nil
	return c.save(ctx)
}

func (c *Cart) save(ctx context.Context) error {
	s := Snapshot{Items: c.Items()}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := c.store.Save(ctx, c.owner, StorageKey, b); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	for _, l := range c.listeners {
		l(c.owner, s)
	}
	return nil
}

type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Count    int             `json:"count"`
}

// Totals is Σ price×quantity and Σ quantity.
func Totals(items []Item) Summary {
	var s Summary
	for _, it := range items {
		s.Subtotal = s.Subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		s.Count += it.Quantity
	}
	return s
}
