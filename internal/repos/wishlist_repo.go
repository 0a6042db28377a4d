package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type WishlistRepo struct{ db *sqlx.DB }

func NewWishlistRepo(db *sqlx.DB) *WishlistRepo { return &WishlistRepo{db: db} }

// Ensure returns the user's wishlist id, creating the wishlist on first use.
func (r *WishlistRepo) Ensure(ctx context.Context, userID string) (string, error) {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO wishlists(id, user_id, created_at) VALUES(?, ?, ?)
	  ON CONFLICT(user_id) DO NOTHING`), uuid.NewString(), userID, now())
	if err != nil {
		return "", err
	}
	var id string
	err = r.db.GetContext(ctx, &id, r.db.Rebind(`SELECT id FROM wishlists WHERE user_id = ?`), userID)
	return id, err
}

func (r *WishlistRepo) Add(ctx context.Context, wishlistID, productID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO wishlist_items(wishlist_id, product_id, created_at)
	  VALUES(?, ?, ?)
	  ON CONFLICT(wishlist_id, product_id) DO NOTHING`), wishlistID, productID, now())
	return err
}

func (r *WishlistRepo) Remove(ctx context.Context, wishlistID, productID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM wishlist_items WHERE wishlist_id=? AND product_id=?`), wishlistID, productID)
	return err
}

type WishlistRow struct {
	ProductID string          `db:"product_id" json:"productId"`
	Name      string          `db:"name" json:"name"`
	Slug      string          `db:"slug" json:"slug"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Stock     int             `db:"stock" json:"stock"`
	Active    bool            `db:"active" json:"active"`
	AddedAt   string          `db:"created_at" json:"addedAt"`
}

func (r *WishlistRepo) List(ctx context.Context, wishlistID string) ([]WishlistRow, error) {
	out := []WishlistRow{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT p.id AS product_id, p.name, p.slug, p.price, p.stock, p.active, wi.created_at
	  FROM wishlist_items wi
	  JOIN products p ON p.id = wi.product_id
	  WHERE wi.wishlist_id = ?
	  ORDER BY wi.created_at DESC`), wishlistID)
	return out, err
}
