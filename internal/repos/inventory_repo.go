package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"jamde/internal/domain"
)

type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// Row used by the admin low-stock panel
type InventoryRow struct {
	ProductID string `db:"product_id" json:"productId"`
	Name      string `db:"name" json:"name"`
	Slug      string `db:"slug" json:"slug"`
	Stock     int    `db:"stock" json:"stock"`
}

// Stock returns the on-hand quantity and active flag for a product.
func (r *InventoryRepo) Stock(ctx context.Context, productID string) (qty int, active bool, err error) {
	var row struct {
		Stock  int  `db:"stock"`
		Active bool `db:"active"`
	}
	err = r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT stock, active FROM products WHERE id = ?`), productID)
	if err != nil {
		return 0, false, notFound(err)
	}
	return row.Stock, row.Active, nil
}

// Decrement atomically subtracts by units inside tx if the product is active and has enough
// stock. It reports false, without error, when the guard rejected the update.
func (r *InventoryRepo) Decrement(ctx context.Context, tx *sqlx.Tx, productID string, by int) (bool, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE products
		SET stock = stock - ?, updated_at = ?
		WHERE id = ? AND stock >= ? AND active = ?
	`), by, now(), productID, by, true)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// SetStock overwrites the on-hand quantity.
func (r *InventoryRepo) SetStock(ctx context.Context, productID string, qty int) error {
	if qty < 0 {
		return domain.ErrInvalidInput.With("stock cannot be negative")
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`), qty, now(), productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LowStock lists active products under threshold, lowest first.
func (r *InventoryRepo) LowStock(ctx context.Context, threshold, limit int) ([]InventoryRow, error) {
	rows := []InventoryRow{}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT id AS product_id, name, slug, stock
		FROM products
		WHERE active = ? AND stock < ?
		ORDER BY stock ASC, name ASC
		LIMIT ?
	`), true, threshold, limit)
	return rows, err
}
