package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"jamde/internal/domain"
)

type AddressRepo struct{ db *sqlx.DB }

func NewAddressRepo(db *sqlx.DB) *AddressRepo { return &AddressRepo{db: db} }

const addressCols = `id, user_id, full_name, address_line1, address_line2, city, state, postal_code, country, phone, is_default, created_at`

func (r *AddressRepo) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	out := []domain.Address{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT `+addressCols+`
	  FROM addresses
	  WHERE user_id = ?
	  ORDER BY is_default DESC, created_at DESC`), userID)
	return out, err
}

// Default returns the user's default address, or ErrNotFound.
func (r *AddressRepo) Default(ctx context.Context, userID string) (domain.Address, error) {
	var a domain.Address
	err := r.db.GetContext(ctx, &a, r.db.Rebind(`SELECT `+addressCols+` FROM addresses WHERE user_id = ? AND is_default = ?`), userID, true)
	return a, notFound(err)
}

// Create stores a as a non-default address; callers promote it with SetDefault.
func (r *AddressRepo) Create(ctx context.Context, a domain.Address) (domain.Address, error) {
	a.ID = uuid.NewString()
	a.IsDefault = false
	a.CreatedAt = now()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO addresses(`+addressCols+`)
	  VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`),
		a.ID, a.UserID, a.FullName, a.AddressLine1, a.AddressLine2, a.City, a.State, a.PostalCode, a.Country, a.Phone, a.IsDefault, a.CreatedAt)
	return a, err
}

// Delete removes an address owned by userID.
func (r *AddressRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM addresses WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetDefault clears every default flag for the user, then sets it on id, in one
// transaction. Repeating the call leaves exactly one default.
func (r *AddressRepo) SetDefault(ctx context.Context, userID, id string) error {
	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE addresses SET is_default = ? WHERE user_id = ? AND is_default = ?`), false, userID, true); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE addresses SET is_default = ? WHERE id = ? AND user_id = ?`), true, id, userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *AddressRepo) CountDefaults(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM addresses WHERE user_id = ? AND is_default = ?`), userID, true)
	return n, err
}
