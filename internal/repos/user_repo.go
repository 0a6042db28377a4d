package repos

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"jamde/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, email, name, password_hash, role, created_at`

func (r *UserRepo) ByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`SELECT `+userCols+` FROM users WHERE email = ?`), strings.ToLower(email))
	return u, notFound(err)
}

func (r *UserRepo) ByID(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`SELECT `+userCols+` FROM users WHERE id = ?`), id)
	return u, notFound(err)
}

// Create inserts a registered account. An existing guest row for the same email is
// upgraded in place so past guest orders stay attached.
func (r *UserRepo) Create(ctx context.Context, email, name, hash string) (domain.User, error) {
	email = strings.ToLower(email)
	existing, err := r.ByEmail(ctx, email)
	switch {
	case err == nil && !existing.Guest():
		return domain.User{}, domain.ErrDuplicate.With("an account with this email already exists")
	case err == nil:
		_, err = r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE users SET name=?, password_hash=?, updated_at=? WHERE id=? AND password_hash=''`),
			name, hash, now(), existing.ID)
		if err != nil {
			return domain.User{}, err
		}
		return r.ByID(ctx, existing.ID)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.User{}, err
	}

	u := domain.User{ID: uuid.NewString(), Email: email, Name: name, Hash: hash, Role: domain.RoleCustomer, CreatedAt: now()}
	_, err = r.DB.ExecContext(ctx, r.DB.Rebind(`INSERT INTO users(id,email,name,password_hash,role,created_at) VALUES(?,?,?,?,?,?)`),
		u.ID, u.Email, u.Name, u.Hash, u.Role, u.CreatedAt)
	if err != nil {
		return domain.User{}, duplicate(err, "an account with this email already exists")
	}
	return u, nil
}

// UpsertGuest returns the user for email, creating a password-less CUSTOMER when absent.
// Safe to repeat: concurrent calls converge on one row.
func (r *UserRepo) UpsertGuest(ctx context.Context, email, name string) (domain.User, error) {
	email = strings.ToLower(email)
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO users(id,email,name,password_hash,role,created_at)
		VALUES(?,?,?,'',?,?)
		ON CONFLICT(email) DO NOTHING`), uuid.NewString(), email, name, domain.RoleCustomer, now())
	if err != nil {
		return domain.User{}, err
	}
	return r.ByEmail(ctx, email)
}

func (r *UserRepo) UpdateName(ctx context.Context, id, name string) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE users SET name=?, updated_at=? WHERE id=?`), name, now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) SetRole(ctx context.Context, id string, role domain.Role) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE users SET role=?, updated_at=? WHERE id=?`), role, now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, r.DB.Rebind(`SELECT COUNT(*) FROM users WHERE role = ?`), role)
	return n, err
}

func (r *UserRepo) CountAdmins(ctx context.Context) (int, error) {
	return r.CountByRole(ctx, domain.RoleAdmin)
}

type UserSummary struct {
	domain.User
	OrderCount int `db:"order_count" json:"orderCount"`
}

// List pages through users matching q on name or email, newest first.
func (r *UserRepo) List(ctx context.Context, q string, page, perPage int) ([]UserSummary, int, error) {
	where := "1=1"
	args := []any{}
	if q = strings.ToLower(strings.TrimSpace(q)); q != "" {
		where = "(LOWER(u.name) LIKE ? OR u.email LIKE ?)"
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	var total int
	if err := r.DB.GetContext(ctx, &total, r.DB.Rebind(`SELECT COUNT(*) FROM users u WHERE `+where), args...); err != nil {
		return nil, 0, err
	}
	out := []UserSummary{}
	err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(`
		SELECT u.id, u.email, u.name, u.password_hash, u.role, u.created_at,
		       (SELECT COUNT(*) FROM orders o WHERE o.user_id = u.id) AS order_count
		FROM users u
		WHERE `+where+`
		ORDER BY u.created_at DESC, u.email ASC
		LIMIT ? OFFSET ?`), append(args, perPage, (max(page, 1)-1)*perPage)...)
	return out, total, err
}

// ---------- sessions ----------

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	ts := now()
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO sessions(id,user_id,created_at,last_seen)
		VALUES(?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id, last_seen=excluded.last_seen`), sid, userID, ts, ts)
	return err
}

// SessionUser resolves the account bound to sid.
func (r *UserRepo) SessionUser(ctx context.Context, sid string) (domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`
		SELECT u.id, u.email, u.name, u.password_hash, u.role, u.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?`), sid)
	return u, notFound(err)
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM sessions WHERE id=?`), sid)
	return err
}

// DeleteUserCascade cancels the user's open orders, restocking them, and detaches all of
// their orders (kept for audit), then deletes addresses, wishlist, reviews, sessions and the user row.
func (r *UserRepo) DeleteUserCascade(ctx context.Context, userID string) error {
	return WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		ts := now()
		var open []string
		if err := tx.SelectContext(ctx, &open, tx.Rebind(`SELECT id FROM orders WHERE user_id=? AND status IN (?, ?)`),
			userID, domain.OrderPending, domain.OrderProcessing); err != nil {
			return err
		}
		for _, id := range open {
			if err := restock(ctx, tx, id); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE orders SET status=?, updated_at=?
			WHERE user_id=? AND status IN (?, ?)`),
			domain.OrderCancelled, ts, userID, domain.OrderPending, domain.OrderProcessing); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE orders SET user_id=NULL WHERE user_id=?`), userID); err != nil {
			return err
		}
		for _, q := range []string{
			`DELETE FROM addresses WHERE user_id=?`,
			`DELETE FROM wishlist_items WHERE wishlist_id IN (SELECT id FROM wishlists WHERE user_id=?)`,
			`DELETE FROM wishlists WHERE user_id=?`,
			`DELETE FROM reviews WHERE user_id=?`,
			`DELETE FROM sessions WHERE user_id=?`,
		} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(q), userID); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id=?`), userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}
