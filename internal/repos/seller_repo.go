package repos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"jamde/internal/domain"
)

type SellerRepo struct{ db *sqlx.DB }

func NewSellerRepo(db *sqlx.DB) *SellerRepo { return &SellerRepo{db: db} }

const sellerCols = `id, business_name, owner_name, email, phone, craft_type, business_description,
  years_experience, location, website, status, created_at`

// Create stores a PENDING application. One application per email.
func (r *SellerRepo) Create(ctx context.Context, a domain.SellerApplication) (domain.SellerApplication, error) {
	a.ID = uuid.NewString()
	a.Email = strings.ToLower(a.Email)
	a.Status = domain.ApplicationPending
	a.CreatedAt = now()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO seller_applications(`+sellerCols+`)
	  VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`),
		a.ID, a.BusinessName, a.OwnerName, a.Email, a.Phone, a.CraftType, a.BusinessDescription,
		a.YearsExperience, a.Location, a.Website, a.Status, a.CreatedAt)
	if err != nil {
		return domain.SellerApplication{}, duplicate(err, "An application with this email already exists")
	}
	return a, nil
}

func (r *SellerRepo) Get(ctx context.Context, id string) (domain.SellerApplication, error) {
	var a domain.SellerApplication
	err := r.db.GetContext(ctx, &a, r.db.Rebind(`SELECT `+sellerCols+` FROM seller_applications WHERE id = ?`), id)
	return a, notFound(err)
}

func (r *SellerRepo) List(ctx context.Context, status domain.ApplicationStatus, page, perPage int) ([]domain.SellerApplication, int, error) {
	where := "1=1"
	args := []any{}
	if status != "" {
		where = "status = ?"
		args = append(args, status)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM seller_applications WHERE `+where), args...); err != nil {
		return nil, 0, err
	}
	out := []domain.SellerApplication{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT `+sellerCols+`
	  FROM seller_applications
	  WHERE `+where+`
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?`), append(args, perPage, (max(page, 1)-1)*perPage)...)
	return out, total, err
}

func (r *SellerRepo) SetStatus(ctx context.Context, id string, status domain.ApplicationStatus) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE seller_applications SET status = ?, updated_at = ? WHERE id = ?`), status, now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
