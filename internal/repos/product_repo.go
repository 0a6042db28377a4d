package repos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"jamde/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `p.id, p.category_id, p.name, p.slug, p.description, p.price, p.compare_at_price,
  p.sku, p.stock, p.active, p.featured, p.images_json, p.created_at, p.updated_at`

type ProductFilter struct {
	Q               string
	CategorySlug    string
	MinPrice        decimal.NullDecimal
	MaxPrice        decimal.NullDecimal
	Sort            string // price_asc | price_desc | name_asc | name_desc | newest
	Page            int
	PerPage         int
	IncludeInactive bool
}

var productSorts = map[string]string{
	"price_asc":  "p.price ASC, p.name ASC",
	"price_desc": "p.price DESC, p.name ASC",
	"name_asc":   "p.name ASC",
	"name_desc":  "p.name DESC",
	"newest":     "p.created_at DESC, p.name ASC",
}

// List returns one page of products and the total match count.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]domain.Product, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if !f.IncludeInactive {
		where = append(where, "p.active = ?")
		args = append(args, true)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Q)); q != "" {
		where = append(where, "(LOWER(p.name) LIKE ? OR LOWER(p.description) LIKE ? OR LOWER(p.sku) LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like, like)
	}
	if f.CategorySlug != "" {
		where = append(where, "c.slug = ?")
		args = append(args, f.CategorySlug)
	}
	if f.MinPrice.Valid {
		where = append(where, "p.price >= ?")
		args = append(args, f.MinPrice.Decimal.InexactFloat64())
	}
	if f.MaxPrice.Valid {
		where = append(where, "p.price <= ?")
		args = append(args, f.MaxPrice.Decimal.InexactFloat64())
	}
	from := ` FROM products p JOIN categories c ON c.id = p.category_id WHERE ` + strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*)`+from), args...); err != nil {
		return nil, 0, err
	}

	order, ok := productSorts[f.Sort]
	if !ok {
		order = productSorts["newest"]
	}
	perPage := f.PerPage
	if perPage <= 0 {
		perPage = 12
	}
	page := max(f.Page, 1)

	out := []domain.Product{}
	q := `SELECT ` + productCols + from + ` ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), append(args, perPage, (page-1)*perPage)...)
	return out, total, err
}

func (r *ProductRepo) ByID(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+productCols+` FROM products p WHERE p.id = ?`), id)
	return p, notFound(err)
}

func (r *ProductRepo) BySlug(ctx context.Context, slug string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+productCols+` FROM products p WHERE p.slug = ?`), slug)
	return p, notFound(err)
}

// ByIDs fetches every listed product in one query, keyed by id. Unknown ids are absent.
func (r *ProductRepo) ByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT `+productCols+` FROM products p WHERE p.id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Product
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

type ProductInput struct {
	CategoryID     string
	Name           string
	Description    string
	Price          decimal.Decimal
	CompareAtPrice decimal.NullDecimal
	SKU            string
	Stock          int
	Active         bool
	Featured       bool
	Images         []string
}

func (r *ProductRepo) Create(ctx context.Context, in ProductInput) (domain.Product, error) {
	id := uuid.NewString()
	ts := now()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO products(id,category_id,name,slug,description,price,compare_at_price,sku,stock,active,featured,images_json,created_at,updated_at)
	  VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		id, in.CategoryID, in.Name, domain.Slugify(in.Name), in.Description, in.Price, in.CompareAtPrice,
		in.SKU, in.Stock, in.Active, in.Featured, domain.EncodeImages(in.Images), ts, ts)
	if err != nil {
		return domain.Product{}, duplicate(err, "a product named %q already exists", in.Name)
	}
	return r.ByID(ctx, id)
}

// Update rewrites every editable column; the slug follows the name.
func (r *ProductRepo) Update(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  UPDATE products
	  SET category_id=?, name=?, slug=?, description=?, price=?, compare_at_price=?, sku=?, stock=?,
	      active=?, featured=?, images_json=?, updated_at=?
	  WHERE id=?`),
		in.CategoryID, in.Name, domain.Slugify(in.Name), in.Description, in.Price, in.CompareAtPrice, in.SKU,
		in.Stock, in.Active, in.Featured, domain.EncodeImages(in.Images), now(), id)
	if err != nil {
		return domain.Product{}, duplicate(err, "a product named %q already exists", in.Name)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Product{}, domain.ErrNotFound
	}
	return r.ByID(ctx, id)
}

// Delete removes products no order references and soft-disables the rest.
// It reports how many rows were removed and how many were only deactivated.
func (r *ProductRepo) Delete(ctx context.Context, ids ...string) (deleted, disabled int, err error) {
	if len(ids) == 0 {
		return 0, 0, nil
	}
	err = WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		q, args, err := sqlx.In(`SELECT DISTINCT product_id FROM order_items WHERE product_id IN (?)`, ids)
		if err != nil {
			return err
		}
		var referenced []string
		if err := tx.SelectContext(ctx, &referenced, tx.Rebind(q), args...); err != nil {
			return err
		}
		keep := make(map[string]bool, len(referenced))
		for _, id := range referenced {
			keep[id] = true
		}
		ts := now()
		for _, id := range ids {
			var res sql.Result
			if keep[id] {
				res, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE products SET active=?, updated_at=? WHERE id=?`), false, ts, id)
			} else {
				res, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM products WHERE id=?`), id)
			}
			if err != nil {
				return err
			}
			n, _ := res.RowsAffected()
			switch {
			case n == 0:
			case keep[id]:
				disabled++
			default:
				deleted++
			}
		}
		return nil
	})
	return deleted, disabled, err
}

// SetActive flips the active flag for all ids and returns the number changed.
func (r *ProductRepo) SetActive(ctx context.Context, active bool, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In(`UPDATE products SET active=?, updated_at=? WHERE id IN (?)`, active, now(), ids)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
