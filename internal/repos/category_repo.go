package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"jamde/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, name, slug, created_at
	  FROM categories
	  ORDER BY name`)
	return out, err
}

func (r *CategoryRepo) BySlug(ctx context.Context, slug string) (domain.Category, error) {
	var c domain.Category
	err := r.db.GetContext(ctx, &c, r.db.Rebind(`SELECT id, name, slug, created_at FROM categories WHERE slug = ?`), slug)
	return c, notFound(err)
}

// Create derives the slug from name; a clash on slug is ErrDuplicate.
func (r *CategoryRepo) Create(ctx context.Context, name string) (domain.Category, error) {
	c := domain.Category{ID: uuid.NewString(), Name: name, Slug: domain.Slugify(name), CreatedAt: now()}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO categories(id,name,slug,created_at) VALUES(?,?,?,?)`),
		c.ID, c.Name, c.Slug, c.CreatedAt)
	if err != nil {
		return domain.Category{}, duplicate(err, "category %q already exists", name)
	}
	return c, nil
}
