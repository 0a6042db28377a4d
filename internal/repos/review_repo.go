package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"jamde/internal/domain"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

func (r *ReviewRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	out := []domain.Review{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT rv.id, rv.product_id, rv.user_id, COALESCE(u.name,'') AS user_name, rv.rating, rv.comment, rv.created_at
	  FROM reviews rv
	  JOIN users u ON u.id = rv.user_id
	  WHERE rv.product_id = ?
	  ORDER BY rv.created_at DESC`), productID)
	return out, err
}

// Upsert records a user's review; a second review of the same product replaces the first.
func (r *ReviewRepo) Upsert(ctx context.Context, rv domain.Review) (domain.Review, error) {
	rv.ID = uuid.NewString()
	rv.CreatedAt = now()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO reviews(id, product_id, user_id, rating, comment, created_at)
	  VALUES(?, ?, ?, ?, ?, ?)
	  ON CONFLICT(product_id, user_id) DO UPDATE
	  SET rating = excluded.rating, comment = excluded.comment, created_at = excluded.created_at`),
		rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt)
	if err != nil {
		return domain.Review{}, err
	}
	err = r.db.GetContext(ctx, &rv.ID, r.db.Rebind(`SELECT id FROM reviews WHERE product_id = ? AND user_id = ?`), rv.ProductID, rv.UserID)
	return rv, err
}

func (r *ReviewRepo) Summary(ctx context.Context, productID string) (domain.Rating, error) {
	var s domain.Rating
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`
	  SELECT COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count
	  FROM reviews WHERE product_id = ?`), productID)
	return s, err
}
