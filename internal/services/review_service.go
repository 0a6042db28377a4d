package services

import (
	"context"

	"jamde/internal/domain"
	"jamde/internal/repos"
	"jamde/internal/validate"
)

type ReviewService struct {
	Reviews *repos.ReviewRepo
	Prods   *repos.ProductRepo
}

func NewReviewService(reviews *repos.ReviewRepo, prods *repos.ProductRepo) *ReviewService {
	return &ReviewService{Reviews: reviews, Prods: prods}
}

func (s *ReviewService) List(ctx context.Context, slug string) ([]domain.Review, error) {
	p, err := s.Prods.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.Reviews.ListByProduct(ctx, p.ID)
}

// Add records p's review of the product; a second review replaces the first.
func (s *ReviewService) Add(ctx context.Context, p domain.Principal, slug string, rating int, comment string) (domain.Review, error) {
	if !p.Authenticated() {
		return domain.Review{}, domain.ErrUnauthenticated
	}
	if !validate.Rating(rating) {
		return domain.Review{}, domain.ErrInvalidInput.With("rating must be between 1 and 5")
	}
	comment, ok := validate.Text(comment, 2000, true)
	if !ok {
		return domain.Review{}, domain.ErrInvalidInput.With("comment is too long")
	}
	prod, err := s.Prods.BySlug(ctx, slug)
	if err != nil {
		return domain.Review{}, err
	}
	if !prod.Active {
		return domain.Review{}, domain.ErrNotFound.With("this item is no longer available")
	}
	return s.Reviews.Upsert(ctx, domain.Review{ProductID: prod.ID, UserID: p.UserID, Rating: rating, Comment: comment})
}
