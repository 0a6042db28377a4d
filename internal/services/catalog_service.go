package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"jamde/internal/domain"
	"jamde/internal/repos"
	"jamde/internal/validate"
)

const (
	storefrontPageSize = 12
	adminPageSize      = 20
)

type CatalogService struct {
	Cats    *repos.CategoryRepo
	Prods   *repos.ProductRepo
	Reviews *repos.ReviewRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, reviews *repos.ReviewRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Reviews: reviews}
}

// ProductCard is the listing shape of a product.
type ProductCard struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Slug   string          `json:"slug"`
	Images []string        `json:"images"`
	Stock  int             `json:"stock"`
}

type ProductPage struct {
	Items      []ProductCard `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
}

type ProductDetail struct {
	domain.Product
	Images []string      `json:"images"`
	Rating domain.Rating `json:"rating"`
}

func totalPages(total, perPage int) int {
	if total == 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

// ListProducts pages through active products.
func (s *CatalogService) ListProducts(ctx context.Context, f repos.ProductFilter) (ProductPage, error) {
	f.Page = max(f.Page, 1)
	f.PerPage = storefrontPageSize
	f.IncludeInactive = false
	prods, total, err := s.Prods.List(ctx, f)
	if err != nil {
		return ProductPage{}, err
	}
	cards := make([]ProductCard, len(prods))
	for i, p := range prods {
		cards[i] = ProductCard{ID: p.ID, Name: p.Name, Price: p.Price, Slug: p.Slug, Images: p.Images(), Stock: p.Stock}
	}
	return ProductPage{Items: cards, Total: total, Page: f.Page, TotalPages: totalPages(total, f.PerPage)}, nil
}

// Product returns an active product by slug with its rating summary.
func (s *CatalogService) Product(ctx context.Context, slug string) (ProductDetail, error) {
	p, err := s.Prods.BySlug(ctx, slug)
	if err != nil {
		return ProductDetail{}, err
	}
	if !p.Active {
		return ProductDetail{}, domain.ErrNotFound.With("this item is no longer available")
	}
	rating, err := s.Reviews.Summary(ctx, p.ID)
	if err != nil {
		return ProductDetail{}, err
	}
	return ProductDetail{Product: p, Images: p.Images(), Rating: rating}, nil
}

// ---------- back-office ----------

type AdminProductPage struct {
	Items      []domain.Product `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
}

func (s *CatalogService) AdminProducts(ctx context.Context, q string, page int) (AdminProductPage, error) {
	page = max(page, 1)
	prods, total, err := s.Prods.List(ctx, repos.ProductFilter{Q: q, Page: page, PerPage: adminPageSize, IncludeInactive: true})
	if err != nil {
		return AdminProductPage{}, err
	}
	return AdminProductPage{Items: prods, Total: total, Page: page, TotalPages: totalPages(total, adminPageSize)}, nil
}

func (s *CatalogService) AdminProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.Prods.ByID(ctx, id)
}

func (s *CatalogService) checkInput(ctx context.Context, in *repos.ProductInput) error {
	var errs []error
	name, ok := validate.Name(in.Name)
	if !ok || domain.Slugify(name) == "" {
		errs = append(errs, errors.New("name is required (max 100 characters)"))
	}
	in.Name = name
	if desc, ok := validate.Text(in.Description, 2000, true); ok {
		in.Description = desc
	} else {
		errs = append(errs, errors.New("description is too long"))
	}
	if !validate.Price(in.Price) {
		errs = append(errs, errors.New("price must be a non-negative amount with at most 2 decimals"))
	}
	if in.CompareAtPrice.Valid && !validate.Price(in.CompareAtPrice.Decimal) {
		errs = append(errs, errors.New("compare-at price is invalid"))
	}
	if in.Stock < 0 {
		errs = append(errs, errors.New("stock cannot be negative"))
	}
	if len(errs) > 0 {
		return domain.ErrInvalidInput.With("%v", errors.Join(errs...))
	}
	cats, err := s.Cats.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range cats {
		if c.ID == in.CategoryID {
			return nil
		}
	}
	return domain.ErrInvalidInput.With("unknown category %q", in.CategoryID)
}

func (s *CatalogService) CreateProduct(ctx context.Context, in repos.ProductInput) (domain.Product, error) {
	if err := s.checkInput(ctx, &in); err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Create(ctx, in)
}

// UpdateProduct rewrites a product; the slug is re-derived from the new name.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in repos.ProductInput) (domain.Product, error) {
	if err := s.checkInput(ctx, &in); err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Update(ctx, id, in)
}

type DeleteResult struct {
	Deleted  int `json:"deleted"`
	Disabled int `json:"disabled"`
}

// DeleteProducts hard-deletes unreferenced products and deactivates any an order points at.
func (s *CatalogService) DeleteProducts(ctx context.Context, ids ...string) (DeleteResult, error) {
	if len(ids) == 0 {
		return DeleteResult{}, domain.ErrInvalidInput.With("no products selected")
	}
	deleted, disabled, err := s.Prods.Delete(ctx, ids...)
	return DeleteResult{Deleted: deleted, Disabled: disabled}, err
}

func (s *CatalogService) SetActive(ctx context.Context, active bool, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, domain.ErrInvalidInput.With("no products selected")
	}
	return s.Prods.SetActive(ctx, active, ids...)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	name, ok := validate.Name(name)
	if !ok || domain.Slugify(name) == "" {
		return domain.Category{}, domain.ErrInvalidInput.With("category name is required")
	}
	return s.Cats.Create(ctx, name)
}
