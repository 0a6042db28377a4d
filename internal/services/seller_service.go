package services

import (
	"context"
	"errors"

	"jamde/internal/domain"
	"jamde/internal/repos"
	"jamde/internal/validate"
)

type SellerService struct {
	Repo *repos.SellerRepo
}

func NewSellerService(r *repos.SellerRepo) *SellerService { return &SellerService{Repo: r} }

// Apply stores a public seller application after checking every required field.
func (s *SellerService) Apply(ctx context.Context, a domain.SellerApplication) (domain.SellerApplication, error) {
	var errs []error
	need := func(v *string, limit int, label string) {
		out, ok := validate.Text(*v, limit, false)
		if !ok {
			errs = append(errs, errors.New(label+" is required"))
		}
		*v = out
	}
	need(&a.BusinessName, 120, "businessName")
	need(&a.OwnerName, 100, "ownerName")
	need(&a.CraftType, 100, "craftType")
	need(&a.BusinessDescription, 2000, "businessDescription")
	need(&a.YearsExperience, 20, "yearsExperience")
	need(&a.Location, 120, "location")
	if email, ok := validate.Email(a.Email); ok {
		a.Email = email
	} else {
		errs = append(errs, errors.New("email is required"))
	}
	if phone, ok := validate.Phone(a.Phone); ok && phone != "" {
		a.Phone = phone
	} else {
		errs = append(errs, errors.New("phone is required"))
	}
	if site, ok := validate.Text(a.Website, 200, true); ok {
		a.Website = site
	} else {
		errs = append(errs, errors.New("website is too long"))
	}
	if len(errs) > 0 {
		return domain.SellerApplication{}, domain.ErrInvalidInput.With("%v", errors.Join(errs...))
	}
	return s.Repo.Create(ctx, a)
}

type ApplicationPage struct {
	Items      []domain.SellerApplication `json:"items"`
	Total      int                        `json:"total"`
	Page       int                        `json:"page"`
	TotalPages int                        `json:"totalPages"`
}

func (s *SellerService) List(ctx context.Context, status domain.ApplicationStatus, page int) (ApplicationPage, error) {
	if status != "" && !status.Valid() {
		return ApplicationPage{}, domain.ErrInvalidInput.With("unknown application status %q", status)
	}
	page = max(page, 1)
	items, total, err := s.Repo.List(ctx, status, page, adminPageSize)
	if err != nil {
		return ApplicationPage{}, err
	}
	return ApplicationPage{Items: items, Total: total, Page: page, TotalPages: totalPages(total, adminPageSize)}, nil
}

func (s *SellerService) Get(ctx context.Context, id string) (domain.SellerApplication, error) {
	return s.Repo.Get(ctx, id)
}

func (s *SellerService) SetStatus(ctx context.Context, id string, status domain.ApplicationStatus) (domain.SellerApplication, error) {
	if !status.Valid() {
		return domain.SellerApplication{}, domain.ErrInvalidInput.With("unknown application status %q", status)
	}
	if err := s.Repo.SetStatus(ctx, id, status); err != nil {
		return domain.SellerApplication{}, err
	}
	return s.Repo.Get(ctx, id)
}
