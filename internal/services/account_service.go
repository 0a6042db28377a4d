package services

import (
	"context"
	"errors"

	"jamde/internal/domain"
	"jamde/internal/repos"
	"jamde/internal/validate"
)

// AccountService serves the signed-in customer's own data. Every call is scoped by the
// principal's user id; records owned by someone else read as not found.
type AccountService struct {
	Users     *repos.UserRepo
	Orders    *repos.OrderRepo
	Addresses *repos.AddressRepo
}

type AccountSummary struct {
	User           domain.User     `json:"user"`
	OrderCount     int             `json:"orderCount"`
	DefaultAddress *domain.Address `json:"defaultAddress"`
}

type OrderDetail struct {
	domain.Order
	Shipping domain.ShippingInfo `json:"shipping"`
	Items    []domain.OrderItem  `json:"items"`
}

func (s *AccountService) Summary(ctx context.Context, p domain.Principal) (AccountSummary, error) {
	u, err := s.Users.ByID(ctx, p.UserID)
	if err != nil {
		return AccountSummary{}, err
	}
	n, err := s.Orders.CountByUser(ctx, u.ID)
	if err != nil {
		return AccountSummary{}, err
	}
	out := AccountSummary{User: u, OrderCount: n}
	a, err := s.Addresses.Default(ctx, u.ID)
	switch {
	case err == nil:
		out.DefaultAddress = &a
	case !errors.Is(err, domain.ErrNotFound):
		return AccountSummary{}, err
	}
	return out, nil
}

func (s *AccountService) UpdateName(ctx context.Context, p domain.Principal, name string) (domain.User, error) {
	name, ok := validate.Name(name)
	if !ok {
		return domain.User{}, domain.ErrInvalidInput.With("name is required (max 100 characters)")
	}
	if err := s.Users.UpdateName(ctx, p.UserID, name); err != nil {
		return domain.User{}, err
	}
	return s.Users.ByID(ctx, p.UserID)
}

func (s *AccountService) ListOrders(ctx context.Context, p domain.Principal) ([]domain.Order, error) {
	return s.Orders.ListByUser(ctx, p.UserID)
}

// Order returns one order with its lines if p owns it. Admins may read any order.
func (s *AccountService) Order(ctx context.Context, p domain.Principal, id string) (OrderDetail, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return OrderDetail{}, err
	}
	if o.UserID != p.UserID && !p.IsAdmin() {
		return OrderDetail{}, domain.ErrNotFound
	}
	items, err := s.Orders.Items(ctx, o.ID)
	if err != nil {
		return OrderDetail{}, err
	}
	return OrderDetail{Order: o, Shipping: o.Shipping(), Items: items}, nil
}

func (s *AccountService) ListAddresses(ctx context.Context, p domain.Principal) ([]domain.Address, error) {
	return s.Addresses.ListByUser(ctx, p.UserID)
}

func checkAddress(a *domain.Address) error {
	var errs []error
	field := func(v *string, limit int, optional bool, msg string) {
		out, ok := validate.Text(*v, limit, optional)
		if !ok {
			errs = append(errs, errors.New(msg))
		}
		*v = out
	}
	field(&a.FullName, 100, false, "full name is required")
	field(&a.AddressLine1, 200, false, "address line 1 is required")
	field(&a.AddressLine2, 200, true, "address line 2 is too long")
	field(&a.City, 100, false, "city is required")
	field(&a.State, 100, true, "state is too long")
	field(&a.PostalCode, 20, true, "postal code is too long")
	field(&a.Country, 100, false, "country is required")
	if phone, ok := validate.Phone(a.Phone); ok {
		a.Phone = phone
	} else {
		errs = append(errs, errors.New("phone number is invalid"))
	}
	if len(errs) > 0 {
		return domain.ErrInvalidInput.With("%v", errors.Join(errs...))
	}
	return nil
}

// AddAddress saves a new address. makeDefault promotes it through SetDefault so the
// one-default rule holds.
func (s *AccountService) AddAddress(ctx context.Context, p domain.Principal, a domain.Address, makeDefault bool) (domain.Address, error) {
	if err := checkAddress(&a); err != nil {
		return domain.Address{}, err
	}
	a.UserID = p.UserID
	created, err := s.Addresses.Create(ctx, a)
	if err != nil {
		return domain.Address{}, err
	}
	if makeDefault {
		if err := s.Addresses.SetDefault(ctx, p.UserID, created.ID); err != nil {
			return domain.Address{}, err
		}
		created.IsDefault = true
	}
	return created, nil
}

func (s *AccountService) DeleteAddress(ctx context.Context, p domain.Principal, id string) error {
	return s.Addresses.Delete(ctx, p.UserID, id)
}

func (s *AccountService) SetDefaultAddress(ctx context.Context, p domain.Principal, id string) error {
	return s.Addresses.SetDefault(ctx, p.UserID, id)
}
