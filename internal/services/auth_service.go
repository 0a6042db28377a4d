package services

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"jamde/internal/domain"
	"jamde/internal/repos"
	"jamde/internal/validate"
)

type AuthService struct {
	Users *repos.UserRepo
}

// Signup registers an account (upgrading a guest row with the same email) and binds it to sid.
func (s *AuthService) Signup(ctx context.Context, sid, email, name, password string) (domain.User, error) {
	email, ok := validate.Email(email)
	if !ok {
		return domain.User{}, domain.ErrInvalidInput.With("enter a valid email address")
	}
	name, ok = validate.Name(name)
	if !ok {
		return domain.User{}, domain.ErrInvalidInput.With("name is required")
	}
	if !validate.Password(password) {
		return domain.User{}, domain.ErrInvalidInput.With("password must be 8-72 characters with upper, lower case and a digit")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	u, err := s.Users.Create(ctx, email, name, string(hash))
	if err != nil {
		return domain.User{}, err
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, domain.ErrBadCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	// guest rows have no password and cannot sign in
	if u.Guest() || bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return domain.User{}, domain.ErrBadCredentials
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (domain.User, error) {
	return s.Users.SessionUser(ctx, sid)
}

// Principal resolves sid to the caller's identity. An unknown session is the zero Principal.
func (s *AuthService) Principal(ctx context.Context, sid string) (domain.Principal, error) {
	if sid == "" {
		return domain.Principal{}, nil
	}
	u, err := s.Users.SessionUser(ctx, sid)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Principal{}, nil
	}
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{UserID: u.ID, Role: u.Role}, nil
}
