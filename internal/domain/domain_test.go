package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"jamde/internal/domain"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hand-Woven Basket (Large)": "hand-woven-basket-large",
		"  Ankara  Tote  ":          "ankara-tote",
		"100% Cotton!!":             "100-cotton",
		"---":                       "",
		"Déjà Vu":                   "d-j-vu",
	}
	for in, want := range cases {
		if got := domain.Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := domain.ErrInsufficientStock.With("insufficient stock for %s", "p1")
	wrapped := fmt.Errorf("create order: %w", err)

	if !errors.Is(wrapped, domain.ErrInsufficientStock) {
		t.Fatal("detail error should match its sentinel")
	}
	if errors.Is(wrapped, domain.ErrProductInactive) {
		t.Fatal("different codes must not match")
	}
	if got := domain.KindOf(wrapped); got != domain.KindValidation {
		t.Fatalf("kind = %v, want validation", got)
	}
	if got := domain.KindOf(errors.New("boom")); got != domain.KindUnknown {
		t.Fatalf("plain error kind = %v", got)
	}
}

func TestErrorWrapKeepsCause(t *testing.T) {
	cause := errors.New("stripe: card_declined")
	err := domain.ErrPaymentInit.Wrap(cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause should be reachable")
	}
	if !errors.Is(err, domain.ErrPaymentInit) {
		t.Fatal("sentinel should match")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, s := range domain.OrderStatuses {
		want := s == domain.OrderCancelled || s == domain.OrderRefunded
		if s.Terminal() != want {
			t.Errorf("%s terminal = %v", s, s.Terminal())
		}
	}
	if domain.OrderStatus("LOST").Valid() {
		t.Error("unknown status must be invalid")
	}
}

func TestProductImages(t *testing.T) {
	p := domain.Product{ImagesJSON: domain.EncodeImages([]string{"a.jpg", "b.jpg"})}
	imgs := p.Images()
	if len(imgs) != 2 || imgs[0] != "a.jpg" {
		t.Fatalf("images = %v", imgs)
	}
	if got := (domain.Product{ImagesJSON: "not json"}).Images(); len(got) != 0 {
		t.Fatalf("malformed images = %v", got)
	}
}
