package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"jamde/internal/domain"
	"jamde/internal/metrics"
	"jamde/internal/repos"
	"jamde/internal/validate"
)

// OrderLine is one requested cart line. Only the product id and quantity are read.
type OrderLine struct {
	ProductID string
	Quantity  int
}

// Receipt is the server-computed breakdown of a created order.
type Receipt struct {
	OrderID      string          `json:"orderId"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Total        decimal.Decimal `json:"total"`
}

type OrderService struct {
	DB       *sqlx.DB
	Products *repos.ProductRepo
	Users    *repos.UserRepo
	Orders   *repos.OrderRepo
	Inv      *repos.InventoryRepo
	TaxRate  decimal.Decimal
	Shipping decimal.Decimal
	Log      logrus.FieldLogger
}

func NewOrderService(db *sqlx.DB, prods *repos.ProductRepo, users *repos.UserRepo, orders *repos.OrderRepo,
	inv *repos.InventoryRepo, taxRate, shipping float64, log logrus.FieldLogger) *OrderService {
	return &OrderService{
		DB:       db,
		Products: prods,
		Users:    users,
		Orders:   orders,
		Inv:      inv,
		TaxRate:  decimal.NewFromFloat(taxRate),
		Shipping: decimal.NewFromFloat(shipping).Round(2),
		Log:      log,
	}
}

// mergeLines folds repeated product ids into one line, keeping first-seen order.
// Non-positive quantities count as 1.
func mergeLines(items []OrderLine) []OrderLine {
	out := make([]OrderLine, 0, len(items))
	at := make(map[string]int, len(items))
	for _, it := range items {
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		if i, ok := at[it.ProductID]; ok {
			out[i].Quantity += qty
			continue
		}
		at[it.ProductID] = len(out)
		out = append(out, OrderLine{ProductID: it.ProductID, Quantity: qty})
	}
	return out
}

// CreateOrder validates items against live product rows, prices them from the database and
// writes the order, its lines and the stock decrements in one transaction. Nothing is written
// until every line has passed validation. An authenticated principal owns the order; a guest
// is resolved or created by the shipping email.
func (s *OrderService) CreateOrder(ctx context.Context, p domain.Principal, items []OrderLine, ship domain.ShippingInfo) (Receipt, error) {
	r, err := s.createOrder(ctx, p, items, ship)
	if err != nil {
		reason := "internal"
		var e *domain.Error
		if errors.As(err, &e) {
			reason = e.Code
		}
		metrics.OrderFailures.WithLabelValues(reason).Inc()
		return Receipt{}, err
	}
	metrics.OrdersCreated.Inc()
	return r, nil
}

func (s *OrderService) createOrder(ctx context.Context, p domain.Principal, items []OrderLine, ship domain.ShippingInfo) (Receipt, error) {
	if len(items) == 0 {
		return Receipt{}, domain.ErrInvalidInput.With("cart is empty")
	}
	email, ok := validate.Email(ship.Email)
	if !ok {
		return Receipt{}, domain.ErrInvalidInput.With("a valid shipping email is required")
	}
	ship.Email = email

	lines := mergeLines(items)
	ids := make([]string, len(lines))
	for i, l := range lines {
		if _, ok := validate.ID(l.ProductID); !ok {
			return Receipt{}, domain.ErrInvalidProduct.With("product %q not found", l.ProductID)
		}
		ids[i] = l.ProductID
	}

	products, err := s.Products.ByIDs(ctx, ids)
	if err != nil {
		return Receipt{}, err
	}

	subtotal := decimal.Zero
	orderItems := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		prod, ok := products[l.ProductID]
		switch {
		case !ok:
			return Receipt{}, domain.ErrInvalidProduct.With("product %q not found", l.ProductID)
		case !prod.Active:
			return Receipt{}, domain.ErrProductInactive.With("%s is no longer available", prod.Name)
		case l.Quantity > prod.Stock:
			return Receipt{}, domain.ErrInsufficientStock.With("insufficient stock for %s (requested %d, available %d)", prod.Name, l.Quantity, prod.Stock)
		}
		subtotal = subtotal.Add(prod.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		orderItems = append(orderItems, domain.OrderItem{
			ProductID: prod.ID,
			Name:      prod.Name,
			Quantity:  l.Quantity,
			Price:     prod.Price,
		})
	}

	userID := p.UserID
	if !p.Authenticated() {
		u, err := s.Users.UpsertGuest(ctx, ship.Email, ship.FullName)
		if err != nil {
			return Receipt{}, err
		}
		userID = u.ID
	}

	tax := subtotal.Mul(s.TaxRate).Round(2)
	total := subtotal.Add(s.Shipping).Add(tax)
	order := domain.Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		Status:        domain.OrderPending,
		PaymentStatus: domain.PaymentPending,
		Subtotal:      subtotal,
		Tax:           tax,
		ShippingCost:  s.Shipping,
		Total:         total,
		ShippingJSON:  ship.JSON(),
		CreatedAt:     time.Now().UTC().Format(repos.TimeLayout),
	}

	err = repos.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if err := s.Orders.Insert(ctx, tx, order); err != nil {
			return err
		}
		for _, it := range orderItems {
			it.OrderID = order.ID
			if err := s.Orders.InsertItem(ctx, tx, it); err != nil {
				return err
			}
			// stock may have moved since the read above
			ok, err := s.Inv.Decrement(ctx, tx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrInsufficientStock.With("insufficient stock for %s", it.Name)
			}
		}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	if s.Log != nil {
		s.Log.WithFields(logrus.Fields{
			"order_id": order.ID,
			"user_id":  userID,
			"lines":    len(orderItems),
			"total":    total.StringFixed(2),
		}).Info("order.create")
	}
	return Receipt{
		OrderID:      order.ID,
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: s.Shipping,
		Total:        total,
	}, nil
}
