package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"jamde/internal/domain"
	"jamde/internal/guard"
	"jamde/internal/repos"
)

// AdminService runs the guarded back-office mutations on orders and users. Every mutation
// checks its guard first and writes nothing when the guard refuses.
type AdminService struct {
	Orders *repos.OrderRepo
	Users  *repos.UserRepo
	Log    logrus.FieldLogger
}

func NewAdminService(orders *repos.OrderRepo, users *repos.UserRepo, log logrus.FieldLogger) *AdminService {
	return &AdminService{Orders: orders, Users: users, Log: log}
}

func (s *AdminService) audit(action string, fields logrus.Fields) {
	if s.Log != nil {
		s.Log.WithFields(fields).Info(action)
	}
}

// ---------- orders ----------

type OrderPage struct {
	Items      []repos.OrderSummary `json:"items"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"totalPages"`
}

func (s *AdminService) ListOrders(ctx context.Context, f repos.OrderFilter) (OrderPage, error) {
	if f.Status != "" && !f.Status.Valid() {
		return OrderPage{}, domain.ErrInvalidInput.With("unknown order status %q", f.Status)
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return OrderPage{}, domain.ErrInvalidInput.With("unknown payment status %q", f.PaymentStatus)
	}
	f.Page = max(f.Page, 1)
	f.PerPage = adminPageSize
	items, total, err := s.Orders.List(ctx, f)
	if err != nil {
		return OrderPage{}, err
	}
	return OrderPage{Items: items, Total: total, Page: f.Page, TotalPages: totalPages(total, adminPageSize)}, nil
}

type AdminOrderDetail struct {
	OrderDetail
	Customer *domain.User `json:"customer"`
}

func (s *AdminService) Order(ctx context.Context, id string) (AdminOrderDetail, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return AdminOrderDetail{}, err
	}
	items, err := s.Orders.Items(ctx, id)
	if err != nil {
		return AdminOrderDetail{}, err
	}
	out := AdminOrderDetail{OrderDetail: OrderDetail{Order: o, Shipping: o.Shipping(), Items: items}}
	if o.UserID != "" {
		if u, err := s.Users.ByID(ctx, o.UserID); err == nil {
			out.Customer = &u
		}
	}
	return out, nil
}

func (s *AdminService) SetOrderStatus(ctx context.Context, id string, next domain.OrderStatus) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if err := guard.CheckOrderStatus(o.Status, next); err != nil {
		return domain.Order{}, err
	}
	if err := s.Orders.UpdateStatus(ctx, id, o.Status, next); err != nil {
		return domain.Order{}, err
	}
	s.audit("admin.orders.status", logrus.Fields{"order_id": id, "from": o.Status, "to": next})
	return s.Orders.Get(ctx, id)
}

func (s *AdminService) SetPaymentStatus(ctx context.Context, id string, next domain.PaymentStatus) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if err := guard.CheckPaymentStatus(o.PaymentStatus, next); err != nil {
		return domain.Order{}, err
	}
	if err := s.Orders.UpdatePaymentStatus(ctx, id, o.PaymentStatus, next); err != nil {
		return domain.Order{}, err
	}
	s.audit("admin.orders.payment_status", logrus.Fields{"order_id": id, "from": o.PaymentStatus, "to": next})
	return s.Orders.Get(ctx, id)
}

// Refund marks a paid order REFUNDED. Money movement happens at the provider.
func (s *AdminService) Refund(ctx context.Context, id string) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if err := guard.CheckRefund(o); err != nil {
		return domain.Order{}, err
	}
	if err := s.Orders.Refund(ctx, id, o.Status); err != nil {
		return domain.Order{}, err
	}
	s.audit("admin.orders.refund", logrus.Fields{"order_id": id, "amount": o.Total.StringFixed(2)})
	return s.Orders.Get(ctx, id)
}

// ---------- users ----------

type UserPage struct {
	Items      []repos.UserSummary `json:"items"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"totalPages"`
}

func (s *AdminService) ListUsers(ctx context.Context, q string, page int) (UserPage, error) {
	page = max(page, 1)
	items, total, err := s.Users.List(ctx, q, page, adminPageSize)
	if err != nil {
		return UserPage{}, err
	}
	return UserPage{Items: items, Total: total, Page: page, TotalPages: totalPages(total, adminPageSize)}, nil
}

type UserDetail struct {
	User   domain.User    `json:"user"`
	Orders []domain.Order `json:"orders"`
}

func (s *AdminService) User(ctx context.Context, id string) (UserDetail, error) {
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return UserDetail{}, err
	}
	orders, err := s.Orders.ListByUser(ctx, id)
	if err != nil {
		return UserDetail{}, err
	}
	return UserDetail{User: u, Orders: orders}, nil
}

func (s *AdminService) ChangeRole(ctx context.Context, id string, role domain.Role) (domain.User, error) {
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	admins, err := s.Users.CountAdmins(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if err := guard.CheckRoleChange(u, role, admins); err != nil {
		return domain.User{}, err
	}
	if u.Role == role {
		return u, nil
	}
	if err := s.Users.SetRole(ctx, id, role); err != nil {
		return domain.User{}, err
	}
	s.audit("admin.users.role", logrus.Fields{"user_id": id, "from": u.Role, "to": role})
	u.Role = role
	return u, nil
}

// DeleteUser removes an account. Its open orders are cancelled and all of its orders are
// kept, detached from the user.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return err
	}
	admins, err := s.Users.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if err := guard.CheckDeleteUser(u, admins); err != nil {
		return err
	}
	if err := s.Users.DeleteUserCascade(ctx, id); err != nil {
		return err
	}
	s.audit("admin.users.delete", logrus.Fields{"user_id": id, "email": u.Email})
	return nil
}
