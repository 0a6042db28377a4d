// Package guard holds the pure predicates checked before any mutating admin action.
// The Check variants return a domain error suitable for handing straight back to a handler.
package guard

import (
	"jamde/internal/domain"
)

// CanTransitionOrderStatus allows any valid target except when leaving a terminal status.
func CanTransitionOrderStatus(current, next domain.OrderStatus) bool {
	if !next.Valid() {
		return false
	}
	return !current.Terminal()
}

// CanTransitionPaymentStatus: REFUNDED is final, PAID may only become REFUNDED,
// FAILED may be retried (PENDING) or settled late (PAID).
func CanTransitionPaymentStatus(current, next domain.PaymentStatus) bool {
	if !next.Valid() {
		return false
	}
	switch current {
	case domain.PaymentRefunded:
		return false
	case domain.PaymentPaid:
		return next == domain.PaymentRefunded || next == domain.PaymentPaid
	case domain.PaymentFailed:
		return next == domain.PaymentPending || next == domain.PaymentPaid || next == domain.PaymentFailed
	}
	return true
}

func CanRefund(o domain.Order) bool {
	return o.PaymentStatus == domain.PaymentPaid && !o.Status.Terminal()
}

// CanChangeRole denies demoting the only remaining admin.
func CanChangeRole(target domain.User, newRole domain.Role, adminCount int) bool {
	if !newRole.Valid() {
		return false
	}
	if target.Role == domain.RoleAdmin && newRole != domain.RoleAdmin && adminCount <= 1 {
		return false
	}
	return true
}

func CanDeleteUser(target domain.User, adminCount int) bool {
	return !(target.Role == domain.RoleAdmin && adminCount <= 1)
}

func CheckOrderStatus(current, next domain.OrderStatus) error {
	if !next.Valid() {
		return domain.ErrInvalidInput.With("unknown order status %q", next)
	}
	if !CanTransitionOrderStatus(current, next) {
		return domain.ErrInvalidTransition.With("order status cannot change from %s", current)
	}
	return nil
}

func CheckPaymentStatus(current, next domain.PaymentStatus) error {
	if !next.Valid() {
		return domain.ErrInvalidInput.With("unknown payment status %q", next)
	}
	if !CanTransitionPaymentStatus(current, next) {
		return domain.ErrInvalidTransition.With("payment status cannot change from %s to %s", current, next)
	}
	return nil
}

func CheckRefund(o domain.Order) error {
	if !CanRefund(o) {
		return domain.ErrNotRefundable.With("order %s is %s/%s and cannot be refunded", o.ID, o.Status, o.PaymentStatus)
	}
	return nil
}

func CheckRoleChange(target domain.User, newRole domain.Role, adminCount int) error {
	if !newRole.Valid() {
		return domain.ErrInvalidInput.With("unknown role %q", newRole)
	}
	if !CanChangeRole(target, newRole, adminCount) {
		return domain.ErrLastAdmin
	}
	return nil
}

func CheckDeleteUser(target domain.User, adminCount int) error {
	if !CanDeleteUser(target, adminCount) {
		return domain.ErrLastAdmin
	}
	return nil
}
