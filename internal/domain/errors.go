package domain

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindAuth
	KindAuthorization
	KindNotFound
	KindConflict
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream"
	}
	return "unknown"
}

// Error is a classified failure. Two errors are the same (errors.Is) when their codes match,
// so callers compare against the sentinels below regardless of the detail message.
type Error struct {
	Kind ErrorKind
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// With returns a copy carrying a more specific message.
func (e *Error) With(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns a copy that records cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Msg: e.Msg, Err: cause}
}

var (
	ErrInvalidInput      = &Error{Kind: KindValidation, Code: "invalid_input", Msg: "invalid input"}
	ErrInvalidProduct    = &Error{Kind: KindValidation, Code: "invalid_product", Msg: "product not found"}
	ErrProductInactive   = &Error{Kind: KindValidation, Code: "product_inactive", Msg: "product is not available"}
	ErrInsufficientStock = &Error{Kind: KindValidation, Code: "insufficient_stock", Msg: "insufficient stock"}
	ErrUnauthenticated   = &Error{Kind: KindAuth, Code: "unauthenticated", Msg: "sign in required"}
	ErrBadCredentials    = &Error{Kind: KindAuth, Code: "bad_credentials", Msg: "invalid email or password"}
	ErrForbidden         = &Error{Kind: KindAuthorization, Code: "forbidden", Msg: "forbidden"}
	ErrNotFound          = &Error{Kind: KindNotFound, Code: "not_found", Msg: "not found"}
	ErrDuplicate         = &Error{Kind: KindConflict, Code: "duplicate", Msg: "already exists"}
	ErrLastAdmin         = &Error{Kind: KindConflict, Code: "last_admin", Msg: "cannot remove the last admin user"}
	ErrInvalidTransition = &Error{Kind: KindConflict, Code: "invalid_transition", Msg: "status change not allowed"}
	ErrNotRefundable     = &Error{Kind: KindConflict, Code: "not_refundable", Msg: "order cannot be refunded"}
	ErrPaymentInit       = &Error{Kind: KindUpstream, Code: "payment_init", Msg: "could not start payment"}
	ErrUpstream          = &Error{Kind: KindUpstream, Code: "upstream", Msg: "service unavailable"}
)

// KindOf classifies err; unclassified errors are KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
