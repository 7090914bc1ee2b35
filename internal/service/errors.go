package service

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for callers that need to decide how to react:
// fix the input, pick another seat, or try again later.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindBusinessRule
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBusinessRule:
		return "business_rule"
	case KindPersistence:
		return "persistence"
	}
	return "unknown"
}

// Error is the typed failure returned by every TicketService operation.
// Seat is set for seat conflicts and invalid seat numbers; Required and
// Available are set for insufficient balance.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Seat      int
	Required  int64
	Available int64
	Err       error
}

func (e *Error) Error() string {
	msg := e.Message
	switch {
	case e.Code == codeInsufficientBalance && e.Required > 0:
		msg = fmt.Sprintf("%s: required %d, available %d", msg, e.Required, e.Available)
	case e.Seat != 0:
		msg = fmt.Sprintf("%s: seat %d", msg, e.Seat)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so callers can write
// errors.Is(err, service.ErrSeatConflict) regardless of the details.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

const (
	codeInvalidInput        = "INVALID_INPUT"
	codeInvalidSeats        = "INVALID_SEATS"
	codeTripNotFound        = "TRIP_NOT_FOUND"
	codeTicketNotFound      = "TICKET_NOT_FOUND"
	codeUserNotFound        = "USER_NOT_FOUND"
	codeCouponNotFound      = "COUPON_NOT_FOUND"
	codeSeatConflict        = "SEAT_CONFLICT"
	codeCouponExpired       = "COUPON_EXPIRED"
	codeCouponWrongScope    = "COUPON_WRONG_SCOPE"
	codeCouponUsageLimit    = "COUPON_USAGE_LIMIT"
	codeInsufficientBalance = "INSUFFICIENT_BALANCE"
	codeWrongTicketStatus   = "WRONG_TICKET_STATUS"
	codeDeadlinePassed      = "DEADLINE_PASSED"
	codeNotOwner            = "NOT_OWNER"
	codePersistence         = "PERSISTENCE"
)

var (
	ErrInvalidInput = &Error{Kind: KindValidation, Code: codeInvalidInput, Message: "invalid input"}
	ErrInvalidSeats = &Error{Kind: KindValidation, Code: codeInvalidSeats, Message: "invalid seat selection"}

	ErrTripNotFound   = &Error{Kind: KindNotFound, Code: codeTripNotFound, Message: "trip not found"}
	ErrTicketNotFound = &Error{Kind: KindNotFound, Code: codeTicketNotFound, Message: "ticket not found"}
	ErrUserNotFound   = &Error{Kind: KindNotFound, Code: codeUserNotFound, Message: "user not found"}
	ErrCouponNotFound = &Error{Kind: KindNotFound, Code: codeCouponNotFound, Message: "coupon not found"}

	ErrSeatConflict = &Error{Kind: KindConflict, Code: codeSeatConflict, Message: "seat already booked"}

	ErrCouponExpired       = &Error{Kind: KindBusinessRule, Code: codeCouponExpired, Message: "coupon expired"}
	ErrCouponWrongScope    = &Error{Kind: KindBusinessRule, Code: codeCouponWrongScope, Message: "coupon not valid for this company"}
	ErrCouponUsageLimit    = &Error{Kind: KindBusinessRule, Code: codeCouponUsageLimit, Message: "coupon usage limit reached"}
	ErrInsufficientBalance = &Error{Kind: KindBusinessRule, Code: codeInsufficientBalance, Message: "insufficient balance"}
	ErrWrongTicketStatus   = &Error{Kind: KindBusinessRule, Code: codeWrongTicketStatus, Message: "only active tickets can be canceled"}
	ErrDeadlinePassed      = &Error{Kind: KindBusinessRule, Code: codeDeadlinePassed, Message: "cancellation deadline passed"}
	ErrNotOwner            = &Error{Kind: KindBusinessRule, Code: codeNotOwner, Message: "ticket belongs to another user"}
	ErrPersistence         = &Error{Kind: KindPersistence, Code: codePersistence, Message: "storage failure"}
)

func invalid(msg string) *Error {
	return &Error{Kind: KindValidation, Code: codeInvalidInput, Message: msg}
}

func invalidSeat(seat int, msg string) *Error {
	return &Error{Kind: KindValidation, Code: codeInvalidSeats, Message: msg, Seat: seat}
}

func seatConflict(seat int) *Error {
	return &Error{Kind: KindConflict, Code: codeSeatConflict, Message: ErrSeatConflict.Message, Seat: seat}
}

func insufficientBalance(required, available int64) *Error {
	return &Error{
		Kind:      KindBusinessRule,
		Code:      codeInsufficientBalance,
		Message:   ErrInsufficientBalance.Message,
		Required:  required,
		Available: available,
	}
}

func persistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Code: codePersistence, Message: op, Err: err}
}

// KindOf returns the Kind of err, or KindPersistence for errors that did
// not originate in this package.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindPersistence
}
