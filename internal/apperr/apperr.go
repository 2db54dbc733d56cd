// Package apperr defines the error taxonomy shared by the ledger, the engines and
// the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers.
type Kind string

const (
	InsufficientFunds    Kind = "insufficient_funds"
	InsufficientTreasury Kind = "insufficient_treasury"
	CurrencyUnavailable  Kind = "currency_unavailable"
	InvalidRequest       Kind = "invalid_request"
	DiscountError        Kind = "discount_error"
	InvalidState         Kind = "invalid_state"
	DuplicateReference   Kind = "duplicate_reference"
	Timeout              Kind = "timeout"
	StorageFailure       Kind = "storage_failure"
	NotFound             Kind = "not_found"
	Unsupported          Kind = "unsupported"
	Underflow            Kind = "underflow"
)

// Reason refines DiscountError.
type Reason string

const (
	ReasonNotFound          Reason = "not_found"
	ReasonInactive          Reason = "inactive"
	ReasonNotStarted        Reason = "not_started"
	ReasonExpired           Reason = "expired"
	ReasonUsageLimitReached Reason = "usage_limit_reached"
	ReasonCurrencyMismatch  Reason = "currency_mismatch"
	ReasonUserMismatch      Reason = "user_mismatch"
	ReasonBelowMinimum      Reason = "below_minimum"
	ReasonUserLimitReached  Reason = "user_limit_reached"
)

// Error is the single error type crossing package boundaries.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	cause   error
}

// Sentinels for errors.Is matching by kind.
var (
	ErrInsufficientFunds    = &Error{Kind: InsufficientFunds}
	ErrInsufficientTreasury = &Error{Kind: InsufficientTreasury}
	ErrCurrencyUnavailable  = &Error{Kind: CurrencyUnavailable}
	ErrInvalidRequest       = &Error{Kind: InvalidRequest}
	ErrDiscount             = &Error{Kind: DiscountError}
	ErrInvalidState         = &Error{Kind: InvalidState}
	ErrDuplicateReference   = &Error{Kind: DuplicateReference}
	ErrTimeout              = &Error{Kind: Timeout}
	ErrStorageFailure       = &Error{Kind: StorageFailure}
	ErrNotFound             = &Error{Kind: NotFound}
	ErrUnsupported          = &Error{Kind: Unsupported}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
		if e.Reason != "" {
			msg += ": " + string(e.Reason)
		}
	}
	if e.cause != nil {
		return msg + ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches on Kind, and on Reason when the target carries one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// New builds an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying cause.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, cause: cause}
}

// Discount builds a DiscountError with its reason.
func Discount(reason Reason, msg string) *Error {
	return &Error{Kind: DiscountError, Reason: reason, Message: msg}
}

// KindOf extracts the kind of err, StorageFailure for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return StorageFailure
}

// IsKind reports whether err carries kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ReasonOf extracts the discount reason, if any.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// IsRetryable reports whether an operation that failed with err may be run again.
// Only contention-shaped failures qualify; the atomic scope was rolled back.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == Timeout || (e.Kind == StorageFailure && errors.Is(e.cause, errConflict))
}

var errConflict = errors.New("serialization conflict")

// Conflict marks a storage failure caused by a deadlock or serialization abort.
func Conflict(cause error) *Error {
	return &Error{Kind: StorageFailure, Message: "storage conflict", cause: fmt.Errorf("%w: %w", errConflict, cause)}
}

// PublicMessage is the text safe to show an end user.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "processing failed"
	}
	switch e.Kind {
	case StorageFailure, Timeout, Underflow:
		return "processing failed"
	}
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}
