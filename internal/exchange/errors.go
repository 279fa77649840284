package exchange

import (
	"errors"
	"fmt"
)

// ErrorKind is the fixed taxonomy every provider error is mapped into.
// Internal components depend only on these kinds, never on provider
// types.
type ErrorKind string

const (
	// KindInsufficientFunds: the exchange rejected the order due to
	// balance. User-actionable, never retried.
	KindInsufficientFunds ErrorKind = "INSUFFICIENT_FUNDS"

	// KindBadSymbol: unknown or unsupported pair. Fatal for that
	// symbol's task.
	KindBadSymbol ErrorKind = "BAD_SYMBOL"

	// KindNetwork: transport-level failure. Transient, retried with
	// backoff.
	KindNetwork ErrorKind = "NETWORK"

	// KindRateLimited: the provider throttled us. Transient, retried
	// with backoff.
	KindRateLimited ErrorKind = "RATE_LIMITED"

	// KindConnection: the adapter is not connected. Triggers a
	// reconnect before the next cycle.
	KindConnection ErrorKind = "CONNECTION"

	// KindUnknown: anything the mapping table does not recognize, and
	// transient errors that exhausted their retries.
	KindUnknown ErrorKind = "UNKNOWN_EXCHANGE_ERROR"
)

// Error is a typed exchange failure. The original provider message is
// always preserved in Err or Message; the adapter never swallows a
// failure into a success-shaped result.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Kind, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a typed error without an underlying cause.
func NewError(kind ErrorKind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// WrapError wraps a provider error with a taxonomy kind.
func WrapError(kind ErrorKind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the taxonomy kind of an error, or KindUnknown for
// anything untyped.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the error is transient and safe to retry
// with backoff.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindRateLimited:
		return true
	}
	return false
}

// IsBadSymbol reports whether the error disables the symbol's task.
func IsBadSymbol(err error) bool {
	return KindOf(err) == KindBadSymbol
}

// IsInsufficientFunds reports whether the exchange rejected for balance.
func IsInsufficientFunds(err error) bool {
	return KindOf(err) == KindInsufficientFunds
}

// IsConnection reports whether the adapter lost its connection.
func IsConnection(err error) bool {
	return KindOf(err) == KindConnection
}

// IsRateLimited reports whether the provider throttled the request.
func IsRateLimited(err error) bool {
	return KindOf(err) == KindRateLimited
}
