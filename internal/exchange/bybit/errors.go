package bybit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/quangdle/crypto-signal-bot/internal/exchange"
)

// Bybit v5 API return codes this adapter recognizes.
const (
	retCodeInvalidAPIKey       = 10003
	retCodeInvalidSignature    = 10004
	retCodeInvalidTimestamp    = 10005
	retCodeRateLimitExceeded   = 10006
	retCodeOrderNotFound       = 110001
	retCodeInsufficientBalance = 110007
	retCodeSymbolNotFound      = 110009
	retCodeInvalidQuantity     = 110020
)

// apiError is a non-zero retCode response from Bybit. It is always
// mapped into the exchange taxonomy before leaving this package.
type apiError struct {
	Code    int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("bybit API error %d: %s", e.Code, e.Message)
}

// checkRetCode converts a non-zero retCode into an apiError.
func checkRetCode(retCode int, retMsg string) error {
	if retCode == 0 {
		return nil
	}
	return &apiError{Code: retCode, Message: retMsg}
}

// retCodeKinds is the explicit mapping table from Bybit return codes to
// the adapter error taxonomy.
var retCodeKinds = map[int]exchange.ErrorKind{
	retCodeRateLimitExceeded:   exchange.KindRateLimited,
	retCodeInsufficientBalance: exchange.KindInsufficientFunds,
	retCodeSymbolNotFound:      exchange.KindBadSymbol,
	retCodeInvalidQuantity:     exchange.KindUnknown,
	retCodeInvalidAPIKey:       exchange.KindConnection,
	retCodeInvalidSignature:    exchange.KindConnection,
	retCodeInvalidTimestamp:    exchange.KindConnection,
}

// mapError classifies a provider error into the taxonomy, preserving the
// original message. Already-typed errors pass through untouched.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var typed *exchange.Error
	if errors.As(err, &typed) {
		return err
	}

	var api *apiError
	if errors.As(err, &api) {
		if kind, ok := retCodeKinds[api.Code]; ok {
			return exchange.WrapError(kind, op, err)
		}
		return exchange.WrapError(exchange.KindUnknown, op, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return exchange.WrapError(exchange.KindNetwork, op, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return exchange.WrapError(exchange.KindNetwork, op, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return exchange.WrapError(exchange.KindRateLimited, op, err)
	case strings.Contains(msg, "insufficient"):
		return exchange.WrapError(exchange.KindInsufficientFunds, op, err)
	case strings.Contains(msg, "symbol"):
		return exchange.WrapError(exchange.KindBadSymbol, op, err)
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "dial"),
		strings.Contains(msg, "dns"),
		strings.Contains(msg, "no such host"):
		return exchange.WrapError(exchange.KindNetwork, op, err)
	}

	return exchange.WrapError(exchange.KindUnknown, op, err)
}

// isPreSubmission reports whether a failure unambiguously happened
// before the request reached the exchange, making a retry safe for
// order placement. A deadline exceeded after sending is ambiguous and
// never qualifies.
func isPreSubmission(err error) bool {
	if exchange.IsRateLimited(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "dial") ||
		strings.Contains(msg, "no such host")
}
