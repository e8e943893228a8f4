package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind — таксономия отказов. Все отказы терминальные, сервер их не ретраит.
type ErrorKind string

const (
	KindBankNotFound   ErrorKind = "bank_not_found"
	KindUpstream500    ErrorKind = "upstream_500"
	KindTimeout        ErrorKind = "timeout"
	KindServerError    ErrorKind = "server_error"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindRateLimited    ErrorKind = "rate_limited"
)

var (
	ErrBankNotFound = errors.New("bank not found")
)

// ConnectError возвращается симулятором для любого неуспешного исхода.
type ConnectError struct {
	Kind      ErrorKind
	Message   string
	SessionID string
	Cause     error
}

func (e *ConnectError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// StatusFor переводит вид ошибки в HTTP-статус фасада.
func StatusFor(kind ErrorKind) int {
	switch kind {
	case KindBankNotFound, KindInvalidRequest:
		return http.StatusBadRequest
	case KindUpstream500:
		return http.StatusInternalServerError
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// KindOf достает ErrorKind из цепочки ошибок. Неизвестные ошибки — server_error.
func KindOf(err error) ErrorKind {
	var cErr *ConnectError
	if errors.As(err, &cErr) {
		return cErr.Kind
	}
	return KindServerError
}
