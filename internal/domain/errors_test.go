package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusFor(t *testing.T) {
	testCases := []struct {
		kind ErrorKind
		want int
	}{
		{KindBankNotFound, http.StatusBadRequest},
		{KindInvalidRequest, http.StatusBadRequest},
		{KindUpstream500, http.StatusInternalServerError},
		{KindTimeout, http.StatusGatewayTimeout},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindServerError, http.StatusInternalServerError},
		{ErrorKind("unknown"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(string(tc.kind), func(t *testing.T) {
			if got := StatusFor(tc.kind); got != tc.want {
				t.Fatalf("StatusFor(%s)=%d want %d", tc.kind, got, tc.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("engine: %w", &ConnectError{Kind: KindTimeout, Message: "slow"})
	if got := KindOf(wrapped); got != KindTimeout {
		t.Fatalf("KindOf(wrapped)=%s want timeout", got)
	}
	if got := KindOf(errors.New("boom")); got != KindServerError {
		t.Fatalf("KindOf(plain)=%s want server_error", got)
	}
}

func TestConnectErrorUnwrap(t *testing.T) {
	err := &ConnectError{Kind: KindBankNotFound, Message: "x", Cause: ErrBankNotFound}
	if !errors.Is(err, ErrBankNotFound) {
		t.Fatal("expected errors.Is to reach ErrBankNotFound")
	}
}
