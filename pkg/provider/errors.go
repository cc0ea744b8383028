package provider

import (
	"errors"
	"fmt"
	"strings"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// EIP-1193 and JSON-RPC error codes we care about.
const (
	codeUserRejected   = 4001
	codeMethodNotFound = -32601
)

var (
	// ErrProviderUnavailable is returned when no wallet provider is injected.
	ErrProviderUnavailable = errors.New("no wallet provider available")
	// ErrRejected matches provider errors caused by the user declining a request.
	ErrRejected = errors.New("request rejected by user")
	// ErrInsufficientFunds matches provider errors about an unaffordable transfer.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNoSigner is returned when the provider exposes no account to sign with.
	ErrNoSigner = errors.New("provider exposes no accounts")
)

// Error wraps a failure surfaced by the provider.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is classifies the wrapped failure so callers can test for ErrRejected and
// ErrInsufficientFunds with errors.Is.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrRejected:
		return errorCode(e.Err) == codeUserRejected
	case ErrInsufficientFunds:
		return e.Err != nil && strings.Contains(strings.ToLower(e.Err.Error()), "insufficient funds")
	}
	return false
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Op: op, Err: err}
}

func errorCode(err error) int {
	var rpcErr gethrpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode()
	}
	return 0
}
