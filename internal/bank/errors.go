package bank

import (
	"errors"
	"fmt"
)

// Kind classifies adapter failures. It drives retry policy and the sync outcome.
type Kind string

const (
	KindAuth            Kind = "auth"
	KindNetwork         Kind = "network"
	KindMalformed       Kind = "malformed_response"
	KindPaginationLimit Kind = "pagination_limit"
)

// Sentinels matching each kind through errors.Is.
var (
	ErrAuth              = errors.New("bank: authentication failed")
	ErrNetwork           = errors.New("bank: network failure")
	ErrMalformedResponse = errors.New("bank: malformed response")
	ErrPaginationLimit   = errors.New("bank: pagination limit exceeded")
)

// Error is the error every adapter returns for remote failures.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrAuth:
		return e.Kind == KindAuth
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrMalformedResponse:
		return e.Kind == KindMalformed
	case ErrPaginationLimit:
		return e.Kind == KindPaginationLimit
	}
	return false
}

func AuthError(op string, status int, err error) error {
	return &Error{Kind: KindAuth, Op: op, Status: status, Err: err}
}

func NetworkError(op string, err error) error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

func MalformedError(op string, err error) error {
	return &Error{Kind: KindMalformed, Op: op, Err: err}
}

func PaginationLimitError(op string, limit int) error {
	return &Error{Kind: KindPaginationLimit, Op: op, Err: fmt.Errorf("more than %d pages", limit)}
}

// KindOf returns the kind of err, or "" when err is not an adapter error.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// Retryable reports whether a caller may retry. Only transient transport
// failures qualify; auth failures need re-authentication.
func Retryable(err error) bool {
	return KindOf(err) == KindNetwork
}
