// Package apperr defines the error kinds returned by the guard and the order
// engine, and how each kind maps to an HTTP status and a gRPC code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Kind string

const (
	Unauthenticated   Kind = "unauthenticated"
	Forbidden         Kind = "forbidden"
	NotFound          Kind = "not_found"
	ValidationFailed  Kind = "validation_failed"
	InsufficientStock Kind = "insufficient_stock"
	InvalidTransition Kind = "invalid_transition"
	Conflict          Kind = "conflict"
	Internal          Kind = "internal"
)

// HTTPStatus returns the status code the boundary layer answers with.
func (k Kind) HTTPStatus() int {
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case ValidationFailed:
		return http.StatusBadRequest
	case InsufficientStock, InvalidTransition, Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) grpcCode() codes.Code {
	switch k {
	case Unauthenticated:
		return codes.Unauthenticated
	case Forbidden:
		return codes.PermissionDenied
	case NotFound:
		return codes.NotFound
	case ValidationFailed:
		return codes.InvalidArgument
	case InsufficientStock:
		return codes.ResourceExhausted
	case InvalidTransition:
		return codes.FailedPrecondition
	case Conflict:
		return codes.Aborted
	default:
		return codes.Internal
	}
}

// Error is a classified failure. Message is safe to show to clients; Err is
// the internal cause and is never rendered.
type Error struct {
	Kind    Kind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Code is the HTTP-status equivalent of the error kind.
func (e *Error) Code() int { return e.Kind.HTTPStatus() }

// GRPCStatus lets status.FromError classify the error on gRPC transports.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Kind.grpcCode(), e.Message)
}

// Is matches another *Error of the same kind, so callers can write
// errors.Is(err, apperr.E(apperr.Forbidden, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf classifies any error; unclassified errors are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// As extracts the *Error from err, classifying unknown errors as Internal
// with a generic message.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: Internal, Message: "internal server error", Err: err}
}
