// Package domain holds the error taxonomy shared by the query core and its callers.
package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindBackendUnavailable  Kind = "backend_unavailable"
	KindBackendFailure      Kind = "backend_failure"
	KindSourceSearchFailure Kind = "source_search_failure"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindUnauthorized        Kind = "unauthorized"
	KindRateLimited         Kind = "rate_limited"
	KindConfig              Kind = "config"
	KindInternal            Kind = "internal"
)

// Error is a domain error with a kind and a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func InvalidInput(message string) *Error {
	return NewError(KindInvalidInput, message, nil)
}

func BackendUnavailable(message string, err error) *Error {
	return NewError(KindBackendUnavailable, message, err)
}

func BackendFailure(message string, err error) *Error {
	return NewError(KindBackendFailure, message, err)
}

func SourceSearchFailure(source string, err error) *Error {
	return NewError(KindSourceSearchFailure, source+" search failed", err)
}

func NotFound(message string) *Error {
	return NewError(KindNotFound, message, nil)
}

func Conflict(message string) *Error {
	return NewError(KindConflict, message, nil)
}

func Unauthorized(message string) *Error {
	return NewError(KindUnauthorized, message, nil)
}

func ConfigError(message string, err error) *Error {
	return NewError(KindConfig, message, err)
}

// KindOf returns the kind of the first domain error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the caller-facing message of a domain error, or err.Error().
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
