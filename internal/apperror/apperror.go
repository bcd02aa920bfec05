// Package apperror defines the typed errors returned by the service layer.
//
// Every error a caller can act on wraps one of four sentinels, so handlers
// (or any other transport) can branch with errors.Is:
//
//	ErrValidation → malformed or empty input, self-follow
//	ErrForbidden  → the actor lacks rights over the target entity
//	ErrNotFound   → a referenced entity does not exist
//	ErrConflict   → a uniqueness violation (collapsed by the toggles)
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

type AppError struct {
	Err     error  // sentinel
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden is returned when the caller lacks rights over the entity.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Is reports whether err carries the given sentinel. It is a small
// convenience for call sites that check several kinds in a row.
func Is(err error, sentinel error) bool {
	return errors.Is(err, sentinel)
}
