// Package apperror defines the error taxonomy shared by the client core.
//
// Every failure a view can show is one of a handful of kinds. Callers test
// the kind with errors.Is against the sentinels below and read the
// human-readable text from AppError.Message.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrGateway marks a failed call to an external backend (non-2xx or network).
	ErrGateway = errors.New("gateway error")
	// ErrInvalidState marks an event that is not accepted in the current state
	// of a state machine (e.g. submit while results are shown).
	ErrInvalidState = errors.New("invalid state")
)

type AppError struct {
	Err     error  // actual error
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

// Forbidden returns an AppError indicating the caller lacks permission.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for an operation that needs a session.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Gateway returns an AppError carrying the message a view should display
// for a failed backend call.
func Gateway(message string) *AppError {
	return &AppError{
		Err:     ErrGateway,
		Message: message,
	}
}

// InvalidState returns an AppError for an event rejected by a state machine.
func InvalidState(event, state string) *AppError {
	return &AppError{
		Err:     ErrInvalidState,
		Message: fmt.Sprintf("%s is not allowed in state %s", event, state),
	}
}

// Message returns the text a view should show for err. Errors that are not
// AppErrors are internal and get the supplied fallback instead of their text.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
