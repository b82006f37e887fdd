// Package apperror defines the error taxonomy shared by every layer.
//
// Services return these errors (usually wrapped with fmt.Errorf("...: %w", err))
// and the HTTP boundary turns them into a status code with StatusOf. Nothing
// outside the handler package should ever pick a status code itself.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrMaxPage      = errors.New("max page reached")
	ErrRateLimited  = errors.New("too many requests")
)

type AppError struct {
	Err     error  // sentinel class, matched with errors.Is
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Status  int    // Optional: overrides the class status (e.g. 400 for a missing actor header)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithStatus pins the HTTP status for this error regardless of its class.
func (e *AppError) WithStatus(status int) *AppError {
	e.Status = status
	return e
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// Missing is a NotFound with a caller-chosen message, e.g. "Email not found".
func Missing(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
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

// AlreadyTaken reports a uniqueness violation on field. The message always
// names the field so clients can tell which value to change.
func AlreadyTaken(field, value string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("Already taken: {%s: %q}", field, value),
		Field:   field,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// MaxPage signals that the requested page lies past the last page of a
// non-empty listing. It is deliberately distinct from ErrNotFound.
func MaxPage() *AppError {
	return &AppError{
		Err:     ErrMaxPage,
		Message: "Max. page limit reached",
	}
}

// RateLimited tells the caller to slow down.
func RateLimited() *AppError {
	return &AppError{
		Err:     ErrRateLimited,
		Message: "Too many requests, try again later",
	}
}

// StatusOf classifies err into an HTTP status code.
//
//	ErrValidation, ErrConflict, ErrMaxPage → 400
//	ErrUnauthorized                        → 401
//	ErrForbidden                           → 403
//	ErrNotFound                            → 404
//	ErrRateLimited                         → 429
//	anything else                          → 500
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict), errors.Is(err, ErrMaxPage):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// MessageOf returns the client-facing message carried by err, or "" when err
// is not an AppError.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}
