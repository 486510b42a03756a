package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common sentinel errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("upstream unavailable")
)

// AppError carries the HTTP status and the client-facing message for a failure.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

var sentinelStatus = []struct {
	err     error
	code    int
	message string
}{
	{ErrInvalidInput, http.StatusBadRequest, "Invalid request"},
	{ErrNotFound, http.StatusNotFound, "Resource not found"},
	{ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{ErrForbidden, http.StatusForbidden, "Forbidden"},
	{ErrConflict, http.StatusConflict, "Conflict"},
	{ErrUnavailable, http.StatusServiceUnavailable, "Service temporarily unavailable"},
}

// MapError maps an error onto an AppError. Errors that already are AppErrors
// pass through; unknown errors become 500s.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	for _, s := range sentinelStatus {
		if errors.Is(err, s.err) {
			return NewAppError(s.code, s.message, err)
		}
	}

	return NewAppError(http.StatusInternalServerError, "Internal server error", err)
}

// Is reports whether err matches target. It saves callers from importing
// both this package and the standard errors package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As re-exported for the same reason as Is.
func As(err error, target any) bool {
	return errors.As(err, target)
}
