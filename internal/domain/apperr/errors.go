// Package apperr holds the error taxonomy shared by every layer and the
// mapping from error kind to HTTP status used by the central responder.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrAuthentication  = errors.New("invalid credentials")
	ErrUnauthenticated = errors.New("authentication required")
	ErrInvalidToken    = errors.New("invalid session token")
	ErrForbidden       = errors.New("insufficient privileges")
	ErrConflict        = errors.New("resource already exists")
	ErrInternal        = errors.New("internal server error")
)

// ValidationError carries the failed fields of a request. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Message string
	Details map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return ErrValidation.Error()
	}
	return e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validation builds a *ValidationError.
func Validation(message string, details map[string]string) error {
	return &ValidationError{Message: message, Details: details}
}

var statusTable = []struct {
	target error
	status int
}{
	{ErrValidation, http.StatusBadRequest},
	{ErrNotFound, http.StatusNotFound},
	{ErrAuthentication, http.StatusUnauthorized},
	{ErrUnauthenticated, http.StatusUnauthorized},
	{ErrInvalidToken, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrConflict, http.StatusConflict},
	{ErrInternal, http.StatusInternalServerError},
}

// HTTPStatus maps err to a status code. Unknown errors are 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	for _, row := range statusTable {
		if errors.Is(err, row.target) {
			return row.status
		}
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the text that may be shown to a caller. Internal
// failures collapse to a generic message.
func PublicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return ErrInternal.Error()
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	for _, row := range statusTable {
		if errors.Is(err, row.target) {
			return row.target.Error()
		}
	}
	return ErrInternal.Error()
}
