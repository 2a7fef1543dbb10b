// Package apperr defines the error taxonomy shared by the search, booking and
// HTTP layers. Lower layers wrap one of the sentinels with fmt.Errorf("%w: ...")
// and handlers translate the result into a status code with Status.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation marks malformed or missing request fields.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidPage is returned when the requested page lies beyond the result set.
	ErrInvalidPage = errors.New("invalid page")
	// ErrNotFound marks an absent hotel, booking or transaction.
	ErrNotFound = errors.New("not found")
	// ErrUpstream marks a failed supplier API call.
	ErrUpstream = errors.New("supplier request failed")
	// ErrConfigUnavailable is returned when the pricing config cannot be loaded.
	ErrConfigUnavailable = errors.New("pricing config unavailable")
	// ErrPersistence marks a storage write failure.
	ErrPersistence = errors.New("persistence failed")
	// ErrUnauthorized marks missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden marks an authenticated caller acting outside its rights.
	ErrForbidden = errors.New("forbidden")
)

// Status maps an error to the HTTP status code it should surface as.
// Unknown errors are internal server errors.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidPage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
