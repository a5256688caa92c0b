package api

import (
	"errors"
	"net/http"

	"github.com/syh52/lexicon-srs/internal/domain"
	"github.com/syh52/lexicon-srs/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidChoice),
		errors.Is(err, domain.ErrInvalidTargets),
		errors.Is(err, domain.ErrEmptyItemID),
		errors.Is(err, domain.ErrEmptyLearnerID),
		errors.Is(err, domain.ErrEmptyCatalogID),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrSessionCompleted),
		errors.Is(err, domain.ErrSessionExpired):
		return http.StatusConflict

	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for the error.
// Domain and store sentinels carry no internal detail and pass through;
// anything else collapses to a generic message.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidChoice):
		return "Invalid choice: must be know, hint or unknown"
	case errors.Is(err, domain.ErrInvalidTargets):
		return "Invalid study targets"
	case errors.Is(err, domain.ErrEmptyLearnerID):
		return "Learner ID is required"
	case errors.Is(err, domain.ErrEmptyCatalogID):
		return "Catalog ID is required"
	case errors.Is(err, domain.ErrSessionCompleted):
		return "Session is already completed"
	case errors.Is(err, domain.ErrSessionExpired):
		return "No active session"
	case errors.Is(err, store.ErrCatalogNotFound):
		return "Catalog not found"
	case errors.Is(err, store.ErrNotFound):
		return "Not found"
	case errors.Is(err, store.ErrUnavailable):
		return "Storage temporarily unavailable"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"
	default:
		return "An unexpected error occurred"
	}
}
