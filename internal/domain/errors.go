package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidChoice is returned when a review choice is not one of
	// Know, Hint, or Unknown.
	ErrInvalidChoice = errors.New("invalid review choice")

	// ErrEmptyItemID is returned when a card or choice record has no item ID.
	ErrEmptyItemID = errors.New("item ID cannot be empty")

	// ErrEmptyLearnerID is returned when a learner ID is missing or nil.
	ErrEmptyLearnerID = errors.New("learner ID cannot be empty")

	// ErrEmptyCatalogID is returned when a catalog ID is missing.
	ErrEmptyCatalogID = errors.New("catalog ID cannot be empty")

	// ErrInvalidTargets is returned when study targets fail validation,
	// for example a negative daily count.
	ErrInvalidTargets = errors.New("invalid study targets")

	// ErrSessionCompleted is returned when a choice is submitted to a
	// session whose queues are already empty.
	ErrSessionCompleted = errors.New("session already completed")

	// ErrSessionExpired is returned when session state is older than its
	// time-to-live and can no longer be resumed.
	ErrSessionExpired = errors.New("session state expired")
)
