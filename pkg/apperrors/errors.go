package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrValidation     = errors.New("validation failed")
	ErrSubmitInFlight = errors.New("a submission for this question is already in flight")
	ErrInvalidRole    = errors.New("invalid role")

	// ErrNoReviewableAnswer means the ledger holds no pending answer the
	// reviewer may act on. Recoverable by refreshing the ledger.
	ErrNoReviewableAnswer = fmt.Errorf("no reviewable answer: %w", ErrNotFound)

	// ErrChecklistBlocked means the checklist verdict forbids the intended
	// action. It is a validation failure: caught before any network call.
	ErrChecklistBlocked = fmt.Errorf("%w: checklist verdict blocks this action", ErrValidation)
)
