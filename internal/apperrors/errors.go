package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidTransition means the order is not in a status that allows the requested action.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrForbidden means the actor lacks the privilege required for the action.
var ErrForbidden = errors.New("forbidden")

// ErrConfiguration means required reference data (chart of accounts) is missing.
var ErrConfiguration = errors.New("configuration error")

// ErrConcurrencyConflict means a lock could not be acquired in time. Callers may retry.
var ErrConcurrencyConflict = errors.New("concurrent modification, retry")

// ErrInvariantViolation means a posting would break ledger or journal consistency.
var ErrInvariantViolation = errors.New("invariant violation")
