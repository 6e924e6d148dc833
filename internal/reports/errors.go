package reports

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: the report does not exist or its archive file is gone.
	ErrNotFound = errors.New("report not found")
	// ErrForbidden: the caller neither owns the report nor is an administrator.
	ErrForbidden = errors.New("access to report denied")
	// ErrAggregation wraps source query failures during metric computation.
	ErrAggregation = errors.New("report aggregation failed")
	// ErrPersistence wraps record or archive write failures.
	ErrPersistence = errors.New("report persistence failed")
	// ErrKeyClaimed is returned by a Store when the idempotency key was
	// claimed by a concurrent request.
	ErrKeyClaimed = errors.New("idempotency key already claimed")
	// ErrNoPeriod: the stored record carries no period a render can use.
	ErrNoPeriod = fmt.Errorf("%w: no usable period", ErrNotFound)
)

// ValidationError is a caller-fixable input problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError is returned when an idempotency key is replayed with a
// different request. Existing is the report the key belongs to.
type ConflictError struct {
	Existing *ArtifactSummary
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("idempotency key already used for report %d with different parameters", e.Existing.ID)
}
