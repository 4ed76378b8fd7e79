// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Infrastructure errors
	ErrStorage            = errors.New("storage failure")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "progress", "content", "leaderboard"
	Op      string // Operation that failed, e.g., "CompleteLesson", "GrantBonus"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Progress domain errors
var (
	ErrUserProgressNotFound   = NewDomainError("progress", "Find", ErrNotFound, "user progress not found")
	ErrLessonAlreadyCompleted = NewDomainError("progress", "CompleteLesson", ErrAlreadyExists, "lesson already completed")
	ErrCompletionNotFound     = NewDomainError("progress", "FindCompletion", ErrNotFound, "lesson completion not found")
	ErrInvalidScore           = NewDomainError("progress", "Validate", ErrValueOutOfRange, "score must be between 0 and 100")
	ErrInvalidTimeSpent       = NewDomainError("progress", "Validate", ErrNegativeValue, "time spent cannot be negative")
	ErrNegativeBonus          = NewDomainError("progress", "GrantBonus", ErrNegativeValue, "bonus points cannot be negative")
	ErrInvalidUserID          = NewDomainError("progress", "Validate", ErrInvalidID, "invalid user ID")
)

// Content domain errors
var (
	ErrLessonNotFound = NewDomainError("content", "FindLesson", ErrNotFound, "lesson not found")
	ErrCourseNotFound = NewDomainError("content", "FindCourse", ErrNotFound, "course not found")
)

// Leaderboard domain errors
var (
	ErrLeaderboardNotFound = NewDomainError("leaderboard", "Find", ErrNotFound, "leaderboard not found")
	ErrUserNotRanked       = NewDomainError("leaderboard", "FindRank", ErrNotFound, "user not in leaderboard")
	ErrInvalidRank         = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "invalid rank")
)

// Admin domain errors
var (
	ErrAdminForbidden = NewDomainError("admin", "Authorize", ErrForbidden, "admin privileges required")
	ErrEmptyReason    = NewDomainError("admin", "Validate", ErrEmptyValue, "adjustment reason is required")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a duplicate/conflict error.
// A duplicate lesson completion is the expected, non-exceptional case here;
// callers must be able to tell it apart from a storage failure.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsUnauthorized checks if the error is an authorization error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsStorage checks if the error is an infrastructure/storage failure.
// Storage failures are safe for the caller to retry: the engine mutates
// state only inside a single transaction, so a failed call left nothing behind.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
