package apperrors

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates that a requested tenant-scoped resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates a business-rule violation (e.g. reversing a reversal).
var ErrConflict = errors.New("conflict with current resource state")

// ErrPeriodClosed indicates a posting dated inside a closed accounting period.
var ErrPeriodClosed = errors.New("accounting period is closed")

// ErrAlreadyProcessed indicates a command whose idempotency key was already executed.
var ErrAlreadyProcessed = errors.New("command already processed")

// ErrResourceBusy indicates a lock-acquisition timeout; the command is safe to retry.
var ErrResourceBusy = errors.New("resource busy, retry later")

// ErrForbidden indicates the caller is not permitted to act on the resource.
var ErrForbidden = errors.New("forbidden")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// AppError wraps an underlying error with a status code and a message suitable
// for logging. Callers branch with errors.Is against the sentinel errors above.
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

// NewAppError creates a new AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that matches ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}

// PeriodClosedError carries the closed-through boundary so callers can report
// exactly which date range is frozen. Matches ErrPeriodClosed via errors.Is.
type PeriodClosedError struct {
	ClosedThroughDate time.Time
}

func (e *PeriodClosedError) Error() string {
	return fmt.Sprintf("accounting period is closed through %s", e.ClosedThroughDate.Format("2006-01-02"))
}

func (e *PeriodClosedError) Is(target error) bool {
	return target == ErrPeriodClosed
}

// NewPeriodClosedError creates a PeriodClosedError for the given boundary.
func NewPeriodClosedError(closedThrough time.Time) *PeriodClosedError {
	return &PeriodClosedError{ClosedThroughDate: closedThrough}
}
