package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors shared across the module. Domain packages mark their
// own errors against these so callers can match on kind without
// knowing which operation produced them.
var (
	ErrNotFound         = newSentinel(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = newSentinel(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation       = newSentinel(ErrCodeValidation, "validation error")
	ErrInvalidOperation = newSentinel(ErrCodeInvalidOperation, "invalid operation")
	ErrInvalidState     = newSentinel(ErrCodeInvalidState, "invalid state for operation")
	ErrApprovalRequired = newSentinel(ErrCodeApprovalRequired, "approval required")
	ErrCollaborator     = newSentinel(ErrCodeCollaborator, "collaborator call failed")
	ErrSystem           = newSentinel(ErrCodeSystemError, "system error")
)

const (
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodeInvalidState     = "invalid_state"
	ErrCodeApprovalRequired = "approval_required"
	ErrCodeCollaborator     = "collaborator_error"
	ErrCodeSystemError      = "system_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func newSentinel(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsInvalidState checks if an error is an invalid state transition error
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsApprovalRequired checks if an error is an approval gate error
func IsApprovalRequired(err error) bool {
	return errors.Is(err, ErrApprovalRequired)
}

// IsCollaborator checks if an error came from an external collaborator
func IsCollaborator(err error) bool {
	return errors.Is(err, ErrCollaborator)
}

// Hint returns the caller-safe hint attached to an error, if any
func Hint(err error) string {
	hints := errors.GetAllHints(err)
	if len(hints) == 0 {
		return ""
	}
	return hints[0]
}
