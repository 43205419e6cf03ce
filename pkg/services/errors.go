// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrWorkflowNil          = errors.New("workflow cannot be nil")
	ErrTeamIDRequired       = errors.New("team ID is required")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrActionsRequired      = errors.New("workflow must have at least one action")
	ErrUnknownTriggerType   = errors.New("unknown trigger type")
	ErrUnknownActionType    = errors.New("unknown action type")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrInvalidCondition     = errors.New("invalid condition")

	// Business logic conflicts (409 Conflict).
	ErrTeamMismatch = errors.New("workflow belongs to another team")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrTeamIDRequired) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrActionsRequired) ||
		errors.Is(err, ErrUnknownTriggerType) ||
		errors.Is(err, ErrUnknownActionType) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidCondition)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrTeamMismatch)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
