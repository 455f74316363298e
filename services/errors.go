package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeForbidden  ErrorType = "forbidden"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeQuota      ErrorType = "quota"
	ErrorTypeInternal   ErrorType = "internal"
)

// DomainError represents a structured error with additional context.
// Validation errors are raised before any side effect; conflict errors carry
// the current entity state so a caller that lost a race can display it;
// internal errors mean the enclosing operation did not complete (the
// originating transaction was rolled back).
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithDetail adds a detail to a copy of the error, leaving the sentinel intact
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	clone := &DomainError{
		Type:    e.Type,
		Message: e.Message,
		Err:     e.Err,
		Details: make(map[string]interface{}, len(e.Details)+1),
	}
	for k, v := range e.Details {
		clone.Details[k] = v
	}
	clone.Details[key] = value
	return clone
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Domain error variables

var (
	// Not Found Errors
	ErrTenantNotFound      = NewDomainError(ErrorTypeNotFound, "tenant not found", nil)
	ErrAssistantNotFound   = NewDomainError(ErrorTypeNotFound, "assistant not found", nil)
	ErrWorkItemNotFound    = NewDomainError(ErrorTypeNotFound, "work item not found", nil)
	ErrApprovalNotFound    = NewDomainError(ErrorTypeNotFound, "approval not found", nil)
	ErrUserNotFound        = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrTransactionNotFound = NewDomainError(ErrorTypeNotFound, "cost transaction not found", nil)

	// Validation Errors (rejected before any side effect)
	ErrInvalidInput     = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrInvalidAmount    = NewDomainError(ErrorTypeValidation, "cost amount must be positive", nil)
	ErrInvalidRiskLevel = NewDomainError(ErrorTypeValidation, "risk level out of range", nil)
	ErrInvalidSlug      = NewDomainError(ErrorTypeValidation, "invalid slug format", nil)
	ErrInvalidTimezone  = NewDomainError(ErrorTypeValidation, "invalid timezone", nil)

	// Permission Errors
	ErrForbidden      = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)
	ErrTenantMismatch = NewDomainError(ErrorTypeForbidden, "entity belongs to another tenant", nil)

	// Conflict Errors (no retry without fresh state)
	ErrAlreadyResolved   = NewDomainError(ErrorTypeConflict, "approval already resolved", nil)
	ErrApprovalExpired   = NewDomainError(ErrorTypeConflict, "approval expired", nil)
	ErrDuplicateApproval = NewDomainError(ErrorTypeConflict, "work item already has a pending approval", nil)
	ErrDuplicateSlug     = NewDomainError(ErrorTypeConflict, "slug already exists", nil)

	// Quota Errors
	ErrAssistantQuotaExceeded = NewDomainError(ErrorTypeQuota, "tenant assistant quota exceeded", nil)
	ErrUserQuotaExceeded      = NewDomainError(ErrorTypeQuota, "tenant user quota exceeded", nil)

	// Internal Errors; the enclosing operation must be considered not done
	ErrInternal      = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError = NewDomainError(ErrorTypeInternal, "database error", nil)
	ErrAuditWrite    = NewDomainError(ErrorTypeInternal, "audit write failed", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return GetErrorType(err) == ErrorTypeConflict
}

// IsQuotaError checks if an error is a quota error
func IsQuotaError(err error) bool {
	return GetErrorType(err) == ErrorTypeQuota
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
