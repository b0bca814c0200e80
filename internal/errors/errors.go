package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message.
// Details carries the ordered, human readable reasons returned to clients.
type DomainError struct {
	Code    string
	Message string
	Details []string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code so wrapped copies still match their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Details: domainErr.Details,
		Err:     err,
	}
}

// WithDetails returns a copy of the domain error carrying the given details.
func WithDetails(domainErr *DomainError, details ...string) *DomainError {
	copied := make([]string, len(details))
	copy(copied, details)
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Details: copied,
		Err:     domainErr.Err,
	}
}

// Predefined domain errors
var (
	// Account errors
	ErrUserNotFound        = NewDomainError("USER_NOT_FOUND", "User does not exist.")
	ErrDuplicateEmail      = NewDomainError("DUPLICATE_EMAIL", "User with this email already exists.")
	ErrInvalidCredentials  = NewDomainError("INVALID_CREDENTIALS", "Invalid credentials.")
	ErrAccountDeactivated  = NewDomainError("ACCOUNT_DEACTIVATED", "This account has been deactivated.")
	ErrAccountLocked       = NewDomainError("ACCOUNT_LOCKED", "Account locked due to multiple failed login attempts. Please try again in 15 minutes.")
	ErrRoleAssignment      = NewDomainError("ROLE_ASSIGNMENT_FAILED", "Failed to assign role to user.")
	ErrSelfDeactivation    = NewDomainError("SELF_DEACTIVATION", "users cannot deactivate themselves")
	ErrOrganizationMissing = NewDomainError("ORGANIZATION_NOT_FOUND", "organization not found")
	ErrOrganizationExists  = NewDomainError("ORGANIZATION_EXISTS", "organization already exists")

	// Authentication errors
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "unauthorized")
	ErrForbidden           = NewDomainError("FORBIDDEN", "access to this resource is forbidden")
	ErrInvalidToken        = NewDomainError("INVALID_TOKEN", "Invalid token.")
	ErrTokenExpired        = NewDomainError("TOKEN_EXPIRED", "token has expired")
	ErrInvalidRefreshToken = NewDomainError("INVALID_REFRESH_TOKEN", "Invalid refresh token.")

	// Validation errors
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "invalid input")
	ErrValidationFailed  = NewDomainError("VALIDATION_FAILED", "validation failed")
	ErrPasswordMismatch  = NewDomainError("PASSWORD_MISMATCH", "new password and confirmation do not match")
	ErrIncorrectPassword = NewDomainError("INCORRECT_PASSWORD", "current password is incorrect")

	// System errors
	ErrInternal           = NewDomainError("INTERNAL_ERROR", "internal server error")
	ErrServiceUnavailable = NewDomainError("SERVICE_UNAVAILABLE", "service unavailable")
)

// LockedError builds the lockout error for a concrete lockout window.
func LockedError(minutes int) *DomainError {
	return NewDomainError(ErrAccountLocked.Code,
		fmt.Sprintf("Account locked due to multiple failed login attempts. Please try again in %d minutes.", minutes))
}

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	// Check if it's a domain error
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError
}

// domainErrorToHTTPStatus maps specific domain errors to HTTP status codes
func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 400 Bad Request
	case "INVALID_INPUT", "VALIDATION_FAILED", "PASSWORD_MISMATCH", "INVALID_TOKEN", "INVALID_REFRESH_TOKEN":
		return http.StatusBadRequest

	// 401 Unauthorized
	case "UNAUTHORIZED", "INVALID_CREDENTIALS", "TOKEN_EXPIRED", "INCORRECT_PASSWORD":
		return http.StatusUnauthorized

	// 403 Forbidden
	case "FORBIDDEN", "ACCOUNT_DEACTIVATED", "SELF_DEACTIVATION":
		return http.StatusForbidden

	// 404 Not Found
	case "USER_NOT_FOUND", "ORGANIZATION_NOT_FOUND":
		return http.StatusNotFound

	// 409 Conflict
	case "DUPLICATE_EMAIL", "ORGANIZATION_EXISTS":
		return http.StatusConflict

	// 423 Locked
	case "ACCOUNT_LOCKED":
		return http.StatusLocked

	// 503 Service Unavailable
	case "SERVICE_UNAVAILABLE":
		return http.StatusServiceUnavailable

	// 500 Internal Server Error (default, includes ROLE_ASSIGNMENT_FAILED)
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}

// GetErrorDetails returns the ordered client-facing messages for an error.
// Internal errors never leak their underlying cause.
func GetErrorDetails(err error) []string {
	if err == nil {
		return nil
	}

	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return []string{ErrInternal.Message}
	}
	if len(domainErr.Details) > 0 {
		details := make([]string, len(domainErr.Details))
		copy(details, domainErr.Details)
		return details
	}
	return []string{domainErr.Message}
}
