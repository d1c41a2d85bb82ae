// internal/common/errors/errors.go

// Package errors provides the typed error taxonomy surfaced by the API layer.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeApplicationNotFound   ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeUserNotFound          ErrorCode = "USER_NOT_FOUND"
	ErrCodeDecisionAlreadyExists ErrorCode = "DECISION_ALREADY_EXISTS"
	ErrCodeDuplicateNationalID   ErrorCode = "DUPLICATE_NATIONAL_ID"
	ErrCodeDuplicateUsername     ErrorCode = "DUPLICATE_USERNAME"
	ErrCodeInvalidDecisionValue  ErrorCode = "INVALID_DECISION_VALUE"
	ErrCodeInvalidDateFilter     ErrorCode = "INVALID_DATE_FILTER"
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidCredentials    ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized          ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden             ErrorCode = "FORBIDDEN"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// Error is a structured application error carrying a stable code.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// CodeOf extracts the error code from err, or ErrCodeInternal for plain errors.
func CodeOf(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// NewApplicationNotFound creates a not-found error for an application id.
func NewApplicationNotFound(id string) *Error {
	return &Error{
		Code:    ErrCodeApplicationNotFound,
		Message: "application not found",
		Details: fmt.Sprintf("applicationId: %s", id),
	}
}

// NewUserNotFound creates a not-found error for a user.
func NewUserNotFound(details string) *Error {
	return &Error{
		Code:    ErrCodeUserNotFound,
		Message: "user not found",
		Details: details,
	}
}

// NewDecisionAlreadyExists creates the conflict error for a second decision attempt.
func NewDecisionAlreadyExists(applicationID string) *Error {
	return &Error{
		Code:    ErrCodeDecisionAlreadyExists,
		Message: "decision already exists for application",
		Details: fmt.Sprintf("applicationId: %s", applicationID),
	}
}

// NewDuplicateNationalID creates the conflict error for a reused national id.
func NewDuplicateNationalID(nationalID string) *Error {
	return &Error{
		Code:    ErrCodeDuplicateNationalID,
		Message: "an application with this national id already exists",
		Details: fmt.Sprintf("nationalId: %s", nationalID),
	}
}

// NewDuplicateUsername creates the conflict error for a taken username.
func NewDuplicateUsername(username string) *Error {
	return &Error{
		Code:    ErrCodeDuplicateUsername,
		Message: "username already exists",
		Details: fmt.Sprintf("username: %s", username),
	}
}

// NewInvalidDecisionValue creates a validation error for a bad decision value.
func NewInvalidDecisionValue(value string) *Error {
	return &Error{
		Code:    ErrCodeInvalidDecisionValue,
		Message: "decision must be either 'APPROVED' or 'REJECTED'",
		Details: fmt.Sprintf("decision: %s", value),
	}
}

// NewInvalidDateFilter creates a validation error for an unparseable date bound.
func NewInvalidDateFilter(param, value string) *Error {
	return &Error{
		Code:    ErrCodeInvalidDateFilter,
		Message: "date must be an ISO date or ISO local date-time",
		Details: fmt.Sprintf("%s: %s", param, value),
	}
}

// NewValidationFailed creates a generic request validation error.
func NewValidationFailed(details string) *Error {
	return &Error{
		Code:    ErrCodeValidationFailed,
		Message: "request validation failed",
		Details: details,
	}
}

// NewInvalidCredentials creates the authentication failure error.
func NewInvalidCredentials() *Error {
	return &Error{
		Code:    ErrCodeInvalidCredentials,
		Message: "invalid username or password",
	}
}

// NewUnauthorized creates the missing/invalid token error.
func NewUnauthorized(details string) *Error {
	return &Error{
		Code:    ErrCodeUnauthorized,
		Message: "authentication required",
		Details: details,
	}
}

// NewForbidden creates the insufficient-role error.
func NewForbidden(details string) *Error {
	return &Error{
		Code:    ErrCodeForbidden,
		Message: "insufficient permissions",
		Details: details,
	}
}

// NewInternal wraps an unexpected failure.
func NewInternal(op string, err error) *Error {
	return &Error{
		Code:    ErrCodeInternal,
		Message: "internal error",
		Details: fmt.Sprintf("%s: %v", op, err),
		cause:   err,
	}
}
