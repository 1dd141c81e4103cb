package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the transport-level class of an error.
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeBadRequest indicates a bad request
	ErrorTypeBadRequest ErrorType = "BAD_REQUEST"
	// ErrorTypeConflict indicates a conflict
	ErrorTypeConflict ErrorType = "CONFLICT"
	// ErrorTypeUnauthorized indicates unauthorized access
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	// ErrorTypeForbidden indicates forbidden access
	ErrorTypeForbidden ErrorType = "FORBIDDEN"
	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// Code is the domain kind of an error. It is stable and safe to expose to clients.
type Code string

const (
	CodeInvalidToken            Code = "InvalidToken"
	CodeTokenExpired            Code = "TokenExpired"
	CodeProfileNotFound         Code = "ProfileNotFound"
	CodeProfileRequired         Code = "ProfileRequired"
	CodeInvalidProfileIDFormat  Code = "InvalidProfileIdFormat"
	CodeProfileLimitExceeded    Code = "ProfileLimitExceeded"
	CodeDuplicateProfileName    Code = "DuplicateProfileName"
	CodeCannotDeleteLastProfile Code = "CannotDeleteLastProfile"
	CodeContentNotFound         Code = "ContentNotFound"
	CodeInvalidDuration         Code = "InvalidDuration"
	CodeValidationFailed        Code = "ValidationFailed"
	CodeInternal                Code = "InternalError"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Code    Code
	Message string
	Err     error
}

// Error returns the error message
func (e *AppError) Error() string {
	prefix := string(e.Type)
	if e.Code != "" {
		prefix = fmt.Sprintf("%s(%s)", e.Type, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches two AppErrors by Type and Code so sentinel values work with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// New creates a new application error
func New(errorType ErrorType, message string) error {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

// NewCoded creates an application error carrying a domain code.
func NewCoded(errorType ErrorType, code Code, message string) error {
	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an application error
func Wrap(errorType ErrorType, message string, err error) error {
	return &AppError{
		Type:    errorType,
		Message: message,
		Err:     err,
	}
}

// NotFound creates a not found error
func NotFound(message string) error {
	return New(ErrorTypeNotFound, message)
}

// BadRequest creates a bad request error
func BadRequest(message string) error {
	return NewCoded(ErrorTypeBadRequest, CodeValidationFailed, message)
}

// Conflict creates a conflict error
func Conflict(message string) error {
	return New(ErrorTypeConflict, message)
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) error {
	return New(ErrorTypeUnauthorized, message)
}

// Forbidden creates a forbidden error
func Forbidden(message string) error {
	return New(ErrorTypeForbidden, message)
}

// Internal creates an internal error
func Internal(message string) error {
	return NewCoded(ErrorTypeInternal, CodeInternal, message)
}

// Domain errors

func InvalidToken() error {
	return NewCoded(ErrorTypeUnauthorized, CodeInvalidToken, "invalid authentication token")
}

func TokenExpired() error {
	return NewCoded(ErrorTypeUnauthorized, CodeTokenExpired, "authentication token has expired")
}

// ProfileNotFound is returned both for missing profiles and for profiles owned by
// another account, so callers cannot probe for profile existence.
func ProfileNotFound() error {
	return NewCoded(ErrorTypeNotFound, CodeProfileNotFound, "profile not found")
}

func ProfileRequired() error {
	return NewCoded(ErrorTypeBadRequest, CodeProfileRequired, "an active profile is required")
}

func InvalidProfileIDFormat() error {
	return NewCoded(ErrorTypeBadRequest, CodeInvalidProfileIDFormat, "profile id has an invalid format")
}

func ProfileLimitExceeded(limit int) error {
	return NewCoded(ErrorTypeConflict, CodeProfileLimitExceeded,
		fmt.Sprintf("account already has the maximum of %d active profiles", limit))
}

func DuplicateProfileName() error {
	return NewCoded(ErrorTypeConflict, CodeDuplicateProfileName, "a profile with this name already exists")
}

func CannotDeleteLastProfile() error {
	return NewCoded(ErrorTypeConflict, CodeCannotDeleteLastProfile, "cannot delete the last active profile")
}

func ContentNotFound() error {
	return NewCoded(ErrorTypeNotFound, CodeContentNotFound, "content not found")
}

func InvalidDuration() error {
	return NewCoded(ErrorTypeBadRequest, CodeInvalidDuration, "total duration must be greater than zero")
}

// CodeOf returns the domain code of err, or "" when err carries none.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsBadRequest checks if an error is a bad request error
func IsBadRequest(err error) bool {
	return isType(err, ErrorTypeBadRequest)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return isType(err, ErrorTypeConflict)
}

// IsUnauthorized checks if an error is an unauthorized error
func IsUnauthorized(err error) bool {
	return isType(err, ErrorTypeUnauthorized)
}

// IsForbidden checks if an error is a forbidden error
func IsForbidden(err error) bool {
	return isType(err, ErrorTypeForbidden)
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	return isType(err, ErrorTypeInternal)
}

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsDuplicateError checks if an error is a duplicate key error
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "duplicate entry")
}
