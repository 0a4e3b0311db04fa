package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
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

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrInvalidRange
	ErrUnknownUser
	ErrUnauthorized
	ErrStorage
)

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

// InvalidRange signals a time-bounded entity whose end does not follow its start.
func InvalidRange(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidRange,
		Message: message,
	}
}

// UnknownUser signals a referential violation against the users table.
func UnknownUser(role string) *AppError {
	return &AppError{
		Code:    ErrUnknownUser,
		Message: fmt.Sprintf("%s does not reference an existing user", role),
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

// Storage wraps a collaborator-level failure. It is propagated, never swallowed,
// except inside the reminder sweep loop where failures are counted per item.
func Storage(err error) *AppError {
	return &AppError{
		Code:    ErrStorage,
		Message: "storage error",
		Err:     err,
	}
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
