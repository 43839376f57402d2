package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeNotFound indicates a record was not found
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeValidation indicates invalid input data; never retried automatically
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeResource indicates insufficient resources or strength for the action
	ErrorTypeResource ErrorType = "resource"
	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeUnauthorized indicates authentication failure
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	// ErrorTypeForbidden indicates an ownership or role violation
	ErrorTypeForbidden ErrorType = "forbidden"
	// ErrorTypeRateLimited indicates the caller is throttled; retry after RetryAfter
	ErrorTypeRateLimited ErrorType = "rate_limited"
	// ErrorTypeStore indicates a transactional or infrastructure failure; safe to retry with backoff
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeMethodNotAllowed indicates an unsupported HTTP method
	ErrorTypeMethodNotAllowed ErrorType = "method_not_allowed"
)

// GenericUserMessage is shown for failures whose details must not leak to players.
const GenericUserMessage = "An unexpected error occurred. Please try again later."

// AppError is the base error type for application errors.
// Message is the internal diagnostic, UserMessage the text shown to the player.
type AppError struct {
	Type        ErrorType
	Message     string
	UserMessage string
	RetryAfter  time.Duration
	Err         error
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

// NotFoundf creates a not found error with formatting
func NotFoundf(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// Validation creates a validation error
func Validation(message string) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// Validationf creates a validation error with formatting
func Validationf(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapValidation wraps an error as a validation error
func WrapValidation(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Err:     err,
	}
}

// Resourcef creates an insufficient resources error with formatting
func Resourcef(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeResource,
		Message: fmt.Sprintf(format, args...),
	}
}

// Conflictf creates a conflict error with formatting
func Conflictf(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: fmt.Sprintf(format, args...),
	}
}

// Forbiddenf creates a permission error with formatting
func Forbiddenf(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeForbidden,
		Message: fmt.Sprintf(format, args...),
	}
}

// Forbidden creates a permission error
func Forbidden(message string) error {
	return &AppError{
		Type:    ErrorTypeForbidden,
		Message: message,
	}
}

// RateLimited creates a throttling error carrying the delay before the next allowed call
func RateLimited(message string, retryAfter time.Duration) error {
	return &AppError{
		Type:       ErrorTypeRateLimited,
		Message:    message,
		RetryAfter: retryAfter,
	}
}

// WrapStore wraps a database or infrastructure error
func WrapStore(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeStore,
		Message: message,
		Err:     err,
	}
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) error {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// MethodNotAllowed creates a method not allowed error
func MethodNotAllowed(method string) error {
	return &AppError{
		Type:    ErrorTypeMethodNotAllowed,
		Message: fmt.Sprintf("method %s not allowed", method),
	}
}

// WithUserMessage returns a copy of err carrying a player-facing message.
// Errors that are not AppErrors are returned unchanged.
func WithUserMessage(err error, userMessage string) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return err
	}
	cloned := *appErr
	cloned.UserMessage = userMessage
	return &cloned
}

// GetType returns the error type of an error
func GetType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Is reports whether err is an AppError of the given type.
func Is(err error, errorType ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errorType
}

// RetryAfter returns the throttling delay carried by err, if any.
func RetryAfter(err error) time.Duration {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.RetryAfter
	}
	return 0
}

// UserMessage returns the text that may be shown to a player for err.
// Store and internal failures never expose their diagnostics.
func UserMessage(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return GenericUserMessage
	}

	switch appErr.Type {
	case ErrorTypeStore, ErrorTypeInternal:
		return GenericUserMessage
	}

	if appErr.UserMessage != "" {
		return appErr.UserMessage
	}
	return appErr.Message
}
