package apperrors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures so transports can map them to responses.
type ErrorType string

const (
	// ErrorTypeInvalidInput means the symptom set violated arity or emptiness rules.
	ErrorTypeInvalidInput ErrorType = "INVALID_INPUT"

	// ErrorTypeCatalogUnavailable means the disease catalog could not be read.
	ErrorTypeCatalogUnavailable ErrorType = "CATALOG_UNAVAILABLE"

	// ErrorTypeMalformedCatalogEntry means a single catalog row failed to decode.
	ErrorTypeMalformedCatalogEntry ErrorType = "MALFORMED_CATALOG_ENTRY"

	// ErrorTypeLogWriteFailed means a prediction query could not be persisted.
	ErrorTypeLogWriteFailed ErrorType = "LOG_WRITE_FAILED"

	// ErrorTypeInternal covers everything else.
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a caller may retry the operation with backoff.
func (e *AppError) Retryable() bool {
	return e.Type == ErrorTypeCatalogUnavailable
}

func NewInvalidInputError(message string) *AppError {
	return &AppError{Type: ErrorTypeInvalidInput, Message: message}
}

func NewCatalogUnavailableError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeCatalogUnavailable, Message: message, Err: err}
}

func NewMalformedCatalogEntryError(name string, err error) *AppError {
	return &AppError{Type: ErrorTypeMalformedCatalogEntry, Message: fmt.Sprintf("catalog entry %q", name), Err: err}
}

func NewLogWriteFailedError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeLogWriteFailed, Message: message, Err: err}
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or
// ErrorTypeInternal when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Is reports whether err carries an AppError of type t.
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}
