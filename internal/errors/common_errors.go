package errors

import (
	"fmt"
	"net/http"
)

// ErrorType classifies failures that happen outside a request's own input
type ErrorType string

const (
	ErrTypeSource  ErrorType = "SOURCE"
	ErrTypeStorage ErrorType = "STORAGE"
)

// AppError is a failure of a dependency (a remote dataset source, the
// dataset store) with the context needed to report it
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds a key to the error context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Status is the HTTP status reported for the error
func (e *AppError) Status() int {
	if e.Type == ErrTypeSource {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// NewSourceError wraps a failure to download a remote dataset source
func NewSourceError(message string, cause error) *AppError {
	return &AppError{Type: ErrTypeSource, Message: message, Cause: cause}
}

// NewStorageError wraps a failure of the dataset store
func NewStorageError(message string, cause error) *AppError {
	return &AppError{Type: ErrTypeStorage, Message: message, Cause: cause}
}
