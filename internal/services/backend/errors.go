// File: internal/services/backend/errors.go
package backend

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by errors.Is for 404 responses and null bodies.
var ErrNotFound = errors.New("resource not found")

type ErrorType string

const (
	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeServer     ErrorType = "SERVER"
	ErrTypeClient     ErrorType = "CLIENT"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeDecode     ErrorType = "DECODE"
)

type APIError struct {
	Type      ErrorType
	Code      int
	Operation string
	Message   string
	Cause     error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("backend %s error in %s: %s (caused by: %v)", e.Type, e.Operation, e.Message, e.Cause)
	}
	if e.Code != 0 {
		return fmt.Sprintf("backend %s error in %s: status %d: %s", e.Type, e.Operation, e.Code, e.Message)
	}
	return fmt.Sprintf("backend %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

func newNotFound(operation string) *APIError {
	return &APIError{Type: ErrTypeNotFound, Code: 404, Operation: operation, Message: "not found", Cause: ErrNotFound}
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
