// File: internal/services/chat/errors.go
package chat

import (
	"errors"
	"fmt"
)

var (
	ErrClosed            = errors.New("chat session closed")
	ErrNothingRecognized = errors.New("no recognized speech to send")
	ErrNotLoggedIn       = errors.New("no user logged in")
	ErrChatNotFound      = errors.New("chat not found")
)

type ErrorType string

const (
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeRemote     ErrorType = "REMOTE"
	ErrTypeState      ErrorType = "STATE"
)

type ChatError struct {
	Type      ErrorType
	Operation string
	Message   string
	ChatID    int64
	Cause     error
}

func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("chat %s error in %s: %s (caused by: %v)", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("chat %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *ChatError) Unwrap() error {
	return e.Cause
}

func NewValidationError(operation, msg string) *ChatError {
	return &ChatError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

func NewRemoteError(operation string, chatID int64, cause error) *ChatError {
	return &ChatError{Type: ErrTypeRemote, Operation: operation, Message: "backend call failed", ChatID: chatID, Cause: cause}
}
