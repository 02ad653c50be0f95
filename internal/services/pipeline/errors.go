// File: internal/services/pipeline/errors.go
package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTranscript   = errors.New("empty speech transcript")
	ErrTranscription     = errors.New("speech recognition failed")
	ErrIdentification    = errors.New("language identification failed")
	ErrTranslation       = errors.New("translation failed")
	ErrAlreadyProcessed  = errors.New("message already processed")
	ErrRecognizerMissing = errors.New("no speech recognizer configured")
)

// StepError records which step aborted a message.
type StepError struct {
	Operation string
	MessageID string
	Kind      error
	Cause     error
}

func (e *StepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pipeline %s failed for message %s: %v (caused by: %v)", e.Operation, e.MessageID, e.Kind, e.Cause)
	}
	return fmt.Sprintf("pipeline %s failed for message %s: %v", e.Operation, e.MessageID, e.Kind)
}

func (e *StepError) Is(target error) bool {
	return target == e.Kind
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

func stepError(operation, messageID string, kind, cause error) *StepError {
	return &StepError{Operation: operation, MessageID: messageID, Kind: kind, Cause: cause}
}
