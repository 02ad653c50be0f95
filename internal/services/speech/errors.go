package speech

import (
	"errors"
	"fmt"
)

// Recognizer error codes, numbered like the platform recognizers report them.
const (
	ErrorNetworkTimeout = 1
	ErrorNetwork        = 2
	ErrorAudio          = 3
	ErrorServer         = 4
	ErrorClient         = 5
	ErrorSpeechTimeout  = 6
	ErrorNoMatch        = 7
	ErrorBusy           = 8
)

var (
	// ErrRecognitionCancelled resolves a listen call abandoned by the caller.
	ErrRecognitionCancelled = errors.New("speech recognition cancelled")
	// ErrRecognizerBusy is returned when a listen call is already in flight.
	ErrRecognizerBusy = errors.New("speech recognizer busy")
	// ErrRecognizerClosed is returned after Close.
	ErrRecognizerClosed = errors.New("speech recognizer closed")
)

// RecognitionError carries the engine error code.
type RecognitionError struct {
	Code int
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("speech recognition error: %d", e.Code)
}
