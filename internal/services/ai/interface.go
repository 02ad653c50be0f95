// File: internal/services/ai/interface.go
package ai

import "context"

// LanguageIdentifier detects the language of a text.
type LanguageIdentifier interface {
	Identify(ctx context.Context, text string) (string, error)
}

// Translator converts text between two supported languages.
type Translator interface {
	EnsureModel(ctx context.Context, source, target string) error
	Translate(ctx context.Context, text, source, target string) (string, error)
	Supports(code string) bool
}

// Transcriber turns a recorded audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Provider combines every capability backed by one model endpoint.
type Provider interface {
	LanguageIdentifier
	Translator
	Transcriber
}

// Logger defines the logging interface used by AI adapters
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}
