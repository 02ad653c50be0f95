// File: internal/services/pipeline/interface.go
package pipeline

import (
	"context"

	"github.com/iyunix/go-lingochat/internal/services/backend"
)

type LanguageIdentifier interface {
	Identify(ctx context.Context, text string) (string, error)
}

type Translator interface {
	EnsureModel(ctx context.Context, source, target string) error
	Translate(ctx context.Context, text, source, target string) (string, error)
	Supports(code string) bool
}

type SpeechRecognizer interface {
	Listen(ctx context.Context) (string, error)
}

// CityResolver never fails; unavailable locations resolve to domain.UnknownCity.
type CityResolver interface {
	ResolveCity(ctx context.Context) string
}

type MessageStore interface {
	AddMessage(ctx context.Context, body backend.MessageBody) error
}

// Observer receives every state transition and model download toggle.
type Observer interface {
	MessageUpdated(event Event)
	ModelDownloading(active bool)
}

// Logger defines the logging interface used by the pipeline
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}
