// Package speech turns callback driven speech engines into a blocking,
// cancellable Listen call.
package speech

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/iyunix/go-lingochat/internal/future"
)

// Listener receives engine callbacks. Engines may call it more than once
// and from any goroutine.
type Listener interface {
	OnResults(matches []string)
	OnError(code int)
}

// Engine is a platform speech engine.
type Engine interface {
	Start(listener Listener) error
	// Stop asks the engine to finish and deliver what it heard.
	Stop()
	// Cancel abandons the current session without results.
	Cancel()
	Destroy()
}

// Logger defines the logging interface used by the recognizer
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Recognizer serialises listen sessions on one engine.
type Recognizer struct {
	engine Engine
	logger Logger

	mu      sync.Mutex
	pending *future.Future[string]
	closed  bool
}

func NewRecognizer(engine Engine, logger Logger) *Recognizer {
	return &Recognizer{engine: engine, logger: logger}
}

// Listen starts the engine and waits for exactly one outcome: a transcript
// (possibly empty), a RecognitionError, or ErrRecognitionCancelled.
func (r *Recognizer) Listen(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrRecognizerClosed
	}
	if r.pending != nil {
		r.mu.Unlock()
		return "", ErrRecognizerBusy
	}
	f := future.New[string]()
	r.pending = f
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.pending == f {
			r.pending = nil
		}
		r.mu.Unlock()
	}()

	if err := r.engine.Start(&listener{future: f, logger: r.logger}); err != nil {
		f.Reject(err)
	}

	text, err := f.Await(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		r.engine.Cancel()
		return "", ErrRecognitionCancelled
	}
	return text, err
}

// Listening reports whether a listen call is waiting for the engine.
func (r *Recognizer) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != nil
}

// Stop asks the engine to finalise the current session.
func (r *Recognizer) Stop() {
	r.engine.Stop()
}

// Cancel resolves the pending listen call with ErrRecognitionCancelled.
func (r *Recognizer) Cancel() {
	r.mu.Lock()
	f := r.pending
	r.mu.Unlock()

	if f != nil && f.Reject(ErrRecognitionCancelled) {
		r.logger.Info("speech recognition cancelled")
	}
	r.engine.Stop()
	r.engine.Cancel()
}

// Close cancels any pending session and releases the engine.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.Cancel()
	r.engine.Destroy()
	return nil
}

type listener struct {
	future *future.Future[string]
	logger Logger
}

func (l *listener) OnResults(matches []string) {
	if !l.future.Resolve(strings.TrimSpace(strings.Join(matches, " "))) {
		l.logger.Warn("onResults called after recognition already resolved")
	}
}

func (l *listener) OnError(code int) {
	if !l.future.Reject(&RecognitionError{Code: code}) {
		l.logger.Warn("onError called after recognition already resolved", "code", code)
		return
	}
	l.logger.Error("speech recognition error", "code", code)
}
