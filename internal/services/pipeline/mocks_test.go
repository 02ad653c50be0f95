package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/iyunix/go-lingochat/internal/services/backend"
	"github.com/iyunix/go-lingochat/internal/services/language"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) AddMessage(ctx context.Context, body backend.MessageBody) error {
	args := m.Called(ctx, body)
	return args.Error(0)
}

type identifierFunc func(ctx context.Context, text string) (string, error)

func (f identifierFunc) Identify(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

func identifyAs(code string) identifierFunc {
	return func(context.Context, string) (string, error) { return code, nil }
}

type fakeTranslator struct {
	supported language.Set
	ensure    func(ctx context.Context, source, target string) error
	translate func(ctx context.Context, text, source, target string) (string, error)

	mu    sync.Mutex
	pairs [][2]string
}

func newFakeTranslator(codes ...string) *fakeTranslator {
	return &fakeTranslator{
		supported: language.NewSet(codes...),
		translate: func(_ context.Context, text, source, target string) (string, error) {
			return "[" + source + "->" + target + "] " + strings.ToUpper(text), nil
		},
	}
}

func (f *fakeTranslator) EnsureModel(ctx context.Context, source, target string) error {
	if f.ensure != nil {
		return f.ensure(ctx, source, target)
	}
	return nil
}

func (f *fakeTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	f.mu.Lock()
	f.pairs = append(f.pairs, [2]string{source, target})
	f.mu.Unlock()
	return f.translate(ctx, text, source, target)
}

func (f *fakeTranslator) Supports(code string) bool {
	return f.supported.Supports(code)
}

func (f *fakeTranslator) calls() [][2]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]string(nil), f.pairs...)
}

type fixedCity string

func (c fixedCity) ResolveCity(context.Context) string { return string(c) }

type recognizerFunc func(ctx context.Context) (string, error)

func (f recognizerFunc) Listen(ctx context.Context) (string, error) { return f(ctx) }

type recordingObserver struct {
	mu        sync.Mutex
	events    []Event
	downloads []bool
}

func (o *recordingObserver) MessageUpdated(event Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) ModelDownloading(active bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.downloads = append(o.downloads, active)
}

func (o *recordingObserver) states(messageID string) []State {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []State
	for _, e := range o.events {
		if e.MessageID == messageID {
			out = append(out, e.State)
		}
	}
	return out
}

func (o *recordingObserver) eventsFor(messageID string) []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []Event
	for _, e := range o.events {
		if e.MessageID == messageID {
			out = append(out, e)
		}
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
