package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/iyunix/go-lingochat/internal/domain"
	"github.com/iyunix/go-lingochat/internal/services/backend"
	"github.com/iyunix/go-lingochat/internal/services/language"
	"github.com/iyunix/go-lingochat/internal/services/pipeline"
)

// MockBackend is a testify mock of backend.API.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ListUsers(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockBackend) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockBackend) CreateUser(ctx context.Context, body backend.UserBody) error {
	return m.Called(ctx, body).Error(0)
}

func (m *MockBackend) GetLastChat(ctx context.Context, uid string) (*domain.Chat, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *MockBackend) CreateChat(ctx context.Context, spec domain.ChatSpec) (*domain.Chat, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *MockBackend) ToggleChatPublic(ctx context.Context, chatID int64) (*domain.Chat, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *MockBackend) RenameChat(ctx context.Context, chatID int64, name string) error {
	return m.Called(ctx, chatID, name).Error(0)
}

func (m *MockBackend) ListUserChats(ctx context.Context, uid string) ([]domain.Chat, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Chat), args.Error(1)
}

func (m *MockBackend) ListCommunityChats(ctx context.Context) ([]domain.Chat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Chat), args.Error(1)
}

func (m *MockBackend) ListMessages(ctx context.Context, chatID int64) ([]domain.PersistedMessage, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PersistedMessage), args.Error(1)
}

func (m *MockBackend) AddMessage(ctx context.Context, body backend.MessageBody) error {
	return m.Called(ctx, body).Error(0)
}

func (m *MockBackend) ListComments(ctx context.Context, chatID int64) ([]domain.Comment, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Comment), args.Error(1)
}

func (m *MockBackend) AddComment(ctx context.Context, body backend.CommentBody) error {
	return m.Called(ctx, body).Error(0)
}

type MockUserCache struct {
	mock.Mock
}

func (m *MockUserCache) Upsert(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserCache) FindByUID(ctx context.Context, uid string) (*domain.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type scriptIdentifier struct{}

// Identify treats text ending in "?" as undetermined and everything else as Italian.
func (scriptIdentifier) Identify(_ context.Context, text string) (string, error) {
	if strings.HasSuffix(text, "?") {
		return language.Undetermined, nil
	}
	return "it", nil
}

type upperTranslator struct{}

func (upperTranslator) EnsureModel(context.Context, string, string) error { return nil }
func (upperTranslator) Supports(code string) bool                       { return code == "en" || code == "it" }
func (upperTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	return strings.ToUpper(text), nil
}

type fixedCity string

func (c fixedCity) ResolveCity(context.Context) string { return string(c) }

type fakeRecognizer struct {
	mu       sync.Mutex
	results  []string
	stopped  int
	closed   int
	canceled int
}

func (r *fakeRecognizer) Listen(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.results) == 0 {
		return "", nil
	}
	text := r.results[0]
	r.results = r.results[1:]
	return text, nil
}

func (r *fakeRecognizer) Stop() {
	r.mu.Lock()
	r.stopped++
	r.mu.Unlock()
}

func (r *fakeRecognizer) Cancel() {
	r.mu.Lock()
	r.canceled++
	r.mu.Unlock()
}

func (r *fakeRecognizer) Close() error {
	r.mu.Lock()
	r.closed++
	r.mu.Unlock()
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// pipelineFactory builds a real pipeline over fake capabilities.
func pipelineFactory(store pipeline.MessageStore, recognizer pipeline.SpeechRecognizer) PipelineFactory {
	return func(observer pipeline.Observer) (Pipeline, error) {
		return pipeline.NewService(pipeline.Dependencies{
			Identifier: scriptIdentifier{},
			Translator: upperTranslator{},
			Recognizer: recognizer,
			Cities:     fixedCity("Torino"),
			Store:      store,
			Observer:   observer,
		}, nil, nopLogger{})
	}
}
