package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iyunix/go-lingochat/internal/domain"
	"github.com/iyunix/go-lingochat/internal/services/backend"
	"github.com/iyunix/go-lingochat/internal/services/chat"
	"github.com/iyunix/go-lingochat/internal/services/language"
	"github.com/iyunix/go-lingochat/internal/services/pipeline"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// memBackend is an in-memory chat backend.
type memBackend struct {
	mu       sync.Mutex
	nextID   int64
	users    map[string]*domain.User
	chats    map[int64]*domain.Chat
	messages map[int64][]domain.PersistedMessage
	comments map[int64][]domain.Comment
}

func newMemBackend() *memBackend {
	return &memBackend{
		nextID:   100,
		users:    make(map[string]*domain.User),
		chats:    make(map[int64]*domain.Chat),
		messages: make(map[int64][]domain.PersistedMessage),
		comments: make(map[int64][]domain.Comment),
	}
}

func (b *memBackend) id() int64 {
	b.nextID++
	return b.nextID
}

func (b *memBackend) ListUsers(ctx context.Context) ([]domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.User, 0, len(b.users))
	for _, u := range b.users {
		out = append(out, *u)
	}
	return out, nil
}

func (b *memBackend) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[uid]
	if !ok {
		return nil, fmt.Errorf("get user %s: %w", uid, backend.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (b *memBackend) CreateUser(ctx context.Context, body backend.UserBody) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[body.UID] = &domain.User{UID: body.UID, Username: body.Username, Email: body.Email, TargetLanguage: body.TargetLanguage}
	return nil
}

func (b *memBackend) GetLastChat(ctx context.Context, uid string) (*domain.Chat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var last *domain.Chat
	for _, c := range b.chats {
		if c.UserID == uid && (last == nil || c.ID > last.ID) {
			last = c
		}
	}
	if last == nil {
		return nil, backend.ErrNotFound
	}
	cp := *last
	return &cp, nil
}

func (b *memBackend) CreateChat(ctx context.Context, spec domain.ChatSpec) (*domain.Chat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := &domain.Chat{ID: b.id(), Name: spec.Name, IsPublic: spec.IsPublic, UserID: spec.UserID, CreationTime: time.Now().UTC().Format(time.RFC1123)}
	b.chats[c.ID] = c
	cp := *c
	return &cp, nil
}

func (b *memBackend) ToggleChatPublic(ctx context.Context, chatID int64) (*domain.Chat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.chats[chatID]
	if !ok {
		return nil, backend.ErrNotFound
	}
	c.IsPublic = !c.IsPublic
	cp := *c
	return &cp, nil
}

func (b *memBackend) RenameChat(ctx context.Context, chatID int64, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.chats[chatID]
	if !ok {
		return backend.ErrNotFound
	}
	c.Name = name
	return nil
}

func (b *memBackend) ListUserChats(ctx context.Context, uid string) ([]domain.Chat, error) {
	return b.filterChats(func(c *domain.Chat) bool { return c.UserID == uid }), nil
}

func (b *memBackend) ListCommunityChats(ctx context.Context) ([]domain.Chat, error) {
	return b.filterChats(func(c *domain.Chat) bool { return c.IsPublic }), nil
}

func (b *memBackend) filterChats(keep func(c *domain.Chat) bool) []domain.Chat {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.Chat
	for _, c := range b.chats {
		if keep(c) {
			out = append(out, *c)
		}
	}
	return out
}

func (b *memBackend) ListMessages(ctx context.Context, chatID int64) ([]domain.PersistedMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.PersistedMessage(nil), b.messages[chatID]...), nil
}

func (b *memBackend) AddMessage(ctx context.Context, body backend.MessageBody) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages[body.ChatID] = append(b.messages[body.ChatID], domain.PersistedMessage{
		ID: b.id(), Message: body.Message, Translation: body.Translation, City: body.City, ChatID: body.ChatID,
	})
	return nil
}

func (b *memBackend) ListComments(ctx context.Context, chatID int64) ([]domain.Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Comment(nil), b.comments[chatID]...), nil
}

func (b *memBackend) AddComment(ctx context.Context, body backend.CommentBody) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.comments[body.ChatID] = append(b.comments[body.ChatID], domain.Comment{
		ID: b.id(), ChatID: body.ChatID, UserID: body.UserID, Message: body.Message,
	})
	return nil
}

func (b *memBackend) storedMessages(chatID int64) []domain.PersistedMessage {
	msgs, _ := b.ListMessages(context.Background(), chatID)
	return msgs
}

// upperTranslator "translates" by upper-casing.
type upperTranslator struct{}

func (upperTranslator) EnsureModel(ctx context.Context, source, target string) error { return nil }
func (upperTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	return strings.ToUpper(text), nil
}
func (upperTranslator) Supports(code string) bool { return code != "" }

type fixedCity string

func (c fixedCity) ResolveCity(ctx context.Context) string { return string(c) }

// fakeInbox records submitted recordings.
type fakeInbox struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeInbox) Submit(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	return nil
}

func (f *fakeInbox) submitted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

// sessionFactory builds real view-models over api. Sends from Latin text
// are identified as English and translated to the session language.
func sessionFactory(api backend.API, inbox AudioInbox) SessionFactory {
	return func(uid string) (*Session, error) {
		factory := func(observer pipeline.Observer) (chat.Pipeline, error) {
			return pipeline.NewService(pipeline.Dependencies{
				Identifier: language.NewScriptIdentifier(),
				Translator: upperTranslator{},
				Cities:     fixedCity("Bologna"),
				Store:      api,
				Observer:   observer,
			}, nil, nopLogger{})
		}
		vm, err := chat.NewViewModel(uid, chat.Dependencies{Backend: api, Pipeline: factory}, nil, nopLogger{})
		if err != nil {
			return nil, err
		}
		return &Session{ViewModel: vm, Audio: inbox}, nil
	}
}
