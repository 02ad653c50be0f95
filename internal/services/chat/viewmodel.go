// File: internal/services/chat/viewmodel.go
package chat

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"

	"github.com/iyunix/go-lingochat/internal/domain"
	"github.com/iyunix/go-lingochat/internal/services/backend"
	"github.com/iyunix/go-lingochat/internal/services/pipeline"
)

var validate = validator.New()

// Dependencies wires a ViewModel. Users and Recognizer are optional.
type Dependencies struct {
	Backend    backend.API
	Users      UserCache
	Recognizer Recognizer
	Pipeline   PipelineFactory
}

// ViewModel holds the chat state of one logged in user. Commands return
// immediately; the returned channel closes when their async work is done.
// State is only mutated under mu.
type ViewModel struct {
	uid    string
	deps   Dependencies
	config *Config
	logger Logger

	pipeline Pipeline
	hub      *Hub

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu                sync.RWMutex
	closed            bool
	targetLanguage    string
	messages          []domain.Message
	readOnlyMessages  []domain.Message
	history           []domain.Chat
	community         []domain.Chat
	comments          []domain.Comment
	currentChat       *domain.Chat
	readOnlyChat      *domain.Chat
	modelDownloading  bool
	pendingRecognized string
}

var _ pipeline.Observer = (*ViewModel)(nil)

func NewViewModel(uid string, deps Dependencies, config *Config, logger Logger) (*ViewModel, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, NewValidationError("config", err.Error())
	}
	if deps.Backend == nil || deps.Pipeline == nil {
		return nil, NewValidationError("config", "backend and pipeline are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	vm := &ViewModel{
		uid:            uid,
		deps:           deps,
		config:         config,
		logger:         logger,
		hub:            NewHub(config.UpdateBuffer),
		ctx:            ctx,
		cancel:         cancel,
		targetLanguage: domain.DefaultTargetLanguage,
	}

	p, err := deps.Pipeline(vm)
	if err != nil {
		cancel()
		return nil, &ChatError{Type: ErrTypeValidation, Operation: "config", Message: "failed to build pipeline", Cause: err}
	}
	vm.pipeline = p
	return vm, nil
}

// ===== OBSERVABLE STATE =====

func (vm *ViewModel) UserID() string { return vm.uid }

func (vm *ViewModel) Messages() []domain.Message {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return append([]domain.Message(nil), vm.messages...)
}

func (vm *ViewModel) ReadOnlyMessages() []domain.Message {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return append([]domain.Message(nil), vm.readOnlyMessages...)
}

func (vm *ViewModel) History() []domain.Chat {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return append([]domain.Chat(nil), vm.history...)
}

func (vm *ViewModel) Community() []domain.Chat {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return append([]domain.Chat(nil), vm.community...)
}

func (vm *ViewModel) Comments() []domain.Comment {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return append([]domain.Comment(nil), vm.comments...)
}

func (vm *ViewModel) CurrentChat() *domain.Chat {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return copyChat(vm.currentChat)
}

func (vm *ViewModel) ReadOnlyChat() *domain.Chat {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return copyChat(vm.readOnlyChat)
}

func (vm *ViewModel) ModelDownloading() bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.modelDownloading
}

// PendingRecognized is the transcript awaiting user confirmation, if any.
func (vm *ViewModel) PendingRecognized() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.pendingRecognized
}

func (vm *ViewModel) TargetLanguage() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.targetLanguage
}

// SetTargetLanguage overrides the language used for subsequent sends.
func (vm *ViewModel) SetTargetLanguage(code string) {
	code = strings.TrimSpace(code)
	if code == "" {
		code = domain.DefaultTargetLanguage
	}
	vm.mu.Lock()
	vm.targetLanguage = code
	vm.mu.Unlock()
}

// FindChat looks a chat up in the current, history and community state.
func (vm *ViewModel) FindChat(chatID int64) (*domain.Chat, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	for _, c := range []*domain.Chat{vm.currentChat, vm.readOnlyChat} {
		if c != nil && c.ID == chatID {
			return copyChat(c), true
		}
	}
	for _, list := range [][]domain.Chat{vm.history, vm.community} {
		for i := range list {
			if list[i].ID == chatID {
				return copyChat(&list[i]), true
			}
		}
	}
	return nil, false
}

// Subscribe streams state updates until the returned cancel is called.
func (vm *ViewModel) Subscribe() (<-chan Update, func()) {
	return vm.hub.Subscribe()
}

// ===== PIPELINE OBSERVER =====

func (vm *ViewModel) MessageUpdated(event pipeline.Event) {
	vm.mu.Lock()
	found := false
	for i := range vm.messages {
		if vm.messages[i].ID == event.MessageID {
			vm.messages[i] = event.Message
			found = true
			break
		}
	}
	vm.mu.Unlock()

	if !found {
		// The list was replaced while the message was in flight.
		return
	}

	update := Update{
		Type:      UpdateMessage,
		MessageID: event.MessageID,
		Message:   &event.Message,
		State:     event.State,
		Notice:    event.Notice,
	}
	if event.Err != nil {
		update.Error = event.Err.Error()
	}
	vm.hub.Publish(update)
}

func (vm *ViewModel) ModelDownloading(active bool) {
	vm.mu.Lock()
	vm.modelDownloading = active
	vm.mu.Unlock()
	vm.hub.Publish(Update{Type: UpdateModelDownloading, Active: active})
}

// ===== MESSAGES =====

// SendMessage appends the message optimistically and runs the pipeline on it.
// Audio messages may have empty content; the transcript replaces it.
func (vm *ViewModel) SendMessage(content string, kind domain.MessageKind) (domain.Message, <-chan struct{}, error) {
	if kind == "" {
		kind = domain.MessageKindText
	}
	if !kind.Valid() {
		return domain.Message{}, nil, NewValidationError("send_message", "unknown message kind")
	}
	if kind != domain.MessageKindAudio && strings.TrimSpace(content) == "" {
		return domain.Message{}, nil, NewValidationError("send_message", "message is empty")
	}

	msg := domain.NewMessage(strings.TrimSpace(content), kind)

	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return domain.Message{}, nil, ErrClosed
	}
	vm.messages = append(vm.messages, msg)
	job := pipeline.Job{Message: msg, TargetLanguage: vm.targetLanguage}
	if vm.currentChat != nil {
		job.ChatID = vm.currentChat.ID
	}
	vm.mu.Unlock()

	vm.hub.Publish(Update{Type: UpdateMessage, MessageID: msg.ID, Message: &msg, State: pipeline.StateRaw})

	done := vm.launch("send_message", func(ctx context.Context) {
		res := vm.pipeline.Process(ctx, job)
		if res.Err != nil {
			vm.logger.Warn("message not translated", "message_id", msg.ID, "error", res.Err)
		}
		if res.Notice != pipeline.NoticeNone {
			update := Update{Type: UpdateNotice, MessageID: msg.ID, Notice: res.Notice, State: res.State}
			if res.Err != nil {
				update.Error = res.Err.Error()
			}
			vm.hub.Publish(update)
		}
	})
	return msg, done, nil
}

// SendRecognizedMessage sends the confirmed transcript as a text message.
func (vm *ViewModel) SendRecognizedMessage() (domain.Message, <-chan struct{}, error) {
	vm.mu.Lock()
	text := vm.pendingRecognized
	vm.pendingRecognized = ""
	vm.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return domain.Message{}, nil, ErrNothingRecognized
	}
	return vm.SendMessage(text, domain.MessageKindText)
}

// DismissRecognized drops the pending transcript.
func (vm *ViewModel) DismissRecognized() {
	vm.mu.Lock()
	vm.pendingRecognized = ""
	vm.mu.Unlock()
	vm.hub.Publish(Update{Type: UpdateRecognized})
}

// FetchMessages replaces the current chat's messages.
func (vm *ViewModel) FetchMessages(chatID int64) <-chan struct{} {
	return vm.launch("fetch_messages", func(ctx context.Context) {
		vm.fetchMessages(ctx, chatID)
	})
}

func (vm *ViewModel) fetchMessages(ctx context.Context, chatID int64) {
	rctx, cancel := vm.remote(ctx)
	defer cancel()

	list, err := vm.deps.Backend.ListMessages(rctx, chatID)
	if err != nil {
		vm.logger.Error("error fetching messages", "chat_id", chatID, "error", err)
		return
	}

	messages := domain.MessagesFromPersisted(list)
	vm.mu.Lock()
	vm.messages = messages
	vm.mu.Unlock()
	vm.hub.Publish(Update{Type: UpdateMessages, Messages: messages})
}

// FetchReadOnlyMessages replaces the read-only chat's messages; the current
// chat's messages are never touched.
func (vm *ViewModel) FetchReadOnlyMessages(chatID int64) <-chan struct{} {
	return vm.launch("fetch_readonly_messages", func(ctx context.Context) {
		vm.fetchReadOnlyMessages(ctx, chatID)
	})
}

func (vm *ViewModel) fetchReadOnlyMessages(ctx context.Context, chatID int64) {
	rctx, cancel := vm.remote(ctx)
	defer cancel()

	list, err := vm.deps.Backend.ListMessages(rctx, chatID)
	if err != nil {
		vm.logger.Error("error fetching read-only messages", "chat_id", chatID, "error", err)
		return
	}

	messages := domain.MessagesFromPersisted(list)
	vm.mu.Lock()
	vm.readOnlyMessages = messages
	vm.mu.Unlock()
	vm.hub.Publish(Update{Type: UpdateReadOnlyMessages, Messages: messages})
}

// ===== CHATS =====

// FetchLastChat makes the user's latest chat current, creating a fresh one
// when none exists or the lookup fails.
func (vm *ViewModel) FetchLastChat(uid string) <-chan struct{} {
	return vm.launch("fetch_last_chat", func(ctx context.Context) {
		rctx, cancel := vm.remote(ctx)
		chat, err := vm.deps.Backend.GetLastChat(rctx, uid)
		cancel()

		if err != nil {
			if backend.IsNotFound(err) {
				vm.logger.Info("no previous chat for user", "uid", uid)
			} else {
				vm.logger.Error("error fetching last chat", "uid", uid, "error", err)
			}
			if uid != "" {
				vm.createChat(ctx, domain.ChatSpec{Name: domain.DefaultChatName, UserID: uid}, false)
			}
			return
		}

		vm.setCurrentChat(chat)
		vm.fetchMessages(ctx, chat.ID)
	})
}

// CreateChat creates a chat and makes it current, optionally clearing the
// visible messages.
func (vm *ViewModel) CreateChat(spec domain.ChatSpec, clearMessages bool) (<-chan struct{}, error) {
	if spec.Name == "" {
		spec.Name = domain.DefaultChatName
	}
	if err := validate.Struct(spec); err != nil {
		return nil, &ChatError{Type: ErrTypeValidation, Operation: "create_chat", Message: "invalid chat", Cause: err}
	}
	return vm.launch("create_chat", func(ctx context.Context) {
		vm.createChat(ctx, spec, clearMessages)
	}), nil
}

func (vm *ViewModel) createChat(ctx context.Context, spec domain.ChatSpec, clearMessages bool) {
	rctx, cancel := vm.remote(ctx)
	defer cancel()

	chat, err := vm.deps.Backend.CreateChat(rctx, spec)
	if err != nil {
		vm.logger.Error("error creating chat", "uid", spec.UserID, "error", err)
		return
	}

	vm.logger.Info("chat created", "chat_id", chat.ID, "uid", spec.UserID)
	if clearMessages {
		vm.mu.Lock()
		vm.messages = nil
		vm.mu.Unlock()
		vm.hub.Publish(Update{Type: UpdateMessages})
	}
	vm.setCurrentChat(chat)
}

func (vm *ViewModel) setCurrentChat(chat *domain.Chat) {
	vm.mu.Lock()
	vm.currentChat = copyChat(chat)
	vm.mu.Unlock()
	vm.hub.Publish(Update{Type: UpdateCurrentChat, Chat: copyChat(chat)})
}

// UpdateChatName renames a chat; local state changes only after the
// backend accepted the new name.
func (vm *ViewModel) UpdateChatName(chatID int64, name string) (<-chan struct{}, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > 100 {
		return nil, NewValidationError("update_chat_name", "name must be 1-100 characters")
	}
	return vm.launch("update_chat_name", func(ctx context.Context) {
		rctx, cancel := vm.remote(ctx)
		defer cancel()

		if err := vm.deps.Backend.RenameChat(rctx, chatID, name); err != nil {
			vm.logger.Error("error renaming chat", "chat_id", chatID, "error", err)
			return
		}
		vm.applyToChat(chatID, func(c *domain.Chat) { c.Name = name })
	}), nil
}

// UpdateIsChatPublic toggles the public flag; local state follows the
// backend's answer.
func (vm *ViewModel) UpdateIsChatPublic(chatID int64) <-chan struct{} {
	return vm.launch("update_is_chat_public", func(ctx context.Context) {
		rctx, cancel := vm.remote(ctx)
		defer cancel()

		updated, err := vm.deps.Backend.ToggleChatPublic(rctx, chatID)
		if err != nil {
			vm.logger.Error("error updating chat visibility", "chat_id", chatID, "error", err)
			return
		}
		vm.applyToChat(chatID, func(c *domain.Chat) {
			c.IsPublic = updated.IsPublic
			if updated.LastUpdate != "" {
				c.LastUpdate = updated.LastUpdate
			}
		})
	})
}

// applyToChat mutates every local copy of the chat: both pointers and any
// history or community entry.
func (vm *ViewModel) applyToChat(chatID int64, mutate func(c *domain.Chat)) {
	var updates []Update

	vm.mu.Lock()
	if vm.currentChat != nil && vm.currentChat.ID == chatID {
		mutate(vm.currentChat)
		updates = append(updates, Update{Type: UpdateCurrentChat, Chat: copyChat(vm.currentChat)})
	}
	if vm.readOnlyChat != nil && vm.readOnlyChat.ID == chatID {
		mutate(vm.readOnlyChat)
		updates = append(updates, Update{Type: UpdateReadOnlyChat, Chat: copyChat(vm.readOnlyChat)})
	}
	if applyToList(vm.history, chatID, mutate) {
		updates = append(updates, Update{Type: UpdateHistory, Chats: append([]domain.Chat(nil), vm.history...)})
	}
	if applyToList(vm.community, chatID, mutate) {
		updates = append(updates, Update{Type: UpdateCommunity, Chats: append([]domain.Chat(nil), vm.community...)})
	}
	vm.mu.Unlock()

	for _, u := range updates {
		vm.hub.Publish(u)
	}
}

func applyToList(list []domain.Chat, chatID int64, mutate func(c *domain.Chat)) bool {
	changed := false
	for i := range list {
		if list[i].ID == chatID {
			mutate(&list[i])
			changed = true
		}
	}
	return changed
}

func (vm *ViewModel) FetchHistory(uid string) <-chan struct{} {
	return vm.launch("fetch_history", func(ctx context.Context) {
		rctx, cancel := vm.remote(ctx)
		defer cancel()

		chats, err := vm.deps.Backend.ListUserChats(rctx, uid)
		if err != nil {
			vm.logger.Error("error fetching chats history", "uid", uid, "error", err)
			return
		}
		vm.mu.Lock()
		vm.history = chats
		vm.mu.Unlock()
		vm.hub.Publish(Update{Type: UpdateHistory, Chats: append([]domain.Chat(nil), chats...)})
	})
}

func (vm *ViewModel) FetchCommunity() <-chan struct{} {
	return vm.launch("fetch_community", func(ctx context.Context) {
		rctx, cancel := vm.remote(ctx)
		defer cancel()

		chats, err := vm.deps.Backend.ListCommunityChats(rctx)
		if err != nil {
			vm.logger.Error("error fetching community chats", "error", err)
			return
		}
		vm.mu.Lock()
		vm.community = chats
		vm.mu.Unlock()
		vm.hub.Publish(Update{Type: UpdateCommunity, Chats: append([]domain.Chat(nil), chats...)})
	})
}

// OpenReadOnlyChat shows a history or community chat with its comments
// without touching the current conversation.
func (vm *ViewModel) OpenReadOnlyChat(chat domain.Chat) <-chan struct{} {
	vm.mu.Lock()
	vm.readOnlyChat = copyChat(&chat)
	vm.readOnlyMessages = nil
	vm.comments = nil
	vm.mu.Unlock()
	vm.hub.Publish(Update{Type: UpdateReadOnlyChat, Chat: copyChat(&chat)})

	return vm.launch("open_readonly_chat", func(ctx context.Context) {
		vm.fetchReadOnlyMessages(ctx, chat.ID)
		vm.fetchComments(ctx, chat.ID)
	})
}

// ===== COMMENTS =====

func (vm *ViewModel) FetchComments(chatID int64) <-chan struct{} {
	return vm.launch("fetch_comments", func(ctx context.Context) {
		vm.fetchComments(ctx, chatID)
	})
}

func (vm *ViewModel) fetchComments(ctx context.Context, chatID int64) {
	rctx, cancel := vm.remote(ctx)
	defer cancel()

	comments, err := vm.deps.Backend.ListComments(rctx, chatID)
	if err != nil {
		vm.logger.Error("error fetching comments", "chat_id", chatID, "error", err)
		return
	}
	vm.mu.Lock()
	vm.comments = comments
	vm.mu.Unlock()
	vm.hub.Publish(Update{Type: UpdateComments, Comments: append([]domain.Comment(nil), comments...)})
}

// AddComment stores the comment and then reloads the list, whatever the
// outcome of the write.
func (vm *ViewModel) AddComment(chatID int64, text string) (<-chan struct{}, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, NewValidationError("add_comment", "comment is empty")
	}
	if vm.uid == "" {
		return nil, ErrNotLoggedIn
	}
	return vm.launch("add_comment", func(ctx context.Context) {
		rctx, cancel := vm.remote(ctx)
		err := vm.deps.Backend.AddComment(rctx, backend.CommentBody{Message: text, UserID: vm.uid, ChatID: chatID})
		cancel()
		if err != nil {
			vm.logger.Error("error adding comment", "chat_id", chatID, "error", err)
		}
		vm.fetchComments(ctx, chatID)
	}), nil
}

// ===== USER =====

// CreateUser registers the user remotely and caches the record locally.
func (vm *ViewModel) CreateUser(body backend.UserBody) (<-chan struct{}, error) {
	if strings.TrimSpace(body.UID) == "" {
		return nil, NewValidationError("create_user", "uid is required")
	}
	if body.TargetLanguage == "" {
		body.TargetLanguage = domain.DefaultTargetLanguage
	}
	return vm.launch("create_user", func(ctx context.Context) {
		rctx, cancel := vm.remote(ctx)
		defer cancel()

		if err := vm.deps.Backend.CreateUser(rctx, body); err != nil {
			vm.logger.Error("error creating user", "uid", body.UID, "error", err)
			return
		}
		vm.cacheUser(ctx, &domain.User{
			UID:            body.UID,
			Username:       body.Username,
			Email:          body.Email,
			TargetLanguage: body.TargetLanguage,
		})
		if body.UID == vm.uid {
			vm.SetTargetLanguage(body.TargetLanguage)
		}
	}), nil
}

// LoadTargetLanguage resolves the user's target language from the local
// cache, then the backend. Failures keep the default.
func (vm *ViewModel) LoadTargetLanguage(uid string) <-chan struct{} {
	return vm.launch("load_target_language", func(ctx context.Context) {
		if vm.deps.Users != nil {
			if cached, err := vm.deps.Users.FindByUID(ctx, uid); err == nil {
				vm.SetTargetLanguage(cached.Language())
				return
			}
		}

		rctx, cancel := vm.remote(ctx)
		defer cancel()

		user, err := vm.deps.Backend.GetUser(rctx, uid)
		if err != nil {
			vm.logger.Warn("target language unavailable, using default", "uid", uid, "error", err)
			return
		}
		vm.SetTargetLanguage(user.Language())
		vm.cacheUser(ctx, user)
	})
}

func (vm *ViewModel) cacheUser(ctx context.Context, user *domain.User) {
	if vm.deps.Users == nil {
		return
	}
	if err := vm.deps.Users.Upsert(ctx, user); err != nil {
		vm.logger.Warn("failed to cache user", "uid", user.UID, "error", err)
	}
}

// ===== SPEECH =====

// StartSpeechRecognition listens once and stores a non-empty transcript
// for confirmation.
func (vm *ViewModel) StartSpeechRecognition() (<-chan struct{}, error) {
	if vm.deps.Recognizer == nil {
		return nil, NewValidationError("start_speech_recognition", "speech recognition unavailable")
	}
	return vm.launch("speech_recognition", func(ctx context.Context) {
		if vm.config.RecognitionTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, vm.config.RecognitionTimeout)
			defer cancel()
		}

		text, err := vm.deps.Recognizer.Listen(ctx)
		if err != nil {
			vm.logger.Warn("speech recognition failed", "error", err)
			vm.hub.Publish(Update{Type: UpdateNotice, Notice: pipeline.NoticeSpeechNotRecognized, Error: err.Error()})
			return
		}
		if text == "" {
			return
		}

		vm.mu.Lock()
		vm.pendingRecognized = text
		vm.mu.Unlock()
		vm.hub.Publish(Update{Type: UpdateRecognized, Text: text})
	}), nil
}

// StopSpeechRecognition asks the recognizer to finish with what it heard.
func (vm *ViewModel) StopSpeechRecognition() {
	if vm.deps.Recognizer != nil {
		vm.deps.Recognizer.Stop()
	}
}

// CancelSpeechRecognition abandons the current listen.
func (vm *ViewModel) CancelSpeechRecognition() {
	if vm.deps.Recognizer != nil {
		vm.deps.Recognizer.Cancel()
	}
}

// ===== LIFECYCLE =====

// Wait blocks until all launched work has finished.
func (vm *ViewModel) Wait() {
	vm.wg.Wait()
}

// Close releases the recognizer, cancels in-flight work and closes
// subscriptions.
func (vm *ViewModel) Close() error {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return nil
	}
	vm.closed = true
	vm.mu.Unlock()

	var result *multierror.Error
	if vm.deps.Recognizer != nil {
		if err := vm.deps.Recognizer.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	vm.cancel()
	vm.wg.Wait()
	vm.hub.Close()

	vm.logger.Info("chat session closed", "uid", vm.uid)
	return result.ErrorOrNil()
}

func (vm *ViewModel) launch(operation string, fn func(ctx context.Context)) <-chan struct{} {
	done := make(chan struct{})

	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		vm.logger.Warn("command ignored on closed session", "operation", operation)
		close(done)
		return done
	}
	vm.wg.Add(1)
	vm.mu.Unlock()

	go func() {
		defer vm.wg.Done()
		defer close(done)
		fn(vm.ctx)
	}()
	return done
}

func (vm *ViewModel) remote(ctx context.Context) (context.Context, context.CancelFunc) {
	if vm.config.RemoteTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, vm.config.RemoteTimeout)
}

func copyChat(c *domain.Chat) *domain.Chat {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
