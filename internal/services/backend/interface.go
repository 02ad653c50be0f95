// File: internal/services/backend/interface.go
package backend

import (
	"context"

	"github.com/iyunix/go-lingochat/internal/domain"
)

// MessageBody is the payload of POST /message.
type MessageBody struct {
	Message     string `json:"message"`
	Translation string `json:"translation"`
	City        string `json:"city"`
	ChatID      int64  `json:"chat_id"`
}

// CommentBody is the payload of POST /comment.
type CommentBody struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	ChatID  int64  `json:"chat_id"`
}

// UserBody is the payload of POST /user.
type UserBody struct {
	UID            string `json:"uid"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	TargetLanguage string `json:"target_language"`
}

type renameBody struct {
	ChatID int64  `json:"chat_id"`
	Name   string `json:"name"`
}

// API is the remote chat backend. Every call is attempted once.
type API interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, uid string) (*domain.User, error)
	CreateUser(ctx context.Context, body UserBody) error

	GetLastChat(ctx context.Context, uid string) (*domain.Chat, error)
	CreateChat(ctx context.Context, spec domain.ChatSpec) (*domain.Chat, error)
	ToggleChatPublic(ctx context.Context, chatID int64) (*domain.Chat, error)
	RenameChat(ctx context.Context, chatID int64, name string) error
	ListUserChats(ctx context.Context, uid string) ([]domain.Chat, error)
	ListCommunityChats(ctx context.Context) ([]domain.Chat, error)

	ListMessages(ctx context.Context, chatID int64) ([]domain.PersistedMessage, error)
	AddMessage(ctx context.Context, body MessageBody) error

	ListComments(ctx context.Context, chatID int64) ([]domain.Comment, error)
	AddComment(ctx context.Context, body CommentBody) error
}

// Logger defines the logging interface used by the backend client
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}
