// File: internal/services/chat/types.go
package chat

import (
	"github.com/iyunix/go-lingochat/internal/domain"
	"github.com/iyunix/go-lingochat/internal/services/pipeline"
)

// Logger defines the logging interface used across chat services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

type UpdateType string

const (
	UpdateMessage          UpdateType = "message"
	UpdateMessages         UpdateType = "messages"
	UpdateReadOnlyMessages UpdateType = "readonly_messages"
	UpdateHistory          UpdateType = "history"
	UpdateCommunity        UpdateType = "community"
	UpdateComments         UpdateType = "comments"
	UpdateCurrentChat      UpdateType = "current_chat"
	UpdateReadOnlyChat     UpdateType = "readonly_chat"
	UpdateModelDownloading UpdateType = "model_downloading"
	UpdateRecognized       UpdateType = "recognized"
	UpdateNotice           UpdateType = "notice"
)

// Update is published on the hub whenever observable state changes.
// Message updates are keyed by MessageID.
type Update struct {
	Type      UpdateType      `json:"type"`
	MessageID string          `json:"message_id,omitempty"`
	Message   *domain.Message `json:"message,omitempty"`
	State     pipeline.State  `json:"state,omitempty"`
	Notice    pipeline.Notice `json:"notice,omitempty"`
	Chat      *domain.Chat    `json:"chat,omitempty"`
	Messages  []domain.Message `json:"messages,omitempty"`
	Chats     []domain.Chat    `json:"chats,omitempty"`
	Comments  []domain.Comment `json:"comments,omitempty"`
	Active    bool            `json:"active,omitempty"`
	Text      string          `json:"text,omitempty"`
	Error     string          `json:"error,omitempty"`
}
