// File: internal/domain/message.go
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	// PendingTranslation is shown until the pipeline resolves a message.
	PendingTranslation = "..."
	// UnknownCity is used whenever location enrichment is unavailable.
	UnknownCity = "Unknown"
)

// ErrAlreadyTranslated is returned when a message's translation is set twice.
var ErrAlreadyTranslated = errors.New("message translation already resolved")

// MessageKind tells the pipeline how the original content was captured.
type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindAudio MessageKind = "audio"
	MessageKindImage MessageKind = "image" // text recognized from a photo
)

// Valid reports whether k is one of the known kinds.
func (k MessageKind) Valid() bool {
	switch k {
	case MessageKindText, MessageKindAudio, MessageKindImage:
		return true
	}
	return false
}

// Message is an immutable snapshot of a single chat message.
// Enrichment produces new snapshots through the With* methods.
type Message struct {
	ID                string      `json:"id"`
	OriginalContent   string      `json:"original_content"`
	TranslatedContent string      `json:"translated_content"`
	City              string      `json:"city"`
	Kind              MessageKind `json:"kind"`
	CreatedAt         time.Time   `json:"created_at"`
}

// NewMessage creates an untranslated message with a fresh local id.
func NewMessage(content string, kind MessageKind) Message {
	if kind == "" {
		kind = MessageKindText
	}
	return Message{
		ID:                uuid.NewString(),
		OriginalContent:   content,
		TranslatedContent: PendingTranslation,
		City:              UnknownCity,
		Kind:              kind,
		CreatedAt:         time.Now().UTC(),
	}
}

// IsTranslated reports whether the translation reached a terminal value.
func (m Message) IsTranslated() bool {
	return m.TranslatedContent != PendingTranslation
}

// WithTranslation returns a copy carrying the terminal translation.
// The transition happens at most once.
func (m Message) WithTranslation(text string) (Message, error) {
	if m.IsTranslated() {
		return m, ErrAlreadyTranslated
	}
	m.TranslatedContent = text
	return m, nil
}

// WithCity returns a copy carrying the resolved city. Empty names keep UnknownCity.
func (m Message) WithCity(city string) Message {
	if city == "" {
		city = UnknownCity
	}
	m.City = city
	return m
}

// WithTranscript replaces the content of an audio message with its transcript.
// It is only valid before the message has been translated.
func (m Message) WithTranscript(text string) Message {
	if m.IsTranslated() {
		return m
	}
	m.OriginalContent = text
	return m
}

// PersistedMessage is the backend representation of a message.
type PersistedMessage struct {
	ID           int64  `json:"id"`
	Message      string `json:"message"`
	Translation  string `json:"translation"`
	City         string `json:"city"`
	ChatID       int64  `json:"chat_id"`
	CreationTime string `json:"creation_time"`
	LastUpdate   string `json:"last_update"`
}

// ToMessage maps a stored message to a terminal snapshot.
func (p PersistedMessage) ToMessage() Message {
	city := p.City
	if city == "" {
		city = UnknownCity
	}
	return Message{
		ID:                uuid.NewString(),
		OriginalContent:   p.Message,
		TranslatedContent: p.Translation,
		City:              city,
		Kind:              MessageKindText,
		CreatedAt:         parseBackendTime(p.CreationTime),
	}
}

// MessagesFromPersisted maps a backend message list in order.
func MessagesFromPersisted(list []PersistedMessage) []Message {
	out := make([]Message, 0, len(list))
	for _, p := range list {
		out = append(out, p.ToMessage())
	}
	return out
}
