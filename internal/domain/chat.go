// File: internal/domain/chat.go
package domain

import "time"

// DefaultChatName is used for chats created without a user supplied name.
const DefaultChatName = "New Chat"

// Chat represents a single conversation thread as stored by the backend.
type Chat struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	IsPublic     bool   `json:"is_public"`
	UserID       string `json:"user_id"`
	CreationTime string `json:"creation_time"`
	LastUpdate   string `json:"last_update"`
	Preview      string `json:"preview,omitempty"`
	Username     string `json:"username,omitempty"` // set on community feed entries
}

// ChatSpec describes a chat to be created.
type ChatSpec struct {
	Name     string `json:"name" validate:"required,max=100"`
	IsPublic bool   `json:"is_public"`
	UserID   string `json:"user_id" validate:"required"`
}

// Comment is a note left on a (usually public) chat.
type Comment struct {
	ID           int64  `json:"id"`
	ChatID       int64  `json:"chat_id"`
	UserID       string `json:"user_id"`
	Username     string `json:"username,omitempty"`
	Message      string `json:"message"`
	CreationTime string `json:"creation_time"`
}

// backend timestamps come either as RFC 1123 (Flask default) or RFC 3339.
var backendTimeLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func parseBackendTime(value string) time.Time {
	for _, layout := range backendTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
