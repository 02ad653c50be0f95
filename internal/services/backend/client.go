// File: internal/services/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iyunix/go-lingochat/internal/domain"
)

// Client talks JSON over HTTP to the chat backend.
type Client struct {
	config *Config
	client *http.Client
	logger Logger
}

var _ API = (*Client)(nil)

func NewClient(config *Config, logger Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, &APIError{Type: ErrTypeValidation, Operation: "config", Message: err.Error()}
	}
	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.do(ctx, "list_users", http.MethodGet, "/user", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	var user *domain.User
	if err := c.do(ctx, "get_user", http.MethodGet, "/user/"+url.PathEscape(uid), nil, &user); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, newNotFound("get_user")
	}
	return user, nil
}

func (c *Client) CreateUser(ctx context.Context, body UserBody) error {
	if strings.TrimSpace(body.UID) == "" {
		return &APIError{Type: ErrTypeValidation, Operation: "create_user", Message: "uid is required"}
	}
	return c.do(ctx, "create_user", http.MethodPost, "/user", body, nil)
}

// GetLastChat returns ErrNotFound when the user has no chat yet, either as
// a 404 or as a JSON null body.
func (c *Client) GetLastChat(ctx context.Context, uid string) (*domain.Chat, error) {
	var chat *domain.Chat
	if err := c.do(ctx, "get_last_chat", http.MethodGet, "/chat/last-from-user/"+url.PathEscape(uid), nil, &chat); err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, newNotFound("get_last_chat")
	}
	return chat, nil
}

func (c *Client) CreateChat(ctx context.Context, spec domain.ChatSpec) (*domain.Chat, error) {
	var chat *domain.Chat
	if err := c.do(ctx, "create_chat", http.MethodPost, "/chat", spec, &chat); err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, &APIError{Type: ErrTypeDecode, Operation: "create_chat", Message: "empty response"}
	}
	return chat, nil
}

func (c *Client) ToggleChatPublic(ctx context.Context, chatID int64) (*domain.Chat, error) {
	var chat *domain.Chat
	if err := c.do(ctx, "toggle_chat_public", http.MethodPut, fmt.Sprintf("/chat/%d", chatID), nil, &chat); err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, newNotFound("toggle_chat_public")
	}
	return chat, nil
}

func (c *Client) RenameChat(ctx context.Context, chatID int64, name string) error {
	return c.do(ctx, "rename_chat", http.MethodPut, "/chat/change-name", renameBody{ChatID: chatID, Name: name}, nil)
}

func (c *Client) ListUserChats(ctx context.Context, uid string) ([]domain.Chat, error) {
	var chats []domain.Chat
	if err := c.do(ctx, "list_user_chats", http.MethodGet, "/chat/from-user/"+url.PathEscape(uid), nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (c *Client) ListCommunityChats(ctx context.Context) ([]domain.Chat, error) {
	var chats []domain.Chat
	if err := c.do(ctx, "list_community_chats", http.MethodGet, "/chat/community", nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (c *Client) ListMessages(ctx context.Context, chatID int64) ([]domain.PersistedMessage, error) {
	var messages []domain.PersistedMessage
	if err := c.do(ctx, "list_messages", http.MethodGet, fmt.Sprintf("/message/%d", chatID), nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) AddMessage(ctx context.Context, body MessageBody) error {
	return c.do(ctx, "add_message", http.MethodPost, "/message", body, nil)
}

func (c *Client) ListComments(ctx context.Context, chatID int64) ([]domain.Comment, error) {
	var comments []domain.Comment
	if err := c.do(ctx, "list_comments", http.MethodGet, fmt.Sprintf("/comment/%d", chatID), nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) AddComment(ctx context.Context, body CommentBody) error {
	if strings.TrimSpace(body.Message) == "" {
		return &APIError{Type: ErrTypeValidation, Operation: "add_comment", Message: "comment is empty"}
	}
	return c.do(ctx, "add_comment", http.MethodPost, "/comment", body, nil)
}

// do sends one request. Reads are retried on network and server errors;
// writes are attempted once.
func (c *Client) do(ctx context.Context, operation, method, path string, payload, out interface{}) error {
	if method != http.MethodGet {
		return c.send(ctx, operation, method, path, payload, out)
	}
	return retryWithBackoff(ctx, c.config.Retry, func(ctx context.Context) error {
		return c.send(ctx, operation, method, path, payload, out)
	})
}

func (c *Client) send(ctx context.Context, operation, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return &APIError{Type: ErrTypeValidation, Operation: operation, Message: "invalid payload", Cause: err}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.config.BaseURL, "/")+path, body)
	if err != nil {
		return &APIError{Type: ErrTypeNetwork, Operation: operation, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("backend request failed", "operation", operation, "error", err)
		return &APIError{Type: ErrTypeNetwork, Operation: operation, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request completed",
		"operation", operation,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Type: ErrTypeNetwork, Operation: operation, Code: resp.StatusCode, Message: "failed to read response", Cause: err}
	}

	if err := handleStatus(operation, resp.StatusCode, raw); err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Type: ErrTypeDecode, Operation: operation, Code: resp.StatusCode, Message: "invalid response body", Cause: err}
	}
	return nil
}

func handleStatus(operation string, status int, raw []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return newNotFound(operation)
	case status >= 500:
		return &APIError{Type: ErrTypeServer, Code: status, Operation: operation, Message: strings.TrimSpace(string(raw))}
	default:
		return &APIError{Type: ErrTypeClient, Code: status, Operation: operation, Message: strings.TrimSpace(string(raw))}
	}
}
