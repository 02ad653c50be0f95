package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-lingochat/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(&Config{BaseURL: srv.URL, Timeout: time.Second, AuthToken: "token"}, nopLogger{})
	require.NoError(t, err)
	return client
}

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := NewClient(DefaultConfig(), nopLogger{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrTypeValidation, apiErr.Type)
}

func TestGetLastChat(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/last-from-user/alice", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":7,"name":"Trip","is_public":true,"user_id":"alice","creation_time":"Mon, 02 Jan 2006 15:04:05 GMT","last_update":""}`))
	})
	mux.HandleFunc("/chat/last-from-user/bob", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	mux.HandleFunc("/chat/last-from-user/carol", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/chat/last-from-user/dave", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	chat, err := client.GetLastChat(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(7), chat.ID)
	assert.Equal(t, "Trip", chat.Name)
	assert.True(t, chat.IsPublic)

	_, err = client.GetLastChat(ctx, "bob")
	assert.True(t, IsNotFound(err))

	_, err = client.GetLastChat(ctx, "carol")
	assert.True(t, IsNotFound(err))

	_, err = client.GetLastChat(ctx, "dave")
	assert.False(t, IsNotFound(err))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrTypeServer, apiErr.Type)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Code)
	assert.Equal(t, "get_last_chat", apiErr.Operation)
}

func TestCreateChatSendsSnakeCaseBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{"name": "New Chat", "is_public": false, "user_id": "alice"}, body)

		_, _ = w.Write([]byte(`{"id":1,"name":"New Chat","is_public":false,"user_id":"alice"}`))
	}))

	chat, err := client.CreateChat(context.Background(), domain.ChatSpec{Name: domain.DefaultChatName, UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), chat.ID)
}

func TestAddMessageIsAttemptedOnce(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body MessageBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, MessageBody{Message: "ciao", Translation: "hello", City: "Lazio", ChatID: 3}, body)
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := client.AddMessage(context.Background(), MessageBody{Message: "ciao", Translation: "hello", City: "Lazio", ChatID: 3})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRenameAndToggle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/change-name", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(4), body["chat_id"])
		assert.Equal(t, "Holiday", body["name"])
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/chat/4", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		_, _ = w.Write([]byte(`{"id":4,"name":"Holiday","is_public":true,"user_id":"alice"}`))
	})
	client := newTestClient(t, mux)

	require.NoError(t, client.RenameChat(context.Background(), 4, "Holiday"))

	chat, err := client.ToggleChatPublic(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, chat.IsPublic)
}

func TestListEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/from-user/alice", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"a"},{"id":2,"name":"b"}]`))
	})
	mux.HandleFunc("/chat/community", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":9,"name":"public","is_public":true,"username":"bob"}]`))
	})
	mux.HandleFunc("/message/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":5,"message":"hola","translation":"hello","city":"Madrid","chat_id":1}]`))
	})
	mux.HandleFunc("/comment/9", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"chat_id":9,"user_id":"alice","message":"nice"}]`))
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	history, err := client.ListUserChats(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	community, err := client.ListCommunityChats(ctx)
	require.NoError(t, err)
	require.Len(t, community, 1)
	assert.Equal(t, "bob", community[0].Username)

	messages, err := client.ListMessages(ctx, 1)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Translation)

	comments, err := client.ListComments(ctx, 9)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "nice", comments[0].Message)
}

func TestGetUser(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/alice" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"uid":"alice","username":"Alice","email":"a@example.com","target_language":"it"}`))
	}))

	user, err := client.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "it", user.Language())

	_, err = client.GetUser(context.Background(), "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestValidationErrorsSkipNetwork(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))

	assert.Error(t, client.CreateUser(context.Background(), UserBody{}))
	assert.Error(t, client.AddComment(context.Background(), CommentBody{ChatID: 1, UserID: "alice"}))
}

func TestReadsAreRetriedOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"name":"Public","is_public":true}]`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(&Config{
		BaseURL: srv.URL,
		Timeout: time.Second,
		Retry:   &RetryConfig{MaxAttempts: 3, Delay: time.Millisecond},
	}, nopLogger{})
	require.NoError(t, err)

	chats, err := client.ListCommunityChats(context.Background())
	require.NoError(t, err)
	assert.Len(t, chats, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestReadsAreNotRetriedOnClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(&Config{
		BaseURL: srv.URL,
		Timeout: time.Second,
		Retry:   &RetryConfig{MaxAttempts: 3, Delay: time.Millisecond},
	}, nopLogger{})
	require.NoError(t, err)

	_, err = client.ListCommunityChats(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
