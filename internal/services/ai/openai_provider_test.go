package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

func completionHandler(t *testing.T, answer func(system, user string) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]string{
					"role":    "assistant",
					"content": answer(req.Messages[0].Content, req.Messages[1].Content),
				},
			}},
		})
	}
}

func newTestProvider(t *testing.T, mux *http.ServeMux) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.APIKey = "test"
	cfg.BaseURL = srv.URL + "/v1"
	cfg.Supported = []string{"en", "it", "fr"}

	p, err := NewOpenAIProvider(cfg, nopLogger{})
	require.NoError(t, err)
	return p
}

func TestIdentifyNormalisesAnswer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", completionHandler(t, func(_, user string) string {
		if strings.HasPrefix(user, "Bonjour") {
			return " FR-fr.\n"
		}
		return "I am not sure what language this is"
	}))
	p := newTestProvider(t, mux)

	code, err := p.Identify(context.Background(), "Bonjour tout le monde")
	require.NoError(t, err)
	assert.Equal(t, "fr", code)

	code, err = p.Identify(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Equal(t, "und", code)
}

func TestEnsureModelFetchesOncePerPair(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gpt-4o-mini","object":"model","owned_by":"system"}`))
	})
	p := newTestProvider(t, mux)

	require.NoError(t, p.EnsureModel(context.Background(), "fr", "it"))
	require.NoError(t, p.EnsureModel(context.Background(), "fr", "it"))
	require.NoError(t, p.EnsureModel(context.Background(), "en", "it"))

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestEnsureModelFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"no such model","type":"invalid_request_error"}}`))
	})
	p := newTestProvider(t, mux)

	err := p.EnsureModel(context.Background(), "fr", "it")
	require.Error(t, err)

	var aiErr *AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, ErrTypeModel, aiErr.Type)
}

func TestTranslate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", completionHandler(t, func(system, user string) string {
		assert.Contains(t, system, "from fr to it")
		assert.Equal(t, "Bonjour", user)
		return "\"Ciao\""
	}))
	p := newTestProvider(t, mux)

	out, err := p.Translate(context.Background(), "Bonjour", "fr", "it")
	require.NoError(t, err)
	assert.Equal(t, "Ciao", out)

	assert.True(t, p.Supports("it-IT"))
	assert.False(t, p.Supports("xx"))
}

func TestNewOpenAIProviderRequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(DefaultConfig(), nopLogger{})
	require.Error(t, err)
}
