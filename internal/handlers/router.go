// File: internal/handlers/router.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-lingochat/internal/middleware"
	"github.com/iyunix/go-lingochat/internal/ratelimit"
)

// RouterConfig carries what the HTTP surface needs. Limiters are optional.
type RouterConfig struct {
	Sessions       *SessionRegistry
	Users          UserLookup
	JWTSecret      []byte
	TokenTTL       time.Duration
	AllowedOrigins []string
	SpeechInputDir string
	MaxUploadBytes int64
	MessageLimiter *ratelimit.MemoryRateLimiter
	SessionLimiter *ratelimit.MemoryRateLimiter
	Logger         Logger
}

// NewRouter builds the API. CORS wraps the whole router so preflight
// requests are answered even though no route matches OPTIONS.
func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Sessions, cfg.Users, cfg.JWTSecret, cfg.TokenTTL, cfg.Logger)
	chatHandler := NewChatHandler(cfg.Sessions, cfg.Logger)
	speechHandler := NewSpeechHandler(cfg.Sessions, cfg.SpeechInputDir, cfg.MaxUploadBytes, cfg.Logger)
	streamHandler := NewStreamHandler(cfg.Sessions, cfg.AllowedOrigins, cfg.Logger)
	logHandler := NewLogHandler(cfg.Logger)

	r := mux.NewRouter()
	r.Use(middleware.RecoverPanic(cfg.Logger))
	r.Use(middleware.LoggingMiddleware(cfg.Logger))

	// --- Public Routes ---
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "sessions": cfg.Sessions.Len()})
	}).Methods("GET")
	r.HandleFunc("/api/log", logHandler.LogFrontendEvent).Methods("POST")

	limitSessions := func(h http.HandlerFunc) http.Handler { return h }
	if cfg.SessionLimiter != nil {
		limit := middleware.RateLimitMiddleware(cfg.SessionLimiter, "session", cfg.Logger)
		limitSessions = func(h http.HandlerFunc) http.Handler { return limit(h) }
	}
	r.Handle("/api/session", limitSessions(authHandler.Login)).Methods("POST")
	r.Handle("/api/users", limitSessions(authHandler.Register)).Methods("POST")

	// --- Protected Routes ---
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.NewJWTMiddleware(cfg.JWTSecret, cfg.Logger))
	api.HandleFunc("/session", authHandler.Logout).Methods("DELETE")
	api.HandleFunc("/session/language", authHandler.SetLanguage).Methods("PUT")

	api.HandleFunc("/messages", chatHandler.GetMessages).Methods("GET")
	api.HandleFunc("/stream", streamHandler.Serve).Methods("GET")

	api.HandleFunc("/chats", chatHandler.CreateChat).Methods("POST")
	api.HandleFunc("/chats/current", chatHandler.GetCurrentChat).Methods("GET")
	api.HandleFunc("/chats/history", chatHandler.GetHistory).Methods("GET")
	api.HandleFunc("/chats/community", chatHandler.GetCommunity).Methods("GET")
	api.HandleFunc("/chats/readonly", chatHandler.GetReadOnly).Methods("GET")
	api.HandleFunc("/chats/{id:[0-9]+}/name", chatHandler.RenameChat).Methods("PUT")
	api.HandleFunc("/chats/{id:[0-9]+}/public", chatHandler.TogglePublic).Methods("PUT")
	api.HandleFunc("/chats/{id:[0-9]+}/open", chatHandler.OpenChat).Methods("POST")
	api.HandleFunc("/chats/{id:[0-9]+}/comments", chatHandler.GetComments).Methods("GET")
	api.HandleFunc("/chats/{id:[0-9]+}/comments", chatHandler.AddComment).Methods("POST")

	api.HandleFunc("/speech/start", speechHandler.Start).Methods("POST")
	api.HandleFunc("/speech/stop", speechHandler.Stop).Methods("POST")
	api.HandleFunc("/speech/cancel", speechHandler.Cancel).Methods("POST")
	api.HandleFunc("/speech/audio", speechHandler.UploadAudio).Methods("POST")
	api.HandleFunc("/speech/pending", speechHandler.Pending).Methods("GET")
	api.HandleFunc("/speech/pending", speechHandler.Dismiss).Methods("DELETE")

	// Sends cost translation calls and are limited separately.
	limitSends := func(h http.HandlerFunc) http.Handler { return h }
	if cfg.MessageLimiter != nil {
		limit := middleware.RateLimitMiddleware(cfg.MessageLimiter, "message", cfg.Logger)
		limitSends = func(h http.HandlerFunc) http.Handler { return limit(h) }
	}
	api.Handle("/messages", limitSends(chatHandler.SendMessage)).Methods("POST")
	api.Handle("/speech/confirm", limitSends(speechHandler.Confirm)).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	return middleware.CORS(cfg.AllowedOrigins)(r)
}
