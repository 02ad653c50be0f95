// File: internal/handlers/auth_handlers.go
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/iyunix/go-lingochat/internal/auth"
	"github.com/iyunix/go-lingochat/internal/domain"
	"github.com/iyunix/go-lingochat/internal/services/backend"
)

// UserLookup reads user records from the chat backend.
type UserLookup interface {
	GetUser(ctx context.Context, uid string) (*domain.User, error)
}

// AuthHandler opens and closes chat sessions. Identity itself is owned by
// the upstream provider; a session is granted for any uid the backend knows.
type AuthHandler struct {
	sessions *SessionRegistry
	users    UserLookup
	secret   []byte
	tokenTTL time.Duration
	logger   Logger
}

func NewAuthHandler(sessions *SessionRegistry, users UserLookup, secret []byte, tokenTTL time.Duration, logger Logger) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = auth.DefaultTokenTTL
	}
	return &AuthHandler{sessions: sessions, users: users, secret: secret, tokenTTL: tokenTTL, logger: logger}
}

type loginRequest struct {
	UID            string `json:"uid" validate:"required,max=128"`
	TargetLanguage string `json:"target_language" validate:"omitempty,len=2"`
}

type registerRequest struct {
	UID            string `json:"uid" validate:"required,max=128"`
	Username       string `json:"username" validate:"required,max=64"`
	Email          string `json:"email" validate:"omitempty,email"`
	TargetLanguage string `json:"target_language" validate:"omitempty,len=2"`
}

type languageRequest struct {
	TargetLanguage string `json:"target_language" validate:"required,len=2"`
}

// Login opens the caller's session, loads the target language and the
// latest chat, and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid login request", http.StatusBadRequest)
		return
	}
	req.UID = strings.TrimSpace(req.UID)

	if _, err := h.users.GetUser(r.Context(), req.UID); err != nil {
		if backend.IsNotFound(err) {
			writeError(w, "User not found", http.StatusNotFound)
			return
		}
		h.logger.Error("user lookup failed", "uid", req.UID, "error", err)
		writeError(w, "Backend unavailable", http.StatusBadGateway)
		return
	}

	session, created, err := h.sessions.Open(req.UID)
	if err != nil {
		h.logger.Error("failed to open session", "uid", req.UID, "error", err)
		writeError(w, "Could not open session", http.StatusServiceUnavailable)
		return
	}
	vm := session.ViewModel

	if req.TargetLanguage != "" {
		vm.SetTargetLanguage(req.TargetLanguage)
	} else if !await(r.Context(), vm.LoadTargetLanguage(req.UID)) {
		writeCancelled(w)
		return
	}
	if created || vm.CurrentChat() == nil {
		if !await(r.Context(), vm.FetchLastChat(req.UID)) {
			writeCancelled(w)
			return
		}
	}

	token, err := auth.GenerateJWT(req.UID, h.secret, h.tokenTTL)
	if err != nil {
		h.logger.Error("failed to issue session token", "uid", req.UID, "error", err)
		writeError(w, "Could not issue token", http.StatusInternalServerError)
		return
	}

	h.logger.Info("user logged in", "uid", req.UID, "new_session", created)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":           token,
		"expires_at":      time.Now().Add(h.tokenTTL).UTC(),
		"uid":             req.UID,
		"target_language": vm.TargetLanguage(),
		"current_chat":    vm.CurrentChat(),
	})
}

// Register creates the user on the backend and caches it locally.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid registration request", http.StatusBadRequest)
		return
	}

	session, _, err := h.sessions.Open(strings.TrimSpace(req.UID))
	if err != nil {
		h.logger.Error("failed to open session", "uid", req.UID, "error", err)
		writeError(w, "Could not open session", http.StatusServiceUnavailable)
		return
	}

	done, err := session.ViewModel.CreateUser(backend.UserBody{
		UID:            strings.TrimSpace(req.UID),
		Username:       strings.TrimSpace(req.Username),
		Email:          strings.TrimSpace(req.Email),
		TargetLanguage: req.TargetLanguage,
	})
	if err != nil {
		writeCommandError(w, err)
		return
	}
	if !await(r.Context(), done) {
		writeCancelled(w)
		return
	}

	user, err := h.users.GetUser(r.Context(), req.UID)
	if err != nil {
		h.logger.Warn("registered user not visible on backend", "uid", req.UID, "error", err)
		writeError(w, "User could not be created", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Logout closes the caller's session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	if err := h.sessions.Remove(uid); err != nil {
		h.logger.Warn("error closing session", "uid", uid, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetLanguage changes the language new messages are translated into.
func (h *AuthHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	session, _, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	var req languageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid language", http.StatusBadRequest)
		return
	}
	session.ViewModel.SetTargetLanguage(req.TargetLanguage)
	writeJSON(w, http.StatusOK, map[string]string{"target_language": session.ViewModel.TargetLanguage()})
}
