// File: internal/handlers/respond.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/iyunix/go-lingochat/internal/middleware"
	"github.com/iyunix/go-lingochat/internal/services/chat"
)

var validate = validator.New()

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON decodes and validates the request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

// await blocks until done closes or the request goes away.
func await(ctx context.Context, done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

func chatIDFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// currentSession resolves the caller's session or writes the error response.
func currentSession(w http.ResponseWriter, r *http.Request, sessions *SessionRegistry) (*Session, string, bool) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, "", false
	}
	s, ok := sessions.Get(uid)
	if !ok {
		writeError(w, "No active session, log in again", http.StatusUnauthorized)
		return nil, "", false
	}
	return s, uid, true
}

// writeCommandError maps view-model command errors to HTTP statuses.
func writeCommandError(w http.ResponseWriter, err error) {
	var chatErr *chat.ChatError
	switch {
	case errors.Is(err, chat.ErrClosed):
		writeError(w, "Session closed", http.StatusGone)
	case errors.Is(err, chat.ErrNotLoggedIn):
		writeError(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, chat.ErrNothingRecognized):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.As(err, &chatErr) && chatErr.Type == chat.ErrTypeValidation:
		writeError(w, chatErr.Message, http.StatusBadRequest)
	default:
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeCancelled(w http.ResponseWriter) {
	writeError(w, "Request cancelled before completion", http.StatusServiceUnavailable)
}
