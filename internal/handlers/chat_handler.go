// File: internal/handlers/chat_handler.go
package handlers

import (
	"net/http"

	"github.com/iyunix/go-lingochat/internal/domain"
)

type ChatHandler struct {
	sessions *SessionRegistry
	logger   Logger
}

func NewChatHandler(sessions *SessionRegistry, logger Logger) *ChatHandler {
	return &ChatHandler{sessions: sessions, logger: logger}
}

type sendMessageRequest struct {
	Content string             `json:"content" validate:"max=4000"`
	Kind    domain.MessageKind `json:"kind"`
}

type createChatRequest struct {
	Name          string `json:"name" validate:"max=100"`
	IsPublic      bool   `json:"is_public"`
	ClearMessages bool   `json:"clear_messages"`
}

type renameChatRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type commentRequest struct {
	Message string `json:"message" validate:"required,max=1000"`
}

// SendMessage appends the message and starts its translation. The result
// arrives on the update stream.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	session, uid, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid message", http.StatusBadRequest)
		return
	}

	msg, _, err := session.ViewModel.SendMessage(req.Content, req.Kind)
	if err != nil {
		h.logger.Debug("message rejected", "uid", uid, "error", err)
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, msg)
}

// GetMessages returns the current chat and its messages. With refresh=true
// the messages are reloaded from the backend first.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	session, _, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	vm := session.ViewModel

	if current := vm.CurrentChat(); current != nil && r.URL.Query().Get("refresh") == "true" {
		if !await(r.Context(), vm.FetchMessages(current.ID)) {
			writeCancelled(w)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chat":              vm.CurrentChat(),
		"messages":          vm.Messages(),
		"model_downloading": vm.ModelDownloading(),
	})
}

func (h *ChatHandler) GetCurrentChat(w http.ResponseWriter, r *http.Request) {
	session, _, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	current := session.ViewModel.CurrentChat()
	if current == nil {
		writeError(w, "No current chat", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

// CreateChat starts a new conversation and makes it current.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	session, uid, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	var req createChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid chat", http.StatusBadRequest)
		return
	}

	vm := session.ViewModel
	before := vm.CurrentChat()
	done, err := vm.CreateChat(domain.ChatSpec{Name: req.Name, IsPublic: req.IsPublic, UserID: uid}, req.ClearMessages)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	if !await(r.Context(), done) {
		writeCancelled(w)
		return
	}

	current := vm.CurrentChat()
	if current == nil || (before != nil && current.ID == before.ID) {
		writeError(w, "Could not create chat", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, current)
}

func (h *ChatHandler) RenameChat(w http.ResponseWriter, r *http.Request) {
	session, _, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}
	var req renameChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid chat name", http.StatusBadRequest)
		return
	}

	done, err := session.ViewModel.UpdateChatName(chatID, req.Name)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	if !await(r.Context(), done) {
		writeCancelled(w)
		return
	}
	h.writeChat(w, session, chatID)
}

func (h *ChatHandler) TogglePublic(w http.ResponseWriter, r *http.Request) {
	session, _, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}
	if !await(r.Context(), session.ViewModel.UpdateIsChatPublic(chatID)) {
		writeCancelled(w)
		return
	}
	h.writeChat(w, session, chatID)
}

// writeChat answers with the session's copy of the chat, or 204 when the
// chat is not held locally.
func (h *ChatHandler) writeChat(w http.ResponseWriter, session *Session, chatID int64) {
	if c, ok := session.ViewModel.FindChat(chatID); ok {
		writeJSON(w, http.StatusOK, c)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	session, uid, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	if !await(r.Context(), session.ViewModel.FetchHistory(uid)) {
		writeCancelled(w)
		return
	}
	writeJSON(w, http.StatusOK, session.ViewModel.History())
}

func (h *ChatHandler) GetCommunity(w http.ResponseWriter, r *http.Request) {
	session, _, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	if !await(r.Context(), session.ViewModel.FetchCommunity()) {
		writeCancelled(w)
		return
	}
	writeJSON(w, http.StatusOK, session.ViewModel.Community())
}

// OpenChat shows a history or community chat read-only, with comments.
func (h *ChatHandler) OpenChat(w http.ResponseWriter, r *http.Request) {
	session, _, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}
	target, found := session.ViewModel.FindChat(chatID)
	if !found {
		writeError(w, "Chat not found", http.StatusNotFound)
		return
	}
	if !await(r.Context(), session.ViewModel.OpenReadOnlyChat(*target)) {
		writeCancelled(w)
		return
	}
	h.writeReadOnly(w, session)
}

func (h *ChatHandler) GetReadOnly(w http.ResponseWriter, r *http.Request) {
	session, _, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	h.writeReadOnly(w, session)
}

func (h *ChatHandler) writeReadOnly(w http.ResponseWriter, session *Session) {
	vm := session.ViewModel
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chat":     vm.ReadOnlyChat(),
		"messages": vm.ReadOnlyMessages(),
		"comments": vm.Comments(),
	})
}

func (h *ChatHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	session, _, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}
	if !await(r.Context(), session.ViewModel.FetchComments(chatID)) {
		writeCancelled(w)
		return
	}
	writeJSON(w, http.StatusOK, session.ViewModel.Comments())
}

func (h *ChatHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	session, _, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid comment", http.StatusBadRequest)
		return
	}

	done, err := session.ViewModel.AddComment(chatID, req.Message)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	if !await(r.Context(), done) {
		writeCancelled(w)
		return
	}
	writeJSON(w, http.StatusCreated, session.ViewModel.Comments())
}
