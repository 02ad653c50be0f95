// File: internal/handlers/stream.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iyunix/go-lingochat/internal/services/chat"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// StreamHandler pushes a session's state updates over a websocket.
type StreamHandler struct {
	sessions *SessionRegistry
	upgrader websocket.Upgrader
	logger   Logger
}

func NewStreamHandler(sessions *SessionRegistry, allowedOrigins []string, logger Logger) *StreamHandler {
	return &StreamHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Serve upgrades the connection, sends a snapshot and then every update
// until the client leaves or the session closes.
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	session, uid, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "uid", uid, "error", err)
		return
	}
	defer conn.Close()

	session.streams.Add(1)
	defer session.streams.Add(-1)

	vm := session.ViewModel
	updates, unsubscribe := vm.Subscribe()
	defer unsubscribe()

	h.logger.Info("update stream opened", "uid", uid)
	defer h.logger.Info("update stream closed", "uid", uid)

	snapshot := []chat.Update{
		{Type: chat.UpdateCurrentChat, Chat: vm.CurrentChat()},
		{Type: chat.UpdateMessages, Messages: vm.Messages()},
		{Type: chat.UpdateModelDownloading, Active: vm.ModelDownloading()},
	}
	for _, u := range snapshot {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(u); err != nil {
			return
		}
	}

	gone := make(chan struct{})
	go h.readPump(conn, gone)
	h.writePump(conn, updates, gone)
}

// readPump only handles control frames; client messages are ignored.
func (h *StreamHandler) readPump(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("error reading from stream", "error", err)
			}
			return
		}
	}
}

func (h *StreamHandler) writePump(conn *websocket.Conn, updates <-chan chat.Update, gone <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := conn.WriteJSON(update); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
