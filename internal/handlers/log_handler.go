package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// FrontendLogPayload defines the structure for logs coming from the client.
type FrontendLogPayload struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Context any    `json:"context,omitempty"`
}

// LogHandler records client side events in the server log.
type LogHandler struct {
	logger Logger
}

func NewLogHandler(logger Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

// LogFrontendEvent handles incoming log requests from the client.
func (h *LogHandler) LogFrontendEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)

	var payload FrontendLogPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	log := h.logger.Info
	switch strings.ToLower(payload.Level) {
	case "error":
		log = h.logger.Error
	case "warn", "warning":
		log = h.logger.Warn
	case "debug":
		log = h.logger.Debug
	}
	log("CLIENT_LOG", "message", payload.Message, "context", payload.Context)

	w.WriteHeader(http.StatusNoContent)
}
