// File: internal/handlers/speech_handler.go
package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const defaultMaxUploadBytes = 10 << 20

var allowedAudioExtensions = map[string]bool{
	".m4a": true, ".mp3": true, ".mp4": true, ".mpeg": true,
	".mpga": true, ".wav": true, ".webm": true, ".ogg": true, ".flac": true,
}

// SpeechHandler drives a session's recognizer. Recordings are uploaded
// separately and consumed by the running recognition.
type SpeechHandler struct {
	sessions       *SessionRegistry
	inputDir       string
	maxUploadBytes int64
	logger         Logger
}

func NewSpeechHandler(sessions *SessionRegistry, inputDir string, maxUploadBytes int64, logger Logger) *SpeechHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &SpeechHandler{sessions: sessions, inputDir: inputDir, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Start begins a recognition; the transcript is published as a
// "recognized" update.
func (h *SpeechHandler) Start(w http.ResponseWriter, r *http.Request) {
	session, _, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	if _, err := session.ViewModel.StartSpeechRecognition(); err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "listening"})
}

func (h *SpeechHandler) Stop(w http.ResponseWriter, r *http.Request) {
	session, _, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	session.ViewModel.StopSpeechRecognition()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "stopping"})
}

func (h *SpeechHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	session, _, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	session.ViewModel.CancelSpeechRecognition()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelled"})
}

// UploadAudio stores the "audio" form file and hands it to the recognizer.
func (h *SpeechHandler) UploadAudio(w http.ResponseWriter, r *http.Request) {
	session, uid, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	if session.Audio == nil {
		writeError(w, "Speech input unavailable", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, "Missing or oversized audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedAudioExtensions[ext] {
		writeError(w, "Unsupported audio format", http.StatusUnsupportedMediaType)
		return
	}

	path, err := h.save(file, ext)
	if err != nil {
		h.logger.Error("failed to store recording", "uid", uid, "error", err)
		writeError(w, "Could not store recording", http.StatusInternalServerError)
		return
	}
	if err := session.Audio.Submit(path); err != nil {
		_ = os.Remove(path)
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	h.logger.Debug("recording queued", "uid", uid, "path", path, "size", header.Size)
	writeJSON(w, http.StatusAccepted, map[string]string{"recording": filepath.Base(path)})
}

func (h *SpeechHandler) save(src io.Reader, ext string) (string, error) {
	if err := os.MkdirAll(h.inputDir, 0o750); err != nil {
		return "", fmt.Errorf("creating speech input dir: %w", err)
	}
	path := filepath.Join(h.inputDir, uuid.NewString()+ext)
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

func (h *SpeechHandler) Pending(w http.ResponseWriter, r *http.Request) {
	session, _, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": session.ViewModel.PendingRecognized()})
}

// Confirm sends the pending transcript as a message.
func (h *SpeechHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	session, _, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	msg, _, err := session.ViewModel.SendRecognizedMessage()
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, msg)
}

func (h *SpeechHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	session, _, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	session.ViewModel.DismissRecognized()
	w.WriteHeader(http.StatusNoContent)
}
