package relay

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/rover/pkg/log"
)

type commandRequest struct {
	Command string `json:"command"`
}

type statusResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	QueueLength *int   `json:"queueLength,omitempty"`
}

type nextCommandResponse struct {
	Command         string `json:"command"`
	QueueLength     int    `json:"queueLength"`
	CameraConnected bool   `json:"cameraConnected"`
}

// Handler exposes a Queue over HTTP.
type Handler struct {
	queue  *Queue
	logger log.Logger
}

func NewHandler(q *Queue, logger log.Logger) *Handler {
	return &Handler{queue: q, logger: logger}
}

// Register adds the relay routes to r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/command", h.postCommand).Methods(http.MethodPost)
	r.HandleFunc("/heartbeat", h.postHeartbeat).Methods(http.MethodPost)
	r.HandleFunc("/next-command", h.getNextCommand).Methods(http.MethodGet)
	r.HandleFunc("/status", h.getStatus).Methods(http.MethodGet)
}

func (h *Handler) postCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Command == "" {
		h.logger.Warn("Rejected command without a command field")
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: "Command is required"})
		return
	}

	n := h.queue.Push(req.Command)
	h.logger.Info("Command added", "command", req.Command, "queueLength", n)
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: "Command added to queue", QueueLength: &n})
}

func (h *Handler) postHeartbeat(w http.ResponseWriter, r *http.Request) {
	h.queue.Heartbeat()
	h.logger.Debug("Camera heartbeat received")
	writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
}

func (h *Handler) getNextCommand(w http.ResponseWriter, r *http.Request) {
	cmd, found, remaining, connected := h.queue.Next()
	if !found {
		h.logger.Debug("No commands in queue, stopping rover", "lastCommand", r.URL.Query().Get("lastCommand"))
	} else {
		h.logger.Info("Sending command to rover", "command", cmd, "queueLength", remaining)
	}
	writeJSON(w, http.StatusOK, nextCommandResponse{Command: cmd, QueueLength: remaining, CameraConnected: connected})
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "Server Running",
		Message: fmt.Sprintf("CAMERA CONNECTED: %t", h.queue.CameraConnected()),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// LoggingMiddleware logs every request.
func LoggingMiddleware(logger log.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("Request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
			next.ServeHTTP(w, r)
		})
	}
}
