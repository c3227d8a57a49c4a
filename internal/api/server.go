// Package api exposes the observer surface: emitting events over HTTP,
// streaming them over WebSocket, and inspecting hook execution history
// and bus metrics.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flitsinc/go-hooks/internal/event"
	"github.com/flitsinc/go-hooks/internal/eventbus"
	"github.com/flitsinc/go-hooks/internal/history"
)

type Server struct {
	Bus       *eventbus.Bus
	History   *history.Store
	StartedAt time.Time
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/events/ws", s.handleEventsWS)
	mux.HandleFunc("/api/executions", s.handleExecutions)
	mux.HandleFunc("/api/metrics", s.handleMetrics)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{"status": "ok", "time": time.Now().UTC()}
	if !s.StartedAt.IsZero() {
		payload["uptime_seconds"] = int64(time.Since(s.StartedAt).Seconds())
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if s.Bus == nil {
		writeError(w, http.StatusInternalServerError, errNotFound("event bus"))
		return
	}

	var raw map[string]any
	if err := decodeJSON(r.Body, &raw); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	msg, err := event.FromMap(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Bus.Emit(r.Context(), msg); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"event_id": msg.ID})
}

func (s *Server) handleExecutions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	if s.History == nil {
		writeError(w, http.StatusNotImplemented, errNotFound("execution history"))
		return
	}

	if eventID := r.URL.Query().Get("event_id"); eventID != "" {
		items, err := s.History.ListForEvent(r.Context(), eventID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return
	}

	limit := parseInt(r.URL.Query().Get("limit"), 50)
	items, err := s.History.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	if s.Bus == nil {
		writeError(w, http.StatusInternalServerError, errNotFound("event bus"))
		return
	}
	writeJSON(w, http.StatusOK, s.Bus.Metrics())
}

func decodeJSON(body io.Reader, dest any) error {
	dec := json.NewDecoder(body)
	return dec.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitComma(value string) []string {
	parts := strings.Split(value, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

type notFoundError struct {
	msg string
}

func (e notFoundError) Error() string { return e.msg }

func errNotFound(target string) error {
	return notFoundError{msg: target + " not found"}
}
