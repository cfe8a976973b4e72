package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kurobon/gitsavegame/internal/checkpoint"
	"github.com/kurobon/gitsavegame/internal/ui"
	"github.com/kurobon/gitsavegame/internal/view"
)

// defaultSessionID is used by clients that never called /api/session/init.
const defaultSessionID = "default"

type Server struct {
	Sessions *view.Manager
	Mux      *http.ServeMux
	handler  http.Handler
	logger   *slog.Logger

	sessionSeq atomic.Uint64
}

func NewServer(sm *view.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Sessions: sm,
		Mux:      http.NewServeMux(),
		logger:   logger,
	}
	s.routes()
	s.handler = guardMiddleware(s.Mux)
	return s
}

func (s *Server) routes() {
	s.Mux.HandleFunc("/ping", s.handlePing)
	s.Mux.HandleFunc("/api/session/init", s.handleInitSession)
	s.Mux.HandleFunc("/api/slots", s.handleGetSlots)
	s.Mux.HandleFunc("/api/save", s.handleSave)
	s.Mux.HandleFunc("/api/quicksave", s.handleQuickSave)
	s.Mux.HandleFunc("/api/restore", s.handleRestore)
	s.Mux.HandleFunc("/api/events", s.handleEvents)
	s.Mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// slotJSON is the wire shape of a slot, as rendered by the save menu.
type slotJSON struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Date    string `json:"date"`
	Hash    string `json:"hash"`
	IsEmpty bool   `json:"isEmpty"`
}

func toSlotsJSON(slots []checkpoint.Slot) []slotJSON {
	out := make([]slotJSON, 0, len(slots))
	for _, sl := range slots {
		js := slotJSON{
			ID:      sl.Position,
			Name:    ui.SlotName(sl),
			Hash:    sl.ID(),
			IsEmpty: sl.Empty(),
		}
		if !sl.Empty() {
			js.Date = ui.FormatDate(sl.Checkpoint.Timestamp)
		}
		out = append(out, js)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "pong",
		"system":  "SaveGame",
	})
}

func (s *Server) handleInitSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Capacity int `json:"capacity"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	if req.Capacity < 0 || req.Capacity > checkpoint.MaxCapacity {
		writeError(w, http.StatusBadRequest, fmt.Errorf("capacity %d: %w (max %d)", req.Capacity, checkpoint.ErrCapacity, checkpoint.MaxCapacity))
		return
	}

	sessionID := fmt.Sprintf("session-%d-%d", time.Now().UnixNano(), s.sessionSeq.Add(1))
	sess := s.Sessions.CreateSession(sessionID, req.Capacity)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "session created",
		"sessionId": sess.ID,
		"capacity":  sess.Capacity,
	})
}

// session resolves the caller's view session; an empty id selects the default one.
func (s *Server) session(id string) (*view.Session, error) {
	if id == "" {
		return s.Sessions.CreateSession(defaultSessionID, 0), nil
	}
	sess, ok := s.Sessions.GetSession(id)
	if !ok {
		return nil, fmt.Errorf("session %q not found", id)
	}
	return sess, nil
}

func (s *Server) handleGetSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, err := s.session(r.URL.Query().Get("sessionId"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	slots := sess.GetSlots(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"saveSlots": toSlotsJSON(slots),
		// An empty list means the history could not be read.
		"loaded": len(slots) > 0 || sess.Capacity == 0,
	})
}

type SaveRequest struct {
	SessionID string `json:"sessionId"`
	Label     string `json:"label"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := s.session(req.SessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	res, err := sess.Handle(r.Context(), view.SaveRequest{Label: req.Label})
	if errors.Is(err, checkpoint.ErrEmptyLabel) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		s.logger.Error("Failed to create save", "label", req.Label, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to create save: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     fmt.Sprintf("Save %q created!", req.Label),
		"checkpoint": res.Checkpoint,
	})
}

func (s *Server) handleQuickSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	sess, err := s.session(req.SessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	res, err := sess.Handle(r.Context(), view.QuickSaveRequest{})
	if err != nil {
		s.logger.Error("Failed to create quick save", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to create Quick Save: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "Quick Save created!",
		"checkpoint": res.Checkpoint,
	})
}
