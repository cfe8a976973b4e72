package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kurobon/gitsavegame/internal/checkpoint"
	"github.com/kurobon/gitsavegame/internal/view"
)

// RestoreRequest loads a save. OnDirty answers the unsaved-changes prompt
// up front: "cancel", "discard" or "save" (with Label). Leaving it empty
// makes a dirty restore stop with 409 so the client can ask the user.
type RestoreRequest struct {
	SessionID string `json:"sessionId"`
	ID        string `json:"id"`
	OnDirty   string `json:"onDirty"`
	Label     string `json:"label"`
}

// requestConfirmer answers the dirty-tree prompt from the request body.
type requestConfirmer struct {
	choice   checkpoint.DirtyChoice
	answered bool
	label    string
	asked    bool
}

func (c *requestConfirmer) ConfirmDirty(context.Context) (checkpoint.DirtyChoice, error) {
	c.asked = true
	if !c.answered {
		return checkpoint.ChoiceCancel, nil
	}
	return c.choice, nil
}

func (c *requestConfirmer) SaveLabel(context.Context) (string, error) {
	return c.label, nil
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := s.session(req.SessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	conf := &requestConfirmer{label: req.Label}
	if req.OnDirty != "" {
		choice, err := checkpoint.ParseDirtyChoice(req.OnDirty)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		conf.choice, conf.answered = choice, true
	}

	res, err := sess.Handle(r.Context(), view.RestoreRequest{ID: req.ID, Confirmer: conf})
	if errors.Is(err, checkpoint.ErrInvalidID) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		s.logger.Error("Failed to load save", "id", req.ID, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to load save: %w", err))
		return
	}

	switch res.Outcome {
	case checkpoint.RestoreCancelled:
		if conf.asked && !conf.answered {
			writeJSON(w, http.StatusConflict, map[string]string{
				"status":  "confirmation_required",
				"message": "You have unsaved changes. Create a save point first?",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
	case checkpoint.RestoreSkipped:
		writeJSON(w, http.StatusOK, map[string]string{"status": "skipped"})
	default:
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "restored",
			"message": "Save loaded successfully!",
		})
	}
}
