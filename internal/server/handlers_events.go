package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/kurobon/gitsavegame/internal/checkpoint"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: sameOrigin,
}

// slotsMessage is pushed to event subscribers whenever the slots change.
type slotsMessage struct {
	Command   string     `json:"command"`
	SaveSlots []slotJSON `json:"saveSlots"`
}

func newSlotsMessage(slots []checkpoint.Slot) slotsMessage {
	return slotsMessage{Command: "updateSaveSlots", SaveSlots: toSlotsJSON(slots)}
}

// handleEvents streams the session's slot list over a websocket: once on
// connect, then after every change.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.URL.Query().Get("sessionId"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade the websocket", "error", err)
		return
	}
	defer ws.Close()

	updates, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	// The client only ever closes; reading detects that.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := ws.WriteJSON(newSlotsMessage(sess.GetSlots(r.Context()))); err != nil {
		s.logger.Warn("Failed to write websocket JSON", "error", err)
		return
	}

	for {
		select {
		case msg, ok := <-updates:
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			}
			if err := ws.WriteJSON(newSlotsMessage(msg.Slots)); err != nil {
				s.logger.Warn("Failed to write websocket JSON", "error", err)
				return
			}
		case <-closed:
			s.logger.Debug("Websocket client disconnected", "session", sess.ID)
			return
		case <-r.Context().Done():
			return
		}
	}
}
