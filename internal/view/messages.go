package view

import (
	"github.com/kurobon/gitsavegame/internal/checkpoint"
)

// Message is the closed set of messages exchanged between a view and the
// checkpoint controller.
type Message interface {
	isMessage()
}

// Request is a Message sent from the view to the controller.
type Request interface {
	Message
	isRequest()
}

// SaveRequest creates a named save point.
type SaveRequest struct {
	Label string `json:"label"`
}

// QuickSaveRequest creates a timestamped save point.
type QuickSaveRequest struct{}

// RestoreRequest loads a save point. Confirmer answers the dirty-tree prompt.
type RestoreRequest struct {
	ID        string               `json:"id"`
	Confirmer checkpoint.Confirmer `json:"-"`
}

// SlotsChanged is pushed to the view after every change to the history.
type SlotsChanged struct {
	Slots []checkpoint.Slot `json:"slots"`
}

func (SaveRequest) isMessage()      {}
func (QuickSaveRequest) isMessage() {}
func (RestoreRequest) isMessage()   {}
func (SlotsChanged) isMessage()     {}

func (SaveRequest) isRequest()      {}
func (QuickSaveRequest) isRequest() {}
func (RestoreRequest) isRequest()   {}

// Result is the controller's answer to a Request.
type Result struct {
	Checkpoint *checkpoint.Checkpoint    `json:"checkpoint,omitempty"`
	Outcome    checkpoint.RestoreOutcome `json:"-"`
}
