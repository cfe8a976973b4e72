// Package ui renders save slots for the terminal and prompts the user
// during restores.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/kurobon/gitsavegame/internal/checkpoint"
)

// Memory-card palette
var (
	colorAccent = lipgloss.Color("#AAAAFF")
	colorSlot   = lipgloss.Color("#5555BB")
	colorMuted  = lipgloss.Color("#888888")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	numberStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSlot).Width(4)
	nameStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	idStyle     = lipgloss.NewStyle().Foreground(colorSlot)
)

// FormatDate formats a checkpoint time like the save menu does, e.g. "3/7/2026 - 9:05".
func FormatDate(t time.Time) string {
	t = t.Local()
	return fmt.Sprintf("%d/%d/%d - %d:%02d", int(t.Month()), t.Day(), t.Year(), t.Hour(), t.Minute())
}

// SlotName is the text shown for a slot.
func SlotName(s checkpoint.Slot) string {
	if s.Empty() {
		return "Empty"
	}
	return s.Checkpoint.Label
}

// ShortID abbreviates a checkpoint identifier for display.
func ShortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

// RenderSlots renders the slot list as a memory-card style table. An empty
// list is reported as a load failure, not as an empty card.
func RenderSlots(slots []checkpoint.Slot, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("MEMORY CARD"))
	sb.WriteString("\n\n")

	if len(slots) == 0 {
		sb.WriteString(mutedStyle.Render("Unable to load save slots."))
		sb.WriteString("\n")
		return sb.String()
	}

	for _, s := range slots {
		sb.WriteString(numberStyle.Render(fmt.Sprintf("%d", s.Position)))
		if s.Empty() {
			sb.WriteString(mutedStyle.Render(SlotName(s)))
			sb.WriteString("\n")
			continue
		}
		cp := s.Checkpoint
		sb.WriteString(idStyle.Render(ShortID(cp.ID)))
		sb.WriteString(" ")
		sb.WriteString(nameStyle.Render(SlotName(s)))
		sb.WriteString("  ")
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("%s (%s)", FormatDate(cp.Timestamp), humanize.RelTime(cp.Timestamp, now, "ago", "from now"))))
		sb.WriteString("\n")
	}
	return sb.String()
}
