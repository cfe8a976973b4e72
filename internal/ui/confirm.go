package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/huh"

	"github.com/kurobon/gitsavegame/internal/checkpoint"
)

// TerminalConfirmer asks the restore questions on the terminal.
// Aborting a prompt (Ctrl-C, Esc) counts as cancel.
type TerminalConfirmer struct{}

// Ensure TerminalConfirmer implements checkpoint.Confirmer
var _ checkpoint.Confirmer = TerminalConfirmer{}

func (TerminalConfirmer) ConfirmDirty(ctx context.Context) (checkpoint.DirtyChoice, error) {
	choice := checkpoint.ChoiceCancel
	sel := huh.NewSelect[checkpoint.DirtyChoice]().
		Title("You have unsaved changes. Create a save point first?").
		Options(
			huh.NewOption("Yes", checkpoint.ChoiceSaveFirst),
			huh.NewOption("No", checkpoint.ChoiceDiscard),
			huh.NewOption("Cancel", checkpoint.ChoiceCancel),
		).
		Value(&choice)

	if err := huh.NewForm(huh.NewGroup(sel)).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return checkpoint.ChoiceCancel, nil
		}
		return checkpoint.ChoiceCancel, err
	}
	return choice, nil
}

func (TerminalConfirmer) SaveLabel(ctx context.Context) (string, error) {
	var label string
	input := huh.NewInput().
		Title("Enter a name for this save point").
		Value(&label)

	if err := huh.NewForm(huh.NewGroup(input)).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", err
	}
	return label, nil
}
