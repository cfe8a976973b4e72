package checkpoint

import (
	"context"
	"fmt"
)

// DirtyChoice is the user's answer when a restore finds uncommitted changes.
type DirtyChoice int

const (
	// ChoiceCancel aborts the restore without side effects.
	ChoiceCancel DirtyChoice = iota
	// ChoiceDiscard restores anyway, dropping the uncommitted changes.
	ChoiceDiscard
	// ChoiceSaveFirst asks for a label and saves the changes before restoring.
	ChoiceSaveFirst
)

func (c DirtyChoice) String() string {
	switch c {
	case ChoiceCancel:
		return "cancel"
	case ChoiceDiscard:
		return "discard"
	case ChoiceSaveFirst:
		return "save"
	default:
		return fmt.Sprintf("DirtyChoice(%d)", int(c))
	}
}

// ParseDirtyChoice maps the wire names used by the HTTP surface onto choices.
func ParseDirtyChoice(s string) (DirtyChoice, error) {
	switch s {
	case "cancel":
		return ChoiceCancel, nil
	case "discard", "no":
		return ChoiceDiscard, nil
	case "save", "yes":
		return ChoiceSaveFirst, nil
	}
	return ChoiceCancel, fmt.Errorf("unknown dirty-tree choice %q", s)
}

// Confirmer is the user-facing collaborator consulted by Restore when the
// working tree has uncommitted changes.
type Confirmer interface {
	ConfirmDirty(ctx context.Context) (DirtyChoice, error)
	// SaveLabel asks for the name of the save point created before restoring.
	// A blank answer aborts the restore.
	SaveLabel(ctx context.Context) (string, error)
}

// StaticConfirmer answers every prompt with fixed values.
type StaticConfirmer struct {
	Choice DirtyChoice
	Label  string
}

func (s StaticConfirmer) ConfirmDirty(context.Context) (DirtyChoice, error) {
	return s.Choice, nil
}

func (s StaticConfirmer) SaveLabel(context.Context) (string, error) {
	return s.Label, nil
}

// RestoreOutcome reports how far a Restore call went.
type RestoreOutcome int

const (
	// RestoreSkipped means the identifier was blank; nothing was touched.
	RestoreSkipped RestoreOutcome = iota
	// RestoreCancelled means the user cancelled or gave no save label.
	RestoreCancelled
	// RestoreCompleted means the working tree now matches the checkpoint.
	RestoreCompleted
	// RestoreFailed means an engine call failed; see the returned error.
	RestoreFailed
)

func (o RestoreOutcome) String() string {
	switch o {
	case RestoreSkipped:
		return "skipped"
	case RestoreCancelled:
		return "cancelled"
	case RestoreCompleted:
		return "completed"
	case RestoreFailed:
		return "failed"
	default:
		return fmt.Sprintf("RestoreOutcome(%d)", int(o))
	}
}
