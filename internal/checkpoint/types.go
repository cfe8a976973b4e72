package checkpoint

import (
	"errors"
	"regexp"
	"time"
)

// Checkpoint is a commit in the working directory's history, viewed as a save point.
type Checkpoint struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
}

// Slot is one fixed position of the save menu. Checkpoint is nil for an empty slot.
type Slot struct {
	Position   int         `json:"position"` // 1-based
	Checkpoint *Checkpoint `json:"checkpoint,omitempty"`
}

// Empty reports whether no checkpoint occupies the slot.
func (s Slot) Empty() bool {
	return s.Checkpoint == nil
}

// ID returns the occupant's identifier, or "" for an empty slot.
func (s Slot) ID() string {
	if s.Checkpoint == nil {
		return ""
	}
	return s.Checkpoint.ID
}

var (
	// ErrNoWorkspace is returned when there is no working directory to checkpoint.
	ErrNoWorkspace = errors.New("no workspace folder open")
	// ErrNotRepository is returned by engines asked to operate before Init.
	ErrNotRepository = errors.New("not a git repository")
	// ErrEmptyLabel is returned by UI-layer validation of save labels.
	ErrEmptyLabel = errors.New("save label must not be empty")
	// ErrInvalidID is returned for identifiers that are not commit hashes.
	ErrInvalidID = errors.New("checkpoint id must be a full or abbreviated commit hash")
	// ErrCapacity is returned for slot capacities outside 1..MaxCapacity.
	ErrCapacity = errors.New("slot capacity out of range")
)

var commitHash = regexp.MustCompile(`^[0-9a-fA-F]{4,40}$`)

// IsCommitHash reports whether id is a full or abbreviated (at least four
// digits) hexadecimal commit hash. Revision expressions such as HEAD~1 or
// branch names are not checkpoint identifiers.
func IsCommitHash(id string) bool {
	return commitHash.MatchString(id)
}
