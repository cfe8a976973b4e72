// Package checkpoint manages "save game" style checkpoints of a working
// directory: creating them as commits, presenting the recent history as a
// fixed list of slots, and restoring the tree to any of them.
package checkpoint

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// quickSaveLayout mirrors a US locale date/time string, e.g. "10/19/2026, 3:04:05 PM".
const quickSaveLayout = "1/2/2006, 3:04:05 PM"

// Listener receives the slot list after every change to the history.
type Listener interface {
	SlotsChanged(slots []Slot)
}

type listenerEntry struct {
	capacity int
	listener Listener
}

// Controller is the only component that mutates checkpoint history.
// All engine calls are serialized on a per-repository mutex.
type Controller struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex // serializes engine access

	lmu       sync.Mutex
	listeners map[int]listenerEntry
	nextID    int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock overrides the clock used for quick-save labels.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates a controller driving repo.
func NewController(repo Repository, opts ...Option) *Controller {
	c := &Controller{
		repo:      repo,
		logger:    slog.Default(),
		now:       time.Now,
		listeners: make(map[int]listenerEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureRepository initializes version control in the working directory if needed.
func (c *Controller) EnsureRepository(ctx context.Context) (initialized bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ok, err := c.repo.IsRepository(ctx)
	if err != nil {
		return false, fmt.Errorf("check repository: %w", err)
	}
	if ok {
		return false, nil
	}
	if err := c.repo.Init(ctx); err != nil {
		return false, fmt.Errorf("initialize repository: %w", err)
	}
	c.logger.Info("Initialized a new save repository")
	return true, nil
}

// AutoSave commits the single file at path. Failures are logged and
// swallowed; ok reports whether a checkpoint was created.
func (c *Controller) AutoSave(ctx context.Context, path string) (cp Checkpoint, ok bool) {
	c.mu.Lock()
	cp, err := c.save(ctx, path, "Auto-save: "+filepath.Base(path))
	c.mu.Unlock()

	recordSave(kindAuto, err)
	if err != nil {
		c.logger.Warn("Failed to auto-save", "path", path, "error", err)
		return Checkpoint{}, false
	}
	c.logger.Debug("Auto-saved", "path", path, "id", cp.ID)
	c.Refresh(ctx)
	return cp, true
}

// QuickSave commits the whole working tree under a timestamp label.
// Staging and committing are separate engine calls, so a failed commit can
// leave the index staged.
func (c *Controller) QuickSave(ctx context.Context) (Checkpoint, error) {
	c.mu.Lock()
	cp, err := c.save(ctx, StageAll, "Quick Save: "+c.now().Format(quickSaveLayout))
	c.mu.Unlock()

	recordSave(kindQuick, err)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("quick save: %w", err)
	}
	c.Refresh(ctx)
	return cp, nil
}

// NamedSave commits the whole working tree as "Save: <label>". The label is
// not validated here; callers reject blank names.
func (c *Controller) NamedSave(ctx context.Context, label string) (Checkpoint, error) {
	c.mu.Lock()
	cp, err := c.namedSave(ctx, label)
	c.mu.Unlock()

	if err != nil {
		return Checkpoint{}, err
	}
	c.Refresh(ctx)
	return cp, nil
}

func (c *Controller) namedSave(ctx context.Context, label string) (Checkpoint, error) {
	cp, err := c.save(ctx, StageAll, "Save: "+label)
	recordSave(kindNamed, err)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("save %q: %w", label, err)
	}
	return cp, nil
}

func (c *Controller) save(ctx context.Context, path, label string) (Checkpoint, error) {
	if err := c.repo.Stage(ctx, path); err != nil {
		return Checkpoint{}, fmt.Errorf("stage %s: %w", path, err)
	}
	cp, err := c.repo.Commit(ctx, label)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("commit: %w", err)
	}
	return cp, nil
}

// ListSlots returns capacity slots built from the most recent checkpoints.
// Capacity is clamped to MaxCapacity.
// A failed history query yields an empty slice, which callers must read as
// "unable to load" rather than "no checkpoints".
func (c *Controller) ListSlots(ctx context.Context, capacity int) []Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listSlots(ctx, capacity)
}

func (c *Controller) listSlots(ctx context.Context, capacity int) []Slot {
	capacity = ClampCapacity(capacity)
	if capacity <= 0 {
		return []Slot{}
	}
	checkpoints, err := c.repo.Log(ctx, capacity)
	if err != nil {
		listFailuresTotal.Inc()
		c.logger.Warn("Failed to get save slots", "error", err)
		return []Slot{}
	}
	return ComputeSlots(checkpoints, capacity)
}

// AddListener registers l to receive capacity slots after each change.
// The returned func removes the registration.
func (c *Controller) AddListener(capacity int, l Listener) (remove func()) {
	c.lmu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = listenerEntry{capacity: capacity, listener: l}
	c.lmu.Unlock()

	return func() {
		c.lmu.Lock()
		delete(c.listeners, id)
		c.lmu.Unlock()
	}
}

// Refresh re-lists the slots for every listener at its own capacity and
// pushes the result. It runs after every successful mutation.
func (c *Controller) Refresh(ctx context.Context) {
	c.lmu.Lock()
	entries := make([]listenerEntry, 0, len(c.listeners))
	for _, e := range c.listeners {
		entries = append(entries, e)
	}
	c.lmu.Unlock()

	for _, e := range entries {
		e.listener.SlotsChanged(c.ListSlots(ctx, e.capacity))
	}
}

type restorePhase string

const (
	phaseCheckingDirty        restorePhase = "checking_dirty"
	phaseAwaitingConfirmation restorePhase = "awaiting_confirmation"
	phaseAwaitingSaveLabel    restorePhase = "awaiting_save_label"
	phaseResetting            restorePhase = "resetting"
)

// Restore hard-resets the working tree and history pointer to id.
//
// A blank id is a no-op. When the tree has uncommitted changes, or its
// state cannot be determined, confirm decides whether to cancel, discard
// the changes, or save them first. A nil confirmer cancels.
func (c *Controller) Restore(ctx context.Context, id string, confirm Confirmer) (RestoreOutcome, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		restoresTotal.WithLabelValues(RestoreSkipped.String()).Inc()
		return RestoreSkipped, nil
	}

	c.mu.Lock()
	outcome, saved, err := c.restore(ctx, id, confirm)
	c.mu.Unlock()

	restoresTotal.WithLabelValues(outcome.String()).Inc()
	if outcome == RestoreCompleted {
		c.logger.Info("Save loaded", "id", id)
	}
	if outcome == RestoreCompleted || saved {
		c.Refresh(ctx)
	}
	return outcome, err
}

func (c *Controller) restore(ctx context.Context, id string, confirm Confirmer) (RestoreOutcome, bool, error) {
	saved := false
	c.logger.Debug("Restore", "phase", phaseCheckingDirty, "id", id)

	clean, err := c.repo.IsClean(ctx)
	if err != nil {
		c.logger.Warn("Status query failed, treating working tree as dirty", "error", err)
		clean = false
	}

	if !clean {
		if confirm == nil {
			return RestoreCancelled, saved, nil
		}
		c.logger.Debug("Restore", "phase", phaseAwaitingConfirmation, "id", id)
		choice, err := confirm.ConfirmDirty(ctx)
		if err != nil {
			return RestoreCancelled, saved, fmt.Errorf("confirm restore: %w", err)
		}

		switch choice {
		case ChoiceCancel:
			return RestoreCancelled, saved, nil
		case ChoiceDiscard:
		case ChoiceSaveFirst:
			c.logger.Debug("Restore", "phase", phaseAwaitingSaveLabel, "id", id)
			label, err := confirm.SaveLabel(ctx)
			if err != nil {
				return RestoreCancelled, saved, fmt.Errorf("read save label: %w", err)
			}
			if strings.TrimSpace(label) == "" {
				return RestoreCancelled, saved, nil
			}
			if _, err := c.namedSave(ctx, label); err != nil {
				return RestoreFailed, saved, err
			}
			saved = true
		default:
			return RestoreCancelled, saved, fmt.Errorf("unknown dirty-tree choice %v", choice)
		}
	}

	c.logger.Debug("Restore", "phase", phaseResetting, "id", id)
	if err := c.repo.HardReset(ctx, id); err != nil {
		return RestoreFailed, saved, fmt.Errorf("load save %s: %w", id, err)
	}
	return RestoreCompleted, saved, nil
}
