// Package view holds the UI-facing sessions that present checkpoint slots
// and forward save/restore requests to the controller.
package view

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kurobon/gitsavegame/internal/checkpoint"
)

// Session is one open save menu: a capacity, a set of subscribers and the
// controller it talks to.
type Session struct {
	ID        string
	Capacity  int
	CreatedAt time.Time

	controller *checkpoint.Controller
	unregister func()

	mu      sync.Mutex
	subs    map[int]chan SlotsChanged
	nextSub int
	closed  bool
}

// Ensure Session implements checkpoint.Listener
var _ checkpoint.Listener = (*Session)(nil)

func newSession(id string, capacity int, c *checkpoint.Controller) *Session {
	s := &Session{
		ID:         id,
		Capacity:   capacity,
		CreatedAt:  time.Now(),
		controller: c,
		subs:       make(map[int]chan SlotsChanged),
	}
	s.unregister = c.AddListener(capacity, s)
	return s
}

// GetSlots lists the session's slots. An empty result means the history
// could not be read.
func (s *Session) GetSlots(ctx context.Context) []checkpoint.Slot {
	return s.controller.ListSlots(ctx, s.Capacity)
}

// Handle executes a request against the controller. Subscribers are
// notified by the controller once the history has changed.
func (s *Session) Handle(ctx context.Context, req Request) (Result, error) {
	switch r := req.(type) {
	case SaveRequest:
		if strings.TrimSpace(r.Label) == "" {
			return Result{}, checkpoint.ErrEmptyLabel
		}
		cp, err := s.controller.NamedSave(ctx, r.Label)
		if err != nil {
			return Result{}, err
		}
		return Result{Checkpoint: &cp}, nil

	case QuickSaveRequest:
		cp, err := s.controller.QuickSave(ctx)
		if err != nil {
			return Result{}, err
		}
		return Result{Checkpoint: &cp}, nil

	case RestoreRequest:
		if id := strings.TrimSpace(r.ID); id != "" && !checkpoint.IsCommitHash(id) {
			return Result{Outcome: checkpoint.RestoreFailed}, checkpoint.ErrInvalidID
		}
		outcome, err := s.controller.Restore(ctx, r.ID, r.Confirmer)
		return Result{Outcome: outcome}, err

	default:
		return Result{}, fmt.Errorf("unsupported request %T", req)
	}
}

// Subscribe returns a channel receiving the latest slot list after each
// change. Slow subscribers only ever see the newest list.
func (s *Session) Subscribe() (<-chan SlotsChanged, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan SlotsChanged, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// SlotsChanged fans a new slot list out to every subscriber.
func (s *Session) SlotsChanged(slots []checkpoint.Slot) {
	msg := SlotsChanged{Slots: slots}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- msg:
		default:
			// Replace the stale list nobody has read yet.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- msg:
			default:
			}
		}
	}
}

// Close stops notifications and closes every subscriber channel.
func (s *Session) Close() {
	s.unregister()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
