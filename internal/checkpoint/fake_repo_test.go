package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// fakeRepo is a scripted in-memory engine that records every call.
type fakeRepo struct {
	mu       sync.Mutex
	isRepo   bool
	clean    bool
	history  []Checkpoint // most recent first
	calls    []string
	failOn   map[string]error
	statusFn func() (bool, error)
	seq      int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{isRepo: true, clean: true, failOn: map[string]error{}}
}

func (f *fakeRepo) record(call string) error {
	f.calls = append(f.calls, call)
	for prefix, err := range f.failOn {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			return err
		}
	}
	return nil
}

func (f *fakeRepo) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRepo) IsRepository(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("isRepository"); err != nil {
		return false, err
	}
	return f.isRepo, nil
}

func (f *fakeRepo) Init(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("init"); err != nil {
		return err
	}
	f.isRepo = true
	return nil
}

func (f *fakeRepo) Stage(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("stage " + path)
}

func (f *fakeRepo) Commit(_ context.Context, label string) (Checkpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("commit " + label); err != nil {
		return Checkpoint{}, err
	}
	f.seq++
	cp := Checkpoint{
		ID:        fmt.Sprintf("c%d", f.seq),
		Label:     label,
		Timestamp: time.Date(2026, 10, 19, 12, f.seq, 0, 0, time.UTC),
	}
	f.history = append([]Checkpoint{cp}, f.history...)
	f.clean = true
	return cp, nil
}

func (f *fakeRepo) Log(_ context.Context, maxCount int) ([]Checkpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(fmt.Sprintf("log %d", maxCount)); err != nil {
		return nil, err
	}
	n := min(maxCount, len(f.history))
	return append([]Checkpoint(nil), f.history[:n]...), nil
}

func (f *fakeRepo) IsClean(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("status"); err != nil {
		return false, err
	}
	if f.statusFn != nil {
		return f.statusFn()
	}
	return f.clean, nil
}

func (f *fakeRepo) HardReset(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("reset " + id); err != nil {
		return err
	}
	for i, cp := range f.history {
		if cp.ID == id {
			f.history = f.history[i:]
			f.clean = true
			return nil
		}
	}
	return errors.New("reference not found")
}

// scriptedConfirmer records how often each prompt was shown.
type scriptedConfirmer struct {
	choice     DirtyChoice
	label      string
	confirmErr error
	labelErr   error
	asked      int
	labelAsked int
}

func (s *scriptedConfirmer) ConfirmDirty(context.Context) (DirtyChoice, error) {
	s.asked++
	return s.choice, s.confirmErr
}

func (s *scriptedConfirmer) SaveLabel(context.Context) (string, error) {
	s.labelAsked++
	return s.label, s.labelErr
}

type recordingListener struct {
	mu     sync.Mutex
	pushes [][]Slot
}

func (r *recordingListener) SlotsChanged(slots []Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, slots)
}

func (r *recordingListener) Last() []Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pushes) == 0 {
		return nil
	}
	return r.pushes[len(r.pushes)-1]
}

func (r *recordingListener) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pushes)
}
