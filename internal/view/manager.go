package view

import (
	"sync"

	"github.com/kurobon/gitsavegame/internal/checkpoint"
)

// Manager handles concurrent access to view sessions.
type Manager struct {
	controller      *checkpoint.Controller
	defaultCapacity int

	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewManager creates a manager whose sessions default to defaultCapacity slots.
func NewManager(c *checkpoint.Controller, defaultCapacity int) *Manager {
	return &Manager{
		controller:      c,
		defaultCapacity: defaultCapacity,
		sessions:        make(map[string]*Session),
	}
}

// Controller returns the controller shared by all sessions.
func (m *Manager) Controller() *checkpoint.Controller {
	return m.controller
}

// CreateSession opens a session, or returns the existing one with that id.
// A non-positive capacity selects the configured default; capacities above
// checkpoint.MaxCapacity are clamped.
func (m *Manager) CreateSession(id string, capacity int) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, exists := m.sessions[id]; exists {
		return s
	}
	if capacity <= 0 {
		capacity = m.defaultCapacity
	}
	capacity = checkpoint.ClampCapacity(capacity)
	s := newSession(id, capacity, m.controller)
	m.sessions[id] = s
	return s
}

// GetSession retrieves a session by id.
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// CloseSession closes and forgets a session. Unknown ids are ignored.
func (m *Manager) CloseSession(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
