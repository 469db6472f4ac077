package umigame

import (
	"sync"

	"github.com/hazuki-dev/yomiko/llm"
)

// Manager holds at most one running session per guild. Starting a new game
// replaces the previous session.
type Manager struct {
	generator llm.Generator

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager backed by the given generator.
func NewManager(generator llm.Generator) *Manager {
	return &Manager{
		generator: generator,
		sessions:  make(map[string]*Session),
	}
}

// Start creates a fresh session for guildID, discarding any previous one.
func (m *Manager) Start(guildID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := NewSession(m.generator)
	m.sessions[guildID] = s
	return s
}

// Get returns the running session for guildID, if any.
func (m *Manager) Get(guildID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[guildID]
	return s, ok
}

// End removes the session for guildID.
func (m *Manager) End(guildID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, guildID)
}
