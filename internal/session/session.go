package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session represents one listening session. There is no credential check
// here; who may start a session is a presentation concern.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	StartedAt time.Time `json:"startedAt"`
}

// Manager holds the single active session and runs end hooks when it
// closes, so session-scoped state (playback cursor, polling) gets reset in
// one place instead of living as ambient globals.
type Manager struct {
	mutex   sync.Mutex
	current *Session
	onEnd   []func()
}

// NewManager creates a manager with no active session.
func NewManager() *Manager {
	return &Manager{}
}

// OnEnd registers a hook that runs whenever a session ends.
func (m *Manager) OnEnd(hook func()) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.onEnd = append(m.onEnd, hook)
}

// Begin starts a session for the user, superseding (and ending) any active
// one.
func (m *Manager) Begin(username string) *Session {
	m.mutex.Lock()
	hadPrevious := m.current != nil
	m.mutex.Unlock()
	if hadPrevious {
		m.End()
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.current = &Session{
		ID:        uuid.New().String(),
		Username:  username,
		StartedAt: time.Now(),
	}
	return m.current
}

// Current returns the active session, or nil.
func (m *Manager) Current() *Session {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.current
}

// End closes the active session and runs the end hooks. Ending when no
// session is active is a no-op.
func (m *Manager) End() {
	m.mutex.Lock()
	if m.current == nil {
		m.mutex.Unlock()
		return
	}
	m.current = nil
	hooks := make([]func(), len(m.onEnd))
	copy(hooks, m.onEnd)
	m.mutex.Unlock()

	for _, hook := range hooks {
		hook()
	}
}
