package server

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("server: session not found")

// Manager tracks active sessions and coordinates creation/lookup.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[uuid.UUID]*Session)}
}

func (m *Manager) NewSession() *Session {
	session := NewSession(uuid.New())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID()] = session
	return session
}

func (m *Manager) Lookup(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (m *Manager) Close(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[id]; ok {
		session.Close()
		delete(m.sessions, id)
	}
}

func (m *Manager) ActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
