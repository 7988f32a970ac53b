package tokenstore

import (
	"context"
	"sync"
)

// Memory is an in-memory Store. Sessions do not survive process restarts;
// intended for tests and ephemeral demo runs.
type Memory struct {
	mu      sync.Mutex
	session *Session
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Save replaces the stored session.
func (m *Memory) Save(_ context.Context, s *Session) error {
	if s == nil {
		return ErrNilSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	m.session = &cp
	return nil
}

// Load returns a copy of the stored session, or ErrNotFound.
func (m *Memory) Load(_ context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil, ErrNotFound
	}
	cp := *m.session
	return &cp, nil
}

// Clear removes the stored session.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = nil
	return nil
}
