package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store implementation for tests and development.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]string
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]string)}
}

// GetState returns the user's state tag or ErrNotFound.
func (m *MemoryStore) GetState(_ context.Context, userID string) (State, error) {
	m.mu.RLock()
	raw, ok := m.states[userID]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	return ParseState(raw)
}

// SetState persists the state tag for the user.
func (m *MemoryStore) SetState(_ context.Context, userID string, st State) error {
	m.mu.Lock()
	m.states[userID] = string(st)
	m.mu.Unlock()
	return nil
}

// Reset removes the persisted state for the user.
func (m *MemoryStore) Reset(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.states, userID)
	m.mu.Unlock()
	return nil
}

// Put stores a raw tag without validation. Tests use it to simulate
// corrupt or legacy values.
func (m *MemoryStore) Put(userID, raw string) {
	m.mu.Lock()
	m.states[userID] = raw
	m.mu.Unlock()
}
