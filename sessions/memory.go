package sessions

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is a process-local Store for single-node runs and tests.
type Memory struct {
	mu       sync.RWMutex
	bindings map[string]uuid.UUID
}

func NewMemory() *Memory {
	return &Memory{bindings: make(map[string]uuid.UUID)}
}

func (m *Memory) Get(_ context.Context, token string) (uuid.UUID, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	orderID, ok := m.bindings[token]
	return orderID, ok, nil
}

func (m *Memory) Bind(_ context.Context, token string, orderID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[token] = orderID
	return nil
}

func (m *Memory) Clear(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bindings, token)
	return nil
}
