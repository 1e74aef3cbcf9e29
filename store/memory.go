package store

import (
	"context"
	"sync"
)

// MemoryRepository keeps state in process memory only
type MemoryRepository struct {
	state *State
	mu    sync.Mutex
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Load(_ context.Context) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return DefaultState(), nil
	}
	return m.state.Clone(), nil
}

func (m *MemoryRepository) Save(_ context.Context, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state.Clone()
	return nil
}

func (m *MemoryRepository) Close() error { return nil }
