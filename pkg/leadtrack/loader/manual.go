package loader

import (
	"context"
	"sync"
)

// Manual records load requests and fires them on demand, letting callers
// control exactly when each destination becomes available.
type Manual struct {
	mu      sync.Mutex
	pending map[string]func()
	loaded  []Script
}

// NewManual creates a Manual loader.
func NewManual() *Manual {
	return &Manual{pending: make(map[string]func())}
}

// Load records the request without firing it.
func (m *Manual) Load(_ context.Context, s Script, ready func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[s.Global] = ready
	m.loaded = append(m.loaded, s)
}

// Fire runs the pending ready callback for global. It returns false if no
// load is pending for it.
func (m *Manual) Fire(global string) bool {
	m.mu.Lock()
	ready, ok := m.pending[global]
	delete(m.pending, global)
	m.mu.Unlock()

	if !ok {
		return false
	}
	ready()
	return true
}

// Requests returns the scripts Load was called with, in order.
func (m *Manual) Requests() []Script {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Script, len(m.loaded))
	copy(out, m.loaded)
	return out
}
