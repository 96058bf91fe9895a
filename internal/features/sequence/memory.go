package sequence

import (
	"context"
	"sync"
)

// InMemory is a map-backed CounterRepository used by tests.
type InMemory struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func NewInMemory() *InMemory {
	return &InMemory{seqs: make(map[string]int64)}
}

func (m *InMemory) Increment(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seqs[key]++
	return m.seqs[key], nil
}
