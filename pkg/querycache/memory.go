package querycache

import (
	"context"
	"sync"
)

type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[Scope]map[string]Entry
}

var _ Backend = (*MemoryBackend)(nil)

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: map[Scope]map[string]Entry{}}
}

func (m *MemoryBackend) Get(_ context.Context, scope Scope, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[scope][key]
	return e, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.entries[e.Scope]
	if !ok {
		bucket = map[string]Entry{}
		m.entries[e.Scope] = bucket
	}
	bucket[e.Key] = e
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, scope Scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries[scope], key)
	return nil
}

func (m *MemoryBackend) DeleteScope(_ context.Context, scope Scope) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries[scope])
	delete(m.entries, scope)
	return n, nil
}

// Len returns the number of stored entries of scope.
func (m *MemoryBackend) Len(scope Scope) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries[scope])
}
