package graph

import (
	"context"
	"sort"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using a map. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu     sync.RWMutex
	graphs map[string]CodeGraph
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{graphs: make(map[string]CodeGraph)}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// SaveGraph stores g under file, replacing any earlier snapshot. CodeGraph
// is immutable, so no copy is needed.
func (m *MemStore) SaveGraph(_ context.Context, file string, g CodeGraph) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graphs[file] = g
	return nil
}

// LoadGraph returns the snapshot for file.
func (m *MemStore) LoadGraph(_ context.Context, file string) (CodeGraph, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.graphs[file]
	return g, ok, nil
}

// Files returns the stored file names, sorted.
func (m *MemStore) Files(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.graphs))
	for f := range m.graphs {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

// Stats sums node and edge counts over every snapshot.
func (m *MemStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var st Stats
	for _, g := range m.graphs {
		s := g.Stats()
		st.NodeCount += s.NodeCount
		st.EdgeCount += s.EdgeCount
	}
	return &st, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
