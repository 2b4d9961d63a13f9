// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/kozaktomas/photo-map/internal/database"
)

// MockMediaIndex is an in-memory implementation of database.MediaWriter
type MockMediaIndex struct {
	mu      sync.RWMutex
	entries map[string]database.MediaEntry

	// Error injection
	RegisterError  error
	ListPathsError error
	GetError       error
	CountError     error
	RemoveError    error
}

var _ database.MediaWriter = (*MockMediaIndex)(nil)

// NewMockMediaIndex creates a new empty mock media index
func NewMockMediaIndex() *MockMediaIndex {
	return &MockMediaIndex{
		entries: make(map[string]database.MediaEntry),
	}
}

// Register stores an entry after the same normalisation the real backends apply
func (m *MockMediaIndex) Register(ctx context.Context, entry database.MediaEntry) error {
	if m.RegisterError != nil {
		return m.RegisterError
	}
	entry, err := entry.Normalize()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Path] = entry
	return nil
}

// ListPaths returns paths newest first, ties broken by path
func (m *MockMediaIndex) ListPaths(ctx context.Context) ([]string, error) {
	if m.ListPathsError != nil {
		return nil, m.ListPathsError
	}
	m.mu.RLock()
	entries := make([]database.MediaEntry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	slices.SortFunc(entries, func(a, b database.MediaEntry) int {
		if c := b.DateAdded.Compare(a.DateAdded); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths, nil
}

// Get retrieves an entry by path
func (m *MockMediaIndex) Get(ctx context.Context, path string) (*database.MediaEntry, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[path]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// Count returns the number of entries
func (m *MockMediaIndex) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Remove deletes the entry for path
func (m *MockMediaIndex) Remove(ctx context.Context, path string) error {
	if m.RemoveError != nil {
		return m.RemoveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, path)
	return nil
}
