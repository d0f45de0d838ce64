package artifact

import (
	"slices"
	"strings"
	"sync"
)

// InMemoryStore is an in-process ArtifactStore. Data is copied on save and
// retrieval so callers cannot mutate stored buffers.
//
// Layout: matchID -> name -> raw bytes
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]map[string][]byte
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[string]map[string][]byte)}
}

// Save stores (or overwrites) the artifact bytes for the given match and name.
func (a *InMemoryStore) Save(matchID, name string, data []byte) error {
	if err := validate(matchID, name); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.artifacts[matchID]; !exists {
		a.artifacts[matchID] = make(map[string][]byte)
	}
	a.artifacts[matchID][name] = slices.Clone(data)

	return nil
}

// Get returns a copy of the stored artifact bytes or ErrNotFound.
func (a *InMemoryStore) Get(matchID, name string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	data, ok := a.artifacts[matchID][name]
	if !ok {
		return nil, ErrNotFound
	}

	return slices.Clone(data), nil
}

// List returns the sorted artifact names stored for the match.
func (a *InMemoryStore) List(matchID string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.artifacts[matchID]))
	for name := range a.artifacts[matchID] {
		names = append(names, name)
	}
	slices.Sort(names)

	return names, nil
}

// Delete removes the artifact if present or returns ErrNotFound.
func (a *InMemoryStore) Delete(matchID, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, ok := a.artifacts[matchID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m[name]; !ok {
		return ErrNotFound
	}
	delete(m, name)

	if len(m) == 0 {
		delete(a.artifacts, matchID)
	}

	return nil
}

func validate(matchID, name string) error {
	for _, s := range []string{matchID, name} {
		if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
			return ErrInvalidName
		}
	}
	return nil
}
