package memory

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of entries kept per key when no capacity is configured.
const DefaultCapacity = 16

// ErrEmptyKey is returned when storing under an empty key.
var ErrEmptyKey = errors.New("memory: empty key")

// Entry is one remembered note.
type Entry struct {
	ID       string         `json:"id"`
	Round    int            `json:"round"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (e Entry) clone() Entry {
	if e.Metadata != nil {
		md := make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			md[k] = v
		}
		e.Metadata = md
	}
	return e
}

// Options configure an InMemoryStore.
type Options struct {
	// Capacity bounds the entries kept per key; the oldest are evicted first.
	Capacity int
}

// InMemoryStore is a process-local ring of notes per key.
//
// Concurrency: protected by RWMutex.
// Search: linear scan with case-insensitive substring matching.
type InMemoryStore struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string][]Entry // key -> entries, oldest first
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{
		Capacity: DefaultCapacity,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}

	return &InMemoryStore{
		capacity: opts.Capacity,
		entries:  make(map[string][]Entry),
	}
}

// Store appends a note for key and returns its generated id.
func (m *InMemoryStore) Store(key string, round int, content string, metadata map[string]any) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	e := Entry{ID: uuid.NewString(), Round: round, Content: content, Metadata: metadata}.clone()

	m.mu.Lock()
	defer m.mu.Unlock()

	list := append(m.entries[key], e)
	if over := len(list) - m.capacity; over > 0 {
		list = append([]Entry(nil), list[over:]...)
	}
	m.entries[key] = list

	return e.ID, nil
}

// Recent returns up to limit notes for key recorded before round, oldest first.
// A negative round disables the round filter.
func (m *InMemoryStore) Recent(key string, round, limit int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Entry
	for _, e := range m.entries[key] {
		if round >= 0 && e.Round >= round {
			continue
		}
		out = append(out, e.clone())
	}

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}

	return out
}

// Search returns notes for key whose content contains query, newest first.
// An empty query matches everything.
func (m *InMemoryStore) Search(key, query string, limit int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(query)
	list := m.entries[key]
	out := make([]Entry, 0, len(list))

	for i := len(list) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if q == "" || strings.Contains(strings.ToLower(list[i].Content), q) {
			out = append(out, list[i].clone())
		}
	}

	return out
}

// Clear forgets every note for key.
func (m *InMemoryStore) Clear(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}
