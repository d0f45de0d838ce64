package history

import (
	"errors"
	"sync"

	"github.com/hupe1980/minionmesh/core"
)

// ErrEmptyMatchID is returned when an event is recorded without a match id.
var ErrEmptyMatchID = errors.New("history: empty match id")

// InMemoryStore is a volatile HistoryStore storing events in a process local
// map keyed by match id. It is safe for concurrent access. Returned slices are
// copies so callers cannot mutate recorded history.
type InMemoryStore struct {
	mu      sync.RWMutex
	matches map[string][]core.Event
}

// NewInMemoryStore constructs an empty in-memory history store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{matches: make(map[string][]core.Event)}
}

// Append records an event for the match.
func (s *InMemoryStore) Append(matchID string, ev core.Event) error {
	if matchID == "" {
		return ErrEmptyMatchID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.matches[matchID] = append(s.matches[matchID], cloneEvent(ev))

	return nil
}

// Events returns every event recorded for the match in append order. Unknown
// matches yield an empty slice.
func (s *InMemoryStore) Events(matchID string) ([]core.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evs := s.matches[matchID]
	out := make([]core.Event, len(evs))
	for i, ev := range evs {
		out[i] = cloneEvent(ev)
	}

	return out, nil
}

// Rounds returns the resolved rounds recorded for the match in order.
func (s *InMemoryStore) Rounds(matchID string) ([]core.ResolvedRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.ResolvedRound
	for _, ev := range s.matches[matchID] {
		if ev.Type == core.EventRoundResolved && ev.Resolved != nil {
			out = append(out, *ev.Resolved)
		}
	}

	return out, nil
}

// Clear drops everything recorded for the match.
func (s *InMemoryStore) Clear(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.matches, matchID)
}

// cloneEvent copies the pointer payloads of an event. The resolved round's
// maps are shared; events are treated as immutable once emitted.
func cloneEvent(ev core.Event) core.Event {
	if ev.Resolved != nil {
		r := *ev.Resolved
		ev.Resolved = &r
	}
	if ev.Outcome != nil {
		o := *ev.Outcome
		ev.Outcome = &o
	}
	return ev
}
