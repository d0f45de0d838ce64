package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies a match event.
type EventType string

const (
	// EventRoundStarted is emitted once decision requests are in flight.
	EventRoundStarted EventType = "round_started"
	// EventRoundResolved carries the resolved plan after it was applied.
	EventRoundResolved EventType = "round_resolved"
	// EventMatchFinished carries the terminal outcome.
	EventMatchFinished EventType = "match_finished"
	// EventMatchReset marks a rebuilt board.
	EventMatchReset EventType = "match_reset"
)

// Event is the observable record of something that happened in a match. After
// emission it should be treated as immutable. Payload fields are optional and
// populated according to Type.
type Event struct {
	ID        string         `json:"id"`
	MatchID   string         `json:"match_id"`
	Type      EventType      `json:"type"`
	Round     int            `json:"round"`
	Timestamp time.Time      `json:"timestamp"`
	Resolved  *ResolvedRound `json:"resolved,omitempty"`
	Outcome   *Outcome       `json:"outcome,omitempty"`
}

// NewEvent creates a bare event bound to a match and round.
func NewEvent(matchID string, typ EventType, round int) Event {
	return Event{
		ID:        NewID(),
		MatchID:   matchID,
		Type:      typ,
		Round:     round,
		Timestamp: time.Now().UTC(),
	}
}

// NewResolvedEvent wraps a resolved round.
func NewResolvedEvent(matchID string, resolved ResolvedRound) Event {
	e := NewEvent(matchID, EventRoundResolved, resolved.Round)
	e.Resolved = &resolved
	return e
}

// NewFinishedEvent wraps a terminal outcome.
func NewFinishedEvent(matchID string, outcome Outcome) Event {
	e := NewEvent(matchID, EventMatchFinished, outcome.Rounds)
	e.Outcome = &outcome
	return e
}

// NewID generates a new unique identifier for matches, tickets and events.
func NewID() string { return uuid.NewString() }

// HistoryStore records the events of matches. Implementations must be safe for
// concurrent use; Events returns a defensive copy.
type HistoryStore interface {
	Append(matchID string, ev Event) error
	Events(matchID string) ([]Event, error)
}

// ArtifactStore keeps named binary artifacts per match, such as exported
// transcripts. Implementations copy data on Save and Get.
type ArtifactStore interface {
	Save(matchID, name string, data []byte) error
	Get(matchID, name string) ([]byte, error)
	List(matchID string) ([]string, error)
	Delete(matchID, name string) error
}
