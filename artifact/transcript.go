package artifact

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/minionmesh/core"
)

// TranscriptName is the artifact name of a finished match's transcript.
const TranscriptName = "transcript.json"

// Transcript is the exported record of one match.
type Transcript struct {
	MatchID    string               `json:"match_id"`
	ExportedAt time.Time            `json:"exported_at"`
	Outcome    core.Outcome         `json:"outcome"`
	Rounds     []core.ResolvedRound `json:"rounds"`
}

// NewTranscript builds a transcript from the events of one match. The outcome
// is taken from the last finished event, if any.
func NewTranscript(matchID string, events []core.Event) Transcript {
	t := Transcript{
		MatchID:    matchID,
		ExportedAt: time.Now().UTC(),
		Rounds:     []core.ResolvedRound{},
	}

	for _, ev := range events {
		switch {
		case ev.Type == core.EventMatchReset:
			t.Rounds = t.Rounds[:0]
			t.Outcome = core.Outcome{}
		case ev.Type == core.EventRoundResolved && ev.Resolved != nil:
			t.Rounds = append(t.Rounds, *ev.Resolved)
		case ev.Type == core.EventMatchFinished && ev.Outcome != nil:
			t.Outcome = *ev.Outcome
		}
	}

	return t
}

// SaveTranscript encodes the transcript of matchID and stores it under
// TranscriptName.
func SaveTranscript(store core.ArtifactStore, matchID string, events []core.Event) error {
	raw, err := json.MarshalIndent(NewTranscript(matchID, events), "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	return store.Save(matchID, TranscriptName, raw)
}

// LoadTranscript reads back a transcript saved by SaveTranscript.
func LoadTranscript(store core.ArtifactStore, matchID string) (Transcript, error) {
	raw, err := store.Get(matchID, TranscriptName)
	if err != nil {
		return Transcript{}, err
	}

	var t Transcript
	if err := json.Unmarshal(raw, &t); err != nil {
		return Transcript{}, fmt.Errorf("decode transcript: %w", err)
	}

	return t, nil
}
