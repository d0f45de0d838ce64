package core

import "slices"

// ResolvedRound is the outcome of collapsing every decision of a round into a
// single consistent plan. It is produced by the resolver and applied exactly
// once by the match.
type ResolvedRound struct {
	Round          int                    `json:"round"`
	Decisions      []Decision             `json:"decisions"`
	Tentative      map[AgentID]Position   `json:"tentative"`
	FinalPositions map[AgentID]Position   `json:"final_positions"`
	Collected      map[AgentID]ItemKind   `json:"collected"` // absent key means nothing collected
	Bumped         map[AgentID]bool       `json:"bumped"`
	ClearedItems   []Position             `json:"cleared_items"`
	Overlaps       map[Position][]AgentID `json:"-"` // cells shared after an exhausted relocation
}

// BumpedIDs returns the bumped agents in ascending id order.
func (r ResolvedRound) BumpedIDs() []AgentID {
	out := make([]AgentID, 0, len(r.Bumped))
	for id, b := range r.Bumped {
		if b {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Phase is the state of a match's round state machine.
type Phase int

const (
	// PhaseIdle waits for the next round to start.
	PhaseIdle Phase = iota
	// PhaseAwaitingDecisions has requests in flight.
	PhaseAwaitingDecisions
	// PhaseResolving runs the resolver and applies its plan.
	PhaseResolving
	// PhaseFinished is terminal (win or draw).
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingDecisions:
		return "awaiting_decisions"
	case PhaseResolving:
		return "resolving"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Outcome describes how a match ended.
type Outcome struct {
	Finished bool   `json:"finished"`
	Draw     bool   `json:"draw"`
	Winner   TeamID `json:"winner"` // meaningful only when Finished && !Draw
	Rounds   int    `json:"rounds"`
}
