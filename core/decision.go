package core

import "context"

// Flavor is opaque text accompanying a decision. The engine passes it through
// to observers untouched.
type Flavor struct {
	Dialogue string `json:"dialogue,omitempty"`
	Thought  string `json:"thought,omitempty"`
	Strategy string `json:"strategy,omitempty"`
}

// Decision is the move one agent chose for one round.
type Decision struct {
	AgentID  AgentID `json:"agent_id"`
	Round    int     `json:"round"`
	Move     Move    `json:"move"`
	Flavor   Flavor  `json:"flavor"`
	Fallback bool    `json:"fallback,omitempty"` // substituted after a provider failure or timeout
}

// FallbackFlavor is attached to decisions synthesized for failed or silent providers.
var FallbackFlavor = Flavor{
	Dialogue: "Hmm, I need to think...",
	Thought:  "My guide's instructions are unclear.",
}

// FallbackDecision returns the deterministic Stay decision used whenever a
// provider errors, panics, returns garbage or exceeds its deadline.
func FallbackDecision(id AgentID, round int) Decision {
	return Decision{AgentID: id, Round: round, Move: MoveStay, Flavor: FallbackFlavor, Fallback: true}
}

// AgentView is the immutable per-agent context handed to a provider.
type AgentView struct {
	ID          AgentID          `json:"id"`
	Name        string           `json:"name"`
	TeamID      TeamID           `json:"team_id"`
	Position    Position         `json:"position"`
	Power       int              `json:"power"`
	Personality Personality      `json:"personality"`
	Collected   []ItemKind       `json:"collected"`      // this agent's own collection
	TeamTotals  map[ItemKind]int `json:"team_collected"` // pooled team collection
	Targets     map[ItemKind]int `json:"targets"`        // team target multiset
	Teammates   []AgentID        `json:"teammates"`      // other members of the team
	Hint        string           `json:"hint,omitempty"`
}

// DecisionRequest is the snapshot a provider decides on. Grid is a private
// copy; providers may read it freely but mutations are never observed.
type DecisionRequest struct {
	Round   int       `json:"round"`
	Agent   AgentView `json:"agent"`
	Grid    *Grid     `json:"-"`
	Catalog Catalog   `json:"catalog"`
}

// DecisionProvider is the external oracle producing an agent's move. Decide may
// block for an arbitrary time; implementations should honor ctx cancellation
// but callers never rely on it.
type DecisionProvider interface {
	Decide(ctx context.Context, req DecisionRequest) (Decision, error)
}

// ProviderFunc adapts an ordinary function to DecisionProvider.
type ProviderFunc func(ctx context.Context, req DecisionRequest) (Decision, error)

// Decide implements DecisionProvider.
func (f ProviderFunc) Decide(ctx context.Context, req DecisionRequest) (Decision, error) {
	return f(ctx, req)
}
