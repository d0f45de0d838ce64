package core

// AgentID identifies an agent within a match. IDs are dense and start at 0.
type AgentID int

// TeamID identifies a team within a match. IDs are dense and start at 0.
type TeamID int

// Personality carries the flavor traits of a minion. The engine never reads
// them; providers may use them to shape decisions and dialogue.
type Personality struct {
	Style        string  `json:"style" yaml:"style"`
	Intelligence int     `json:"intelligence" yaml:"intelligence"`
	Obedience    float64 `json:"obedience" yaml:"obedience"`
}

// Agent is the mutable record of one minion. Power is fixed at creation and is
// the sole arbitration key when agents collide.
type Agent struct {
	ID          AgentID     `json:"id"`
	Name        string      `json:"name"`
	TeamID      TeamID      `json:"team_id"`
	Position    Position    `json:"position"`
	Power       int         `json:"power"`
	Spawn       Position    `json:"spawn"`
	Collected   []ItemKind  `json:"collected"`
	Personality Personality `json:"personality"`
}

// Clone returns a deep copy of the agent.
func (a *Agent) Clone() *Agent {
	c := *a
	c.Collected = append([]ItemKind(nil), a.Collected...)
	return &c
}

// Team groups agents that share a target multiset and win together.
type Team struct {
	ID      TeamID           `json:"id"`
	Name    string           `json:"name"`
	Members []AgentID        `json:"members"`
	Targets map[ItemKind]int `json:"targets"`
}

// Clone returns a deep copy of the team.
func (t *Team) Clone() *Team {
	c := *t
	c.Members = append([]AgentID(nil), t.Members...)
	c.Targets = make(map[ItemKind]int, len(t.Targets))
	for k, v := range t.Targets {
		c.Targets[k] = v
	}
	return &c
}

// CountItems tallies a collected sequence into a multiset.
func CountItems(items []ItemKind) map[ItemKind]int {
	out := make(map[ItemKind]int, len(items))
	for _, it := range items {
		out[it]++
	}
	return out
}

// Satisfies reports whether collected covers every required count in targets.
// An empty target multiset is never satisfied so a team without goals cannot win.
func Satisfies(targets map[ItemKind]int, collected map[ItemKind]int) bool {
	if len(targets) == 0 {
		return false
	}
	for kind, need := range targets {
		if collected[kind] < need {
			return false
		}
	}
	return true
}

// Missing returns how many of each target kind are still required.
func Missing(targets map[ItemKind]int, collected map[ItemKind]int) map[ItemKind]int {
	out := map[ItemKind]int{}
	for kind, need := range targets {
		if d := need - collected[kind]; d > 0 {
			out[kind] = d
		}
	}
	return out
}
