package match

import "github.com/hupe1980/minionmesh/core"

// View is a deep, read-only copy of the match for presentation layers.
type View struct {
	MatchID       string                                `json:"match_id"`
	Round         int                                   `json:"round"`
	MaxRounds     int                                   `json:"max_rounds"`
	Phase         core.Phase                            `json:"phase"`
	Grid          *core.Grid                            `json:"-"`
	Catalog       core.Catalog                          `json:"catalog"`
	Agents        []core.Agent                          `json:"agents"`
	Teams         []core.Team                           `json:"teams"`
	TeamCollected map[core.TeamID]map[core.ItemKind]int `json:"team_collected"`
	Outcome       core.Outcome                          `json:"outcome"`
}

// View returns a snapshot safe to read from any goroutine.
func (m *Match) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v := View{
		MatchID:       m.id,
		Round:         m.round,
		MaxRounds:     m.maxRounds,
		Phase:         m.phase,
		Grid:          m.grid.Clone(),
		Catalog:       append(core.Catalog(nil), m.catalog...),
		Agents:        make([]core.Agent, 0, len(m.agents)),
		Teams:         make([]core.Team, 0, len(m.teams)),
		TeamCollected: m.teamTotals(),
		Outcome:       m.outcome,
	}

	for _, a := range m.agents {
		v.Agents = append(v.Agents, *a.Clone())
	}
	for _, t := range m.teams {
		v.Teams = append(v.Teams, *t.Clone())
	}

	return v
}

// Agent returns a copy of one agent record.
func (v View) Agent(id core.AgentID) (core.Agent, bool) {
	for _, a := range v.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return core.Agent{}, false
}
