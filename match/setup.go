package match

import (
	"fmt"

	"github.com/hupe1980/minionmesh/config"
	"github.com/hupe1980/minionmesh/core"
)

// buildRoster creates agents and teams from the configuration. Agent ids are
// assigned densely in team order, then declaration order.
func buildRoster(cfg *config.Config) ([]*core.Agent, []*core.Team) {
	agents := make([]*core.Agent, 0, cfg.AgentCount())
	teams := make([]*core.Team, 0, len(cfg.Teams))

	for ti, tc := range cfg.Teams {
		team := &core.Team{ID: core.TeamID(ti), Name: tc.Name, Targets: map[core.ItemKind]int{}}
		for _, ac := range tc.Agents {
			id := core.AgentID(len(agents))
			name := ac.Name
			if name == "" {
				name = fmt.Sprintf("minion-%d", id)
			}
			agents = append(agents, &core.Agent{
				ID:          id,
				Name:        name,
				TeamID:      team.ID,
				Position:    ac.Spawn,
				Power:       ac.Power,
				Spawn:       ac.Spawn,
				Personality: ac.Personality,
			})
			team.Members = append(team.Members, id)
		}
		teams = append(teams, team)
	}

	return agents, teams
}

// AgentIDs returns the ids New assigns to the agents of cfg, keyed by team
// index and then agent index within the team.
func AgentIDs(cfg *config.Config) [][]core.AgentID {
	out := make([][]core.AgentID, len(cfg.Teams))
	next := core.AgentID(0)
	for ti, tc := range cfg.Teams {
		for range tc.Agents {
			out[ti] = append(out[ti], next)
			next++
		}
	}
	return out
}

// drawTargets fills each team's target multiset, either from explicit counts
// or by drawing RandomTargets kinds uniformly from the catalog.
func drawTargets(cfg *config.Config, catalog core.Catalog, teams []*core.Team, rnd core.Rand) {
	for ti, tc := range cfg.Teams {
		targets := map[core.ItemKind]int{}
		if len(tc.Targets) > 0 {
			for name, n := range tc.Targets {
				if kind, ok := catalog.Lookup(name); ok && n > 0 {
					targets[kind] = n
				}
			}
		} else if len(catalog) > 0 {
			for i := 0; i < tc.RandomTargets; i++ {
				targets[core.ItemKind(rnd.IntN(len(catalog))+1)]++
			}
		}
		teams[ti].Targets = targets
	}
}

// buildGrid places agent markers at their spawn points and scatters the
// configured items over the remaining cells.
func buildGrid(cfg *config.Config, catalog core.Catalog, agents []*core.Agent, rnd core.Rand) (*core.Grid, error) {
	grid := core.NewGrid(cfg.Rows, cfg.Cols)

	for _, a := range agents {
		if err := grid.Set(a.Spawn, core.AgentCell(a.ID)); err != nil {
			return nil, fmt.Errorf("agent %d spawn: %w", a.ID, err)
		}
	}

	free := make([]core.Position, 0, cfg.Rows*cfg.Cols)
	grid.Each(func(p core.Position, c core.Cell) {
		if c.IsEmpty() {
			free = append(free, p)
		}
	})
	rnd.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

	next := 0
	for i, it := range cfg.Items {
		kind := core.ItemKind(i + 1)
		for n := 0; n < it.Count; n++ {
			if next >= len(free) {
				return nil, fmt.Errorf("no free cell left for %s", catalog.Name(kind))
			}
			if err := grid.Set(free[next], core.ItemCell(kind)); err != nil {
				return nil, err
			}
			next++
		}
	}

	return grid, nil
}
