package resolve

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/hupe1980/minionmesh/core"
	"github.com/hupe1980/minionmesh/logging"
)

// Options configures a Resolver.
type Options struct {
	// Rand drives equal-power tie-breaks and neighbor order. Inject a seeded
	// source to make arbitration reproducible.
	Rand core.Rand
	// Logger receives resolution summaries and relocation anomalies.
	Logger logging.Logger
}

// Resolver collapses the decisions of a round into a ResolvedRound. A Resolver
// is meant to be driven from a single goroutine (the match's host thread).
type Resolver struct {
	rand   core.Rand
	logger logging.Logger
}

// New creates a Resolver. Without an injected Rand a time-seeded source is used.
func New(optFns ...func(o *Options)) *Resolver {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Rand == nil {
		opts.Rand = core.NewRand(time.Now().UnixNano())
	}

	return &Resolver{rand: opts.Rand, logger: opts.Logger}
}

// Intent pairs an agent (read only) with the decision it made this round.
type Intent struct {
	Agent    *core.Agent
	Decision core.Decision
}

// Resolve computes the plan for one round. grid is the pre-round board and is
// only read. It panics if the sequential-claim invariant is broken, which can
// only happen through a bug in this package.
func (r *Resolver) Resolve(grid *core.Grid, round int, intents []Intent) core.ResolvedRound {
	start := time.Now()

	ordered := make([]Intent, len(intents))
	copy(ordered, intents)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Agent.ID < ordered[j].Agent.ID })

	agents := make(map[core.AgentID]*core.Agent, len(ordered))
	res := core.ResolvedRound{
		Round:          round,
		Decisions:      make([]core.Decision, 0, len(ordered)),
		Tentative:      make(map[core.AgentID]core.Position, len(ordered)),
		FinalPositions: make(map[core.AgentID]core.Position, len(ordered)),
		Collected:      map[core.AgentID]core.ItemKind{},
		Bumped:         map[core.AgentID]bool{},
		Overlaps:       map[core.Position][]core.AgentID{},
	}

	// 1. tentative move + 2. grouping
	groups := map[core.Position][]core.AgentID{}
	for _, in := range ordered {
		a := in.Agent
		agents[a.ID] = a
		res.Decisions = append(res.Decisions, in.Decision)

		target := tentative(grid, a.Position, in.Decision.Move)
		res.Tentative[a.ID] = target
		groups[target] = append(groups[target], a.ID)
	}

	// 3. arbitration; contested cells are visited row-major so that random
	// draws happen in a reproducible order for a fixed seed.
	cells := make([]core.Position, 0, len(groups))
	for cell, ids := range groups {
		if len(ids) > 1 {
			cells = append(cells, cell)
		}
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Less(cells[j]) })

	for _, cell := range cells {
		claimants := groups[cell]
		r.rand.Shuffle(len(claimants), func(i, j int) { claimants[i], claimants[j] = claimants[j], claimants[i] })
		sort.SliceStable(claimants, func(i, j int) bool {
			return agents[claimants[i]].Power > agents[claimants[j]].Power
		})
		for _, loser := range claimants[1:] {
			res.Bumped[loser] = true
		}
		r.logger.Debug("resolve.collision", "round", round, "cell", cell.String(), "winner", int(claimants[0]), "claimants", len(claimants))
	}

	// 4. winners and uncontested agents keep their tentative cell
	claimed := make(map[core.Position]core.AgentID, len(ordered))
	for _, in := range ordered {
		id := in.Agent.ID
		if res.Bumped[id] {
			continue
		}
		pos := res.Tentative[id]
		res.FinalPositions[id] = pos
		claimed[pos] = id
	}

	// 5. relocation of bumped agents in ascending id order
	for _, id := range res.BumpedIDs() {
		a := agents[id]
		pos, ok := r.relocate(grid, a, claimed)
		if !ok {
			holder := claimed[pos]
			if _, seen := res.Overlaps[pos]; !seen {
				res.Overlaps[pos] = []core.AgentID{holder}
			}
			res.Overlaps[pos] = append(res.Overlaps[pos], id)
			r.logger.Warn("resolve.relocation_exhausted", "round", round, "agent", int(id), "spawn", pos.String(), "holder", int(holder))
		} else {
			claimed[pos] = id
		}
		res.FinalPositions[id] = pos
	}

	// 6. item collection against the pre-round grid
	collectedCells := map[core.Position]bool{}
	collect := func(id core.AgentID) {
		pos := res.FinalPositions[id]
		kind := grid.At(pos).Item()
		if kind == core.NoItem || collectedCells[pos] {
			return
		}
		collectedCells[pos] = true
		res.Collected[id] = kind
		res.ClearedItems = append(res.ClearedItems, pos)
	}
	for _, in := range ordered {
		if !res.Bumped[in.Agent.ID] {
			collect(in.Agent.ID)
		}
	}
	for _, id := range res.BumpedIDs() {
		collect(id)
	}

	r.checkInvariants(grid, res)

	r.logger.Info("resolve.round", "round", round, "agents", len(ordered), "bumped", len(res.Bumped), "collected", len(res.Collected), "overlaps", len(res.Overlaps), "duration", time.Since(start))

	return res
}

// tentative applies a move, clamping moves that would leave the board.
func tentative(grid *core.Grid, from core.Position, m core.Move) core.Position {
	to := m.Apply(from)
	if !grid.InBounds(to) {
		return from
	}
	return to
}

// relocate picks a cell for a bumped agent. ok is false when every candidate
// was taken and the spawn point is returned despite being claimed.
func (r *Resolver) relocate(grid *core.Grid, a *core.Agent, claimed map[core.Position]core.AgentID) (core.Position, bool) {
	if _, taken := claimed[a.Spawn]; !taken {
		return a.Spawn, true
	}

	neighbors := grid.Neighbors(a.Spawn)
	r.rand.Shuffle(len(neighbors), func(i, j int) { neighbors[i], neighbors[j] = neighbors[j], neighbors[i] })
	for _, n := range neighbors {
		if _, taken := claimed[n]; taken {
			continue
		}
		if grid.At(n).IsEmpty() {
			return n, true
		}
	}

	return a.Spawn, false
}

// checkInvariants panics when the plan leaves an agent off the board or puts
// two agents on one cell without the overlap having been reported.
func (r *Resolver) checkInvariants(grid *core.Grid, res core.ResolvedRound) {
	occupants := map[core.Position][]core.AgentID{}
	for id, pos := range res.FinalPositions {
		if !grid.InBounds(pos) {
			panic(fmt.Sprintf("resolve: agent %d resolved out of bounds at %s", id, pos))
		}
		occupants[pos] = append(occupants[pos], id)
	}
	for pos, ids := range occupants {
		if len(ids) < 2 {
			continue
		}
		reported := res.Overlaps[pos]
		slices.Sort(ids)
		sortedReported := slices.Clone(reported)
		slices.Sort(sortedReported)
		if !slices.Equal(ids, sortedReported) {
			panic(fmt.Sprintf("resolve: unreported overlap at %s: %v", pos, ids))
		}
	}
}
