package provider

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/minionmesh/core"
	"github.com/hupe1980/minionmesh/logging"
)

// HeuristicOptions configure the local minion AI.
type HeuristicOptions struct {
	Rand   core.Rand
	Logger logging.Logger
	// MissingBonus is added to the weight factor of kinds the team still needs.
	MissingBonus float64
	// MisreadChance is the probability a low-intelligence minion also boosts a wrong kind.
	MisreadChance float64
}

// Heuristic is the personality driven local minion AI. It scans the 3x3
// neighborhood for the most attractive item and steps toward it; without a
// nearby item it wanders. Item preferences are learned from gesture hints and
// persist for the rest of the match.
type Heuristic struct {
	opts HeuristicOptions
	rnd  core.Rand

	mu         sync.Mutex
	priorities map[core.AgentID]map[core.ItemKind]float64
}

// NewHeuristic constructs a Heuristic provider. One instance may serve any number of agents.
func NewHeuristic(optFns ...func(o *HeuristicOptions)) *Heuristic {
	opts := HeuristicOptions{
		Logger:        logging.NoOpLogger{},
		MissingBonus:  1.0,
		MisreadChance: 0.3,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Rand == nil {
		opts.Rand = core.NewRand(time.Now().UnixNano())
	}

	return &Heuristic{
		opts:       opts,
		rnd:        core.NewLockedRand(opts.Rand),
		priorities: make(map[core.AgentID]map[core.ItemKind]float64),
	}
}

// Decide implements core.DecisionProvider.
func (h *Heuristic) Decide(_ context.Context, req core.DecisionRequest) (core.Decision, error) {
	mv := h.chooseMove(req)

	d := core.Decision{
		AgentID: req.Agent.ID,
		Round:   req.Round,
		Move:    mv,
		Flavor:  Flavor(req.Agent.Personality, mv, destinationItem(req, mv)),
	}

	h.opts.Logger.Debug("heuristic decision", "agent", int(req.Agent.ID), "round", req.Round, "move", mv.String())

	return d, nil
}

func (h *Heuristic) chooseMove(req core.DecisionRequest) core.Move {
	if mv, ok := PointMove(req.Agent.Hint); ok {
		return mv
	}

	prio := h.observe(req)

	if req.Grid == nil {
		return core.Moves[h.rnd.IntN(len(core.Moves))]
	}

	if target, ok := h.bestNearbyItem(req, prio); ok {
		return stepToward(req.Agent.Position, target)
	}

	return h.wander(req)
}

// observe resets state at match start, applies the round's gesture and
// returns a snapshot of the agent's item priorities.
func (h *Heuristic) observe(req core.DecisionRequest) map[core.ItemKind]float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := req.Agent.ID

	prio, ok := h.priorities[id]
	if !ok || req.Round == 0 {
		prio = make(map[core.ItemKind]float64, len(req.Catalog))
		for _, kind := range req.Catalog.Kinds() {
			prio[kind] = 1.0
		}
		h.priorities[id] = prio
	}

	h.applyGesture(req, prio)

	out := make(map[core.ItemKind]float64, len(prio))
	for k, v := range prio {
		out[k] = v
	}

	return out
}

func (h *Heuristic) applyGesture(req core.DecisionRequest, prio map[core.ItemKind]float64) {
	g, err := ParseGesture(req.Agent.Hint)
	if err != nil {
		h.opts.Logger.Debug("ignoring gesture", "agent", int(req.Agent.ID), "error", err)
		return
	}

	name, ok := g.FavoredItem()
	if !ok {
		return
	}

	kind, ok := req.Catalog.Lookup(name)
	if !ok {
		return
	}

	p := req.Agent.Personality
	if h.rnd.Float64() >= p.Obedience {
		return
	}

	prio[kind] += float64(p.Intelligence) / 5.0

	if p.Intelligence < 3 && h.rnd.Float64() < h.opts.MisreadChance {
		others := make([]core.ItemKind, 0, len(req.Catalog))
		for _, k := range req.Catalog.Kinds() {
			if k != kind {
				others = append(others, k)
			}
		}
		if len(others) > 0 {
			prio[others[h.rnd.IntN(len(others))]] += 0.5
		}
	}
}

// bestNearbyItem scans the 3x3 neighborhood row-major. The first cell with the
// highest weight wins.
func (h *Heuristic) bestNearbyItem(req core.DecisionRequest, prio map[core.ItemKind]float64) (core.Position, bool) {
	pos := req.Agent.Position
	missing := core.Missing(req.Agent.Targets, req.Agent.TeamTotals)

	var (
		best      core.Position
		bestScore float64
		found     bool
	)

	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			p := pos.Add(dr, dc)
			if !req.Grid.InBounds(p) {
				continue
			}

			kind := req.Grid.At(p).Item()
			if kind == core.NoItem {
				continue
			}

			score, ok := prio[kind]
			if !ok {
				score = 1.0
			}
			if missing[kind] > 0 {
				score *= 1 + h.opts.MissingBonus
			}
			if dist := pos.Manhattan(p); dist > 0 {
				score /= float64(dist)
			}

			if !found || score > bestScore {
				best, bestScore, found = p, score, true
			}
		}
	}

	return best, found
}

// wander picks a move when nothing is in reach. Smart minions explore empty
// neighbors; the rest move uniformly at random.
func (h *Heuristic) wander(req core.DecisionRequest) core.Move {
	if req.Agent.Personality.Intelligence >= 4 {
		var options []core.Move
		for _, mv := range core.Directions {
			p := mv.Apply(req.Agent.Position)
			if req.Grid.InBounds(p) && req.Grid.At(p).IsEmpty() {
				options = append(options, mv)
			}
		}
		if len(options) > 0 {
			return options[h.rnd.IntN(len(options))]
		}
	}

	return core.Moves[h.rnd.IntN(len(core.Moves))]
}

// stepToward moves vertically first, then horizontally.
func stepToward(from, to core.Position) core.Move {
	switch {
	case to.Row < from.Row:
		return core.MoveUp
	case to.Row > from.Row:
		return core.MoveDown
	case to.Col < from.Col:
		return core.MoveLeft
	case to.Col > from.Col:
		return core.MoveRight
	default:
		return core.MoveStay
	}
}
