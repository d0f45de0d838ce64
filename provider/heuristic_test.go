package provider

import (
	"context"
	"testing"

	"github.com/hupe1980/minionmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sushi  core.ItemKind = 1
	donut  core.ItemKind = 2
	banana core.ItemKind = 3
)

// request builds a decision request for agent 0 on a rows x cols board. Items
// and foreign markers are placed from cells.
func request(t *testing.T, rows, cols int, pos core.Position, p core.Personality, cells map[core.Position]core.Cell) core.DecisionRequest {
	t.Helper()

	g := core.NewGrid(rows, cols)
	require.NoError(t, g.Set(pos, core.AgentCell(0)))
	for at, c := range cells {
		require.NoError(t, g.Set(at, c))
	}

	return core.DecisionRequest{
		Round: 1,
		Agent: core.AgentView{
			ID:          0,
			Name:        "Bob",
			Position:    pos,
			Power:       3,
			Personality: p,
			TeamTotals:  map[core.ItemKind]int{},
			Targets:     map[core.ItemKind]int{},
		},
		Grid:    g,
		Catalog: core.DefaultCatalog,
	}
}

func newHeuristic(seed int64, optFns ...func(o *HeuristicOptions)) *Heuristic {
	return NewHeuristic(append([]func(o *HeuristicOptions){
		func(o *HeuristicOptions) { o.Rand = core.NewRand(seed) },
	}, optFns...)...)
}

func TestHeuristic_PointGestureOverrides(t *testing.T) {
	h := newHeuristic(1)
	req := request(t, 3, 3, core.Pos(1, 1), core.Personality{Style: StyleCalm, Intelligence: 5}, map[core.Position]core.Cell{
		core.Pos(0, 1): core.ItemCell(sushi),
	})
	req.Agent.Hint = "point left"

	d, err := h.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, core.MoveLeft, d.Move)
	assert.Equal(t, core.AgentID(0), d.AgentID)
	assert.Equal(t, 1, d.Round)
	assert.Equal(t, "Moving left.", d.Flavor.Dialogue)
}

func TestHeuristic_StepsTowardClosestItem(t *testing.T) {
	h := newHeuristic(1)
	req := request(t, 3, 3, core.Pos(1, 1), core.Personality{Style: StyleCalm, Intelligence: 5}, map[core.Position]core.Cell{
		core.Pos(0, 1): core.ItemCell(sushi),
		core.Pos(2, 2): core.ItemCell(donut),
	})

	d, err := h.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, core.MoveUp, d.Move)
	assert.Equal(t, "I see a sushi. Let me get that.", d.Flavor.Dialogue)
}

func TestHeuristic_MissingTargetsWeighMore(t *testing.T) {
	cells := map[core.Position]core.Cell{
		core.Pos(1, 2): core.ItemCell(sushi),
		core.Pos(2, 2): core.ItemCell(donut),
	}
	p := core.Personality{Style: StyleSerious, Intelligence: 5}

	h := newHeuristic(1, func(o *HeuristicOptions) { o.MissingBonus = 2 })

	req := request(t, 3, 3, core.Pos(1, 1), p, cells)
	d, err := h.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, core.MoveRight, d.Move, "nothing missing: the adjacent sushi wins")

	req = request(t, 3, 3, core.Pos(1, 1), p, cells)
	req.Agent.Targets = map[core.ItemKind]int{donut: 1}
	d, err = h.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, core.MoveDown, d.Move, "the missing donut outweighs the closer sushi")
}

func TestHeuristic_GesturePreferencesAccumulate(t *testing.T) {
	cells := map[core.Position]core.Cell{
		core.Pos(1, 0): core.ItemCell(sushi),
		core.Pos(2, 2): core.ItemCell(donut),
	}
	p := core.Personality{Style: StyleBubbly, Intelligence: 5, Obedience: 1}

	h := newHeuristic(1, func(o *HeuristicOptions) { o.MissingBonus = 0 })

	req := request(t, 3, 3, core.Pos(1, 1), p, cells)
	req.Agent.Hint = "wink left eye"
	d, err := h.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, core.MoveLeft, d.Move, "one wink ties the donut with the closer sushi")

	req = request(t, 3, 3, core.Pos(1, 1), p, cells)
	req.Round = 2
	req.Agent.Hint = "wink left eye"
	d, err = h.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, core.MoveDown, d.Move, "two winks make the donut worth the detour")

	req = request(t, 3, 3, core.Pos(1, 1), p, cells)
	req.Round = 0
	d, err = h.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, core.MoveLeft, d.Move, "a new match forgets learned preferences")
}

func TestHeuristic_DisobedientIgnoresGestures(t *testing.T) {
	cells := map[core.Position]core.Cell{
		core.Pos(1, 0): core.ItemCell(sushi),
		core.Pos(2, 2): core.ItemCell(banana),
	}
	p := core.Personality{Style: StyleHectic, Intelligence: 5, Obedience: 0}

	h := newHeuristic(1, func(o *HeuristicOptions) { o.MissingBonus = 0 })

	for round := 1; round <= 5; round++ {
		req := request(t, 3, 3, core.Pos(1, 1), p, cells)
		req.Round = round
		req.Agent.Hint = "nod twice"

		d, err := h.Decide(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, core.MoveLeft, d.Move)
		assert.Equal(t, "OH! SUSHI! GOTTA GET IT NOW!", d.Flavor.Dialogue)
	}
}

func TestHeuristic_SmartMinionExploresEmptyCells(t *testing.T) {
	p := core.Personality{Style: StyleCalm, Intelligence: 5}

	for seed := int64(0); seed < 20; seed++ {
		h := newHeuristic(seed)
		req := request(t, 4, 4, core.Pos(0, 0), p, map[core.Position]core.Cell{
			core.Pos(1, 0): core.AgentCell(1),
		})

		d, err := h.Decide(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, core.MoveRight, d.Move, "seed %d", seed)
	}
}

func TestHeuristic_SimpleMinionWanders(t *testing.T) {
	p := core.Personality{Style: StyleConfused, Intelligence: 1}
	seen := map[core.Move]bool{}

	h := newHeuristic(7)
	for i := 0; i < 200; i++ {
		req := request(t, 5, 5, core.Pos(2, 2), p, nil)
		d, err := h.Decide(context.Background(), req)
		require.NoError(t, err)
		require.True(t, d.Move.Valid())
		seen[d.Move] = true
	}

	assert.Len(t, seen, len(core.Moves))
}

func TestHeuristic_SeededIsReproducible(t *testing.T) {
	p := core.Personality{Style: StyleConfused, Intelligence: 2, Obedience: 0.5}

	play := func() []core.Move {
		h := newHeuristic(99)
		var out []core.Move
		for round := 1; round <= 20; round++ {
			req := request(t, 5, 5, core.Pos(2, 2), p, nil)
			req.Round = round
			req.Agent.Hint = "wink right eye"
			d, err := h.Decide(context.Background(), req)
			require.NoError(t, err)
			out = append(out, d.Move)
		}
		return out
	}

	assert.Equal(t, play(), play())
}
