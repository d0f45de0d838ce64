package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/minionmesh/config"
	"github.com/hupe1980/minionmesh/core"
	"github.com/hupe1980/minionmesh/internal/testutil"
	"github.com/hupe1980/minionmesh/provider"
)

func smallConfig() *config.Config {
	return &config.Config{
		Rows:            4,
		Cols:            4,
		MaxRounds:       20,
		Seed:            42,
		DecisionTimeout: time.Second,
		Items:           []config.Item{{Name: "sushi", Count: 3}, {Name: "donut", Count: 2}},
		Teams: []config.Team{
			{Name: "red", Targets: map[string]int{"sushi": 2, "donut": 1}, Agents: []config.Agent{
				{Name: "r1", Spawn: core.Pos(0, 0), Power: 3},
				{Name: "r2", Spawn: core.Pos(0, 3), Power: 1},
			}},
			{Name: "blue", Targets: map[string]int{"donut": 2}, Agents: []config.Agent{
				{Name: "b1", Spawn: core.Pos(3, 3), Power: 2},
			}},
		},
	}
}

func moving(m core.Move) core.DecisionProvider {
	return core.ProviderFunc(func(ctx context.Context, req core.DecisionRequest) (core.Decision, error) {
		return core.Decision{Move: m}, nil
	})
}

func awaitReady(t *testing.T, m *Match) {
	t.Helper()
	require.Eventually(t, m.IsRoundReady, 2*time.Second, time.Millisecond)
}

func playRound(t *testing.T, m *Match) core.ResolvedRound {
	t.Helper()
	require.NoError(t, m.StartRound(context.Background()))
	awaitReady(t, m)
	res, err := m.ResolveRound()
	require.NoError(t, err)
	return res
}

// stayAndCollect applies a plan that keeps every agent in place and credits
// the given items.
func stayAndCollect(t *testing.T, m *Match, collected map[core.AgentID]core.ItemKind) {
	t.Helper()
	require.NoError(t, m.StartRound(context.Background()))
	awaitReady(t, m)

	v := m.View()
	res := core.ResolvedRound{
		Round:          v.Round,
		FinalPositions: map[core.AgentID]core.Position{},
		Collected:      collected,
	}
	for _, a := range v.Agents {
		res.FinalPositions[a.ID] = a.Position
	}
	require.NoError(t, m.ApplyResolved(res))
}

func TestNew_BuildsBoard(t *testing.T) {
	m, err := New(smallConfig(), nil)
	require.NoError(t, err)

	v := m.View()
	assert.NotEmpty(t, v.MatchID)
	assert.Equal(t, core.PhaseIdle, v.Phase)
	assert.Equal(t, 0, v.Round)
	require.Len(t, v.Agents, 3)
	assert.Equal(t, core.AgentID(2), v.Agents[2].ID)
	assert.Equal(t, core.TeamID(1), v.Agents[2].TeamID)

	for _, a := range v.Agents {
		assert.Equal(t, a.Spawn, a.Position)
		assert.Equal(t, core.AgentCell(a.ID), v.Grid.At(a.Position))
	}
	assert.Equal(t, 5, v.Grid.Count(core.Cell.IsItem))
	assert.Equal(t, map[core.ItemKind]int{1: 2, 2: 1}, v.Teams[0].Targets)
}

func TestNew_RandomTargetsAndDefaults(t *testing.T) {
	m, err := New(config.Default(), nil, WithRand(core.NewRand(7)))
	require.NoError(t, err)

	v := m.View()
	assert.Equal(t, 30, v.Grid.Count(core.Cell.IsItem))
	for _, team := range v.Teams {
		n := 0
		for _, c := range team.Targets {
			n += c
		}
		assert.Equal(t, 5, n)
	}
}

func TestNew_RejectsUnknownProviderAgent(t *testing.T) {
	_, err := New(smallConfig(), map[core.AgentID]core.DecisionProvider{9: moving(core.MoveUp)})
	require.ErrorIs(t, err, core.ErrUnknownAgent)

	cfg := smallConfig()
	cfg.Rows = 0
	_, err = New(cfg, nil)
	require.Error(t, err)
}

func TestMatch_RoundLifecycle(t *testing.T) {
	m, err := New(smallConfig(), map[core.AgentID]core.DecisionProvider{
		0: moving(core.MoveDown),
		1: moving(core.MoveDown),
		2: moving(core.MoveUp),
	})
	require.NoError(t, err)

	_, err = m.ResolveRound()
	require.ErrorIs(t, err, core.ErrNoRound)

	require.NoError(t, m.StartRound(context.Background()))
	assert.Equal(t, core.PhaseAwaitingDecisions, m.Phase())
	require.ErrorIs(t, m.StartRound(context.Background()), core.ErrRoundInProgress)

	awaitReady(t, m)
	res, err := m.ResolveRound()
	require.NoError(t, err)

	assert.Equal(t, 0, res.Round)
	assert.Equal(t, 1, m.Round())
	assert.Equal(t, core.PhaseIdle, m.Phase())

	v := m.View()
	a0, _ := v.Agent(0)
	assert.Equal(t, core.Pos(1, 0), a0.Position)
	assert.Equal(t, core.AgentCell(0), v.Grid.At(core.Pos(1, 0)))
	assert.NotEqual(t, core.AgentCell(0), v.Grid.At(core.Pos(0, 0)))
}

func TestMatch_ResolveBeforeReady(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	m, err := New(smallConfig(), map[core.AgentID]core.DecisionProvider{
		0: core.ProviderFunc(func(ctx context.Context, req core.DecisionRequest) (core.Decision, error) {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return core.Decision{}, ctx.Err()
		}),
	})
	require.NoError(t, err)

	require.NoError(t, m.StartRound(context.Background()))
	assert.False(t, m.IsRoundReady())

	_, err = m.ResolveRound()
	require.ErrorIs(t, err, core.ErrRoundNotReady)
	assert.Equal(t, 0, m.Round())
}

func TestMatch_PooledWinNeedsEveryKind(t *testing.T) {
	m, err := New(smallConfig(), nil)
	require.NoError(t, err)

	sushi, donut := core.ItemKind(1), core.ItemKind(2)

	for i := 0; i < 3; i++ {
		stayAndCollect(t, m, map[core.AgentID]core.ItemKind{0: sushi})
		assert.False(t, m.CheckWin().Finished, "three sushi and no donut must not win")
	}

	// a teammate contributes the donut
	stayAndCollect(t, m, map[core.AgentID]core.ItemKind{1: donut})
	out := m.CheckWin()

	assert.True(t, out.Finished)
	assert.False(t, out.Draw)
	assert.Equal(t, core.TeamID(0), out.Winner)
	assert.Equal(t, 4, out.Rounds)
	assert.Equal(t, core.PhaseFinished, m.Phase())
	require.ErrorIs(t, m.StartRound(context.Background()), core.ErrMatchFinished)
}

func TestMatch_SimultaneousWinnersPickLowestTeam(t *testing.T) {
	cfg := smallConfig()
	cfg.Teams[0].Targets = map[string]int{"donut": 1}
	cfg.Teams[1].Targets = map[string]int{"donut": 1}
	m, err := New(cfg, nil)
	require.NoError(t, err)

	stayAndCollect(t, m, map[core.AgentID]core.ItemKind{0: 2, 2: 2})
	out := m.CheckWin()

	assert.True(t, out.Finished)
	assert.Equal(t, core.TeamID(0), out.Winner)
}

func TestMatch_DrawAfterMaxRounds(t *testing.T) {
	cfg := smallConfig()
	cfg.MaxRounds = 5
	cfg.Items = nil
	cfg.Teams[0].Targets = nil
	cfg.Teams[1].Targets = nil

	m, err := New(cfg, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		assert.False(t, m.Outcome().Finished)
		playRound(t, m)
	}

	out := m.Outcome()
	assert.True(t, out.Finished)
	assert.True(t, out.Draw)
	assert.Equal(t, 5, out.Rounds)
	require.ErrorIs(t, m.StartRound(context.Background()), core.ErrMatchFinished)
	_, err = m.ResolveRound()
	require.ErrorIs(t, err, core.ErrMatchFinished)
}

func TestMatch_ResetRebuildsBoard(t *testing.T) {
	m, err := New(smallConfig(), map[core.AgentID]core.DecisionProvider{
		0: moving(core.MoveRight),
		1: moving(core.MoveDown),
		2: moving(core.MoveLeft),
	})
	require.NoError(t, err)

	playRound(t, m)
	playRound(t, m)
	require.NoError(t, m.StartRound(context.Background()))
	ticket := m.Ticket()
	require.NotNil(t, ticket)

	require.NoError(t, m.Reset())

	assert.True(t, ticket.Stale())
	v := m.View()
	assert.Equal(t, 0, v.Round)
	assert.Equal(t, core.PhaseIdle, v.Phase)
	assert.False(t, v.Outcome.Finished)
	assert.Equal(t, 5, v.Grid.Count(core.Cell.IsItem))
	for _, a := range v.Agents {
		assert.Equal(t, a.Spawn, a.Position)
		assert.Empty(t, a.Collected)
	}
}

func TestMatch_BoardInvariantsHoldOverManyRounds(t *testing.T) {
	var mu sync.Mutex
	rnd := core.NewRand(11)
	random := core.ProviderFunc(func(ctx context.Context, req core.DecisionRequest) (core.Decision, error) {
		mu.Lock()
		defer mu.Unlock()
		return core.Decision{Move: core.Moves[rnd.IntN(len(core.Moves))]}, nil
	})

	cfg := smallConfig()
	cfg.MaxRounds = 40
	cfg.Teams[0].Targets = map[string]int{"sushi": 50}
	cfg.Teams[1].Targets = map[string]int{"donut": 50}

	m, err := New(cfg, map[core.AgentID]core.DecisionProvider{0: random, 1: random, 2: random})
	require.NoError(t, err)

	collected := 0
	for !m.Outcome().Finished {
		res := playRound(t, m)
		collected += len(res.Collected)

		v := m.View()
		markers := v.Grid.Count(core.Cell.IsAgent)
		assert.LessOrEqual(t, markers, len(v.Agents))
		for _, a := range v.Agents {
			require.True(t, v.Grid.InBounds(a.Position))
			if len(res.Overlaps) == 0 {
				assert.Equal(t, core.AgentCell(a.ID), v.Grid.At(a.Position))
			}
		}
		assert.Equal(t, 5-collected, v.Grid.Count(core.Cell.IsItem))
	}

	assert.True(t, m.Outcome().Draw)
	assert.Equal(t, 40, m.Round())
}

func TestMatch_HintIsPassedOnce(t *testing.T) {
	rec := testutil.NewRecorder(provider.Stay())

	m, err := New(smallConfig(), map[core.AgentID]core.DecisionProvider{0: rec})
	require.NoError(t, err)

	require.NoError(t, m.SetHint(0, "wink left eye"))
	require.ErrorIs(t, m.SetHint(7, "x"), core.ErrUnknownAgent)

	playRound(t, m)
	playRound(t, m)

	reqs := rec.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "wink left eye", reqs[0].Agent.Hint)
	assert.Empty(t, reqs[1].Agent.Hint)
	assert.Equal(t, []core.AgentID{1}, reqs[0].Agent.Teammates)
	assert.Equal(t, 1, reqs[1].Round)
}

func TestMatch_ProviderSnapshotIsPrivate(t *testing.T) {
	vandal := core.ProviderFunc(func(ctx context.Context, req core.DecisionRequest) (core.Decision, error) {
		req.Grid.Clear()
		req.Agent.TeamTotals[1] = 99
		return core.Decision{}, nil
	})

	m, err := New(smallConfig(), map[core.AgentID]core.DecisionProvider{0: vandal})
	require.NoError(t, err)

	playRound(t, m)

	v := m.View()
	assert.Equal(t, 5, v.Grid.Count(core.Cell.IsItem))
	assert.Empty(t, v.TeamCollected[0])
}

func TestAgentIDs(t *testing.T) {
	assert.Equal(t, [][]core.AgentID{{0, 1}, {2}}, AgentIDs(smallConfig()))
}
