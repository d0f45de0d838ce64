package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/minionmesh/core"
	"github.com/hupe1980/minionmesh/history"
)

var _ core.HistoryStore = (*Store)(nil)

func open(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	require.NoError(t, err)
	return s
}

func TestStore_AppendEventsAndRounds(t *testing.T) {
	s := open(t, filepath.Join(t.TempDir(), "history.sqlite"))
	defer s.Close()

	res := core.ResolvedRound{
		Round:          0,
		Decisions:      []core.Decision{{AgentID: 1, Move: core.MoveLeft, Flavor: core.Flavor{Dialogue: "Bello!"}}},
		FinalPositions: map[core.AgentID]core.Position{1: core.Pos(2, 3)},
		Bumped:         map[core.AgentID]bool{1: true},
	}

	require.NoError(t, s.Append("m1", core.NewEvent("m1", core.EventRoundStarted, 0)))
	require.NoError(t, s.Append("m1", core.NewResolvedEvent("m1", res)))
	require.NoError(t, s.Append("m2", core.NewEvent("m2", core.EventRoundStarted, 0)))
	require.NoError(t, s.Append("m1", core.NewFinishedEvent("m1", core.Outcome{Finished: true, Draw: true, Rounds: 1})))

	evs, err := s.Events("m1")
	require.NoError(t, err)
	require.Len(t, evs, 3)
	assert.Equal(t, core.EventRoundStarted, evs[0].Type)
	assert.Equal(t, core.EventMatchFinished, evs[2].Type)
	require.NotNil(t, evs[2].Outcome)
	assert.True(t, evs[2].Outcome.Draw)

	rounds, err := s.Rounds("m1")
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, core.MoveLeft, rounds[0].Decisions[0].Move)
	assert.Equal(t, "Bello!", rounds[0].Decisions[0].Flavor.Dialogue)
	assert.Equal(t, core.Pos(2, 3), rounds[0].FinalPositions[1])
	assert.True(t, rounds[0].Bumped[1])

	ids, err := s.Matches()
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, ids)

	unknown, err := s.Events("nope")
	require.NoError(t, err)
	assert.Empty(t, unknown)

	require.ErrorIs(t, s.Append("", core.Event{}), history.ErrEmptyMatchID)
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.sqlite")

	s := open(t, path)
	require.NoError(t, s.Append("m1", core.NewEvent("m1", core.EventMatchReset, 0)))
	require.NoError(t, s.Close())

	s = open(t, path)
	defer s.Close()

	evs, err := s.Events("m1")
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, core.EventMatchReset, evs[0].Type)

	require.NoError(t, s.Clear("m1"))
	evs, err = s.Events("m1")
	require.NoError(t, err)
	assert.Empty(t, evs)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
