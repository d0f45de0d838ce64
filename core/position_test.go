package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMove(t *testing.T) {
	cases := map[string]Move{
		"up":     MoveUp,
		"DOWN":   MoveDown,
		" Left ": MoveLeft,
		"right":  MoveRight,
		"stay":   MoveStay,
		"":       MoveStay,
	}
	for in, want := range cases {
		got, err := ParseMove(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMove("jump")
	require.ErrorIs(t, err, ErrInvalidMove)
}

func TestMove_Apply(t *testing.T) {
	p := Pos(2, 2)
	assert.Equal(t, Pos(1, 2), MoveUp.Apply(p))
	assert.Equal(t, Pos(3, 2), MoveDown.Apply(p))
	assert.Equal(t, Pos(2, 1), MoveLeft.Apply(p))
	assert.Equal(t, Pos(2, 3), MoveRight.Apply(p))
	assert.Equal(t, p, MoveStay.Apply(p))
	assert.False(t, Move(9).Valid())
}

func TestMove_JSONUsesWireNames(t *testing.T) {
	b, err := json.Marshal(struct {
		Move Move `json:"move"`
	}{MoveLeft})
	require.NoError(t, err)
	assert.JSONEq(t, `{"move":"left"}`, string(b))
}

func TestPosition_OrderingAndDistance(t *testing.T) {
	assert.True(t, Pos(0, 5).Less(Pos(1, 0)))
	assert.True(t, Pos(1, 0).Less(Pos(1, 1)))
	assert.False(t, Pos(1, 1).Less(Pos(1, 1)))
	assert.Equal(t, 5, Pos(0, 0).Manhattan(Pos(2, 3)))
}

func TestSatisfies(t *testing.T) {
	targets := map[ItemKind]int{1: 2, 3: 1}

	assert.False(t, Satisfies(targets, map[ItemKind]int{1: 2}))
	assert.True(t, Satisfies(targets, map[ItemKind]int{1: 2, 3: 1, 2: 4}))
	assert.False(t, Satisfies(nil, map[ItemKind]int{1: 1}))
	assert.Equal(t, map[ItemKind]int{1: 1, 3: 1}, Missing(targets, map[ItemKind]int{1: 1}))
}

func TestCountItems(t *testing.T) {
	assert.Equal(t, map[ItemKind]int{1: 2, 2: 1}, CountItems([]ItemKind{1, 2, 1}))
}
