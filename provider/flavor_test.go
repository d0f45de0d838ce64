package provider

import (
	"context"
	"testing"

	"github.com/hupe1980/minionmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointMove(t *testing.T) {
	mv, ok := PointMove("  Point Left ")
	assert.True(t, ok)
	assert.Equal(t, core.MoveLeft, mv)

	mv, ok = PointMove("point down")
	assert.True(t, ok)
	assert.Equal(t, core.MoveDown, mv)

	for _, hint := range []string{"", "point stay", "point sideways", "wink left eye", "up"} {
		_, ok := PointMove(hint)
		assert.False(t, ok, hint)
	}
}

func TestFlavor(t *testing.T) {
	smart := core.Personality{Style: StyleHectic, Intelligence: 4}
	f := Flavor(smart, core.MoveUp, "")
	assert.Equal(t, "ZOOMING UP! GOTTA GO FAST!", f.Dialogue)
	assert.Equal(t, "WHERE'S THE STUFF? GOTTA FIND THE THINGS!", f.Thought)

	dim := core.Personality{Style: StyleConfused, Intelligence: 2}
	f = Flavor(dim, core.MoveStay, "banana")
	assert.Equal(t, "Is... is that a banana? I think I should grab it?", f.Dialogue)
	assert.Equal(t, "Wait, was I supposed to get bananas? Or avoid them? Oh no... ...I think?", f.Thought)

	f = Flavor(core.Personality{Style: "BUBBLY", Intelligence: 3}, core.MoveRight, "donut")
	assert.Equal(t, "Ooooh donut time, let's gooo!", f.Dialogue)

	f = Flavor(core.Personality{Style: "grumpy", Intelligence: 1}, core.MoveLeft, "")
	assert.Empty(t, f.Dialogue)
	assert.Equal(t, " ...I think?", f.Thought)

	for _, style := range Styles {
		f := Flavor(core.Personality{Style: style, Intelligence: 5}, core.MoveDown, "sushi")
		assert.NotEmpty(t, f.Dialogue, style)
		assert.NotEmpty(t, f.Thought, style)
	}
}

func TestScripted(t *testing.T) {
	s := NewScripted(core.MoveUp, core.MoveLeft)
	req := core.DecisionRequest{Round: 3, Agent: core.AgentView{ID: 2}}

	var got []core.Move
	for i := 0; i < 4; i++ {
		d, err := s.Decide(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, core.AgentID(2), d.AgentID)
		assert.Equal(t, 3, d.Round)
		got = append(got, d.Move)
	}

	assert.Equal(t, []core.Move{core.MoveUp, core.MoveLeft, core.MoveStay, core.MoveStay}, got)
	assert.Equal(t, 0, s.Remaining())
}

func TestScripted_Loop(t *testing.T) {
	s := NewScripted(core.MoveDown, core.MoveRight).Loop()

	var got []core.Move
	for i := 0; i < 5; i++ {
		d, err := s.Decide(context.Background(), core.DecisionRequest{})
		require.NoError(t, err)
		got = append(got, d.Move)
	}

	assert.Equal(t, []core.Move{core.MoveDown, core.MoveRight, core.MoveDown, core.MoveRight, core.MoveDown}, got)
}

func TestStay(t *testing.T) {
	d, err := Stay().Decide(context.Background(), core.DecisionRequest{Round: 4, Agent: core.AgentView{ID: 1}})
	require.NoError(t, err)
	assert.Equal(t, core.MoveStay, d.Move)
	assert.Equal(t, core.AgentID(1), d.AgentID)
	assert.False(t, d.Fallback)
}
