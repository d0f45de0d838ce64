package testutil

import (
	"fmt"

	"github.com/hupe1980/minionmesh/core"
)

// GridBuilder provides a fluent helper for constructing boards in tests.
// Example:
//
//	g := NewGridBuilder(3, 3).Agent(0, core.Pos(0, 0)).Item(1, core.Pos(1, 1)).Build()
//
// Out of bounds placements panic so broken fixtures fail loudly.
type GridBuilder struct {
	g *core.Grid
}

// NewGridBuilder starts an empty rows x cols board.
func NewGridBuilder(rows, cols int) *GridBuilder {
	return &GridBuilder{g: core.NewGrid(rows, cols)}
}

// Item places an item of kind at each position (chainable).
func (b *GridBuilder) Item(kind core.ItemKind, at ...core.Position) *GridBuilder {
	for _, p := range at {
		b.set(p, core.ItemCell(kind))
	}
	return b
}

// Agent places the marker of id at p (chainable).
func (b *GridBuilder) Agent(id core.AgentID, p core.Position) *GridBuilder {
	b.set(p, core.AgentCell(id))
	return b
}

// Build returns a private copy of the board.
func (b *GridBuilder) Build() *core.Grid { return b.g.Clone() }

func (b *GridBuilder) set(p core.Position, c core.Cell) {
	if err := b.g.Set(p, c); err != nil {
		panic(fmt.Sprintf("testutil: place %s at %s: %v", c, p, err))
	}
}
