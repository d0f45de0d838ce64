package core

import "fmt"

// Grid is a fixed-size rows×cols board of cell codes stored in row-major order.
// Grid carries no synchronization; a match owns its grid and hands out clones.
type Grid struct {
	rows, cols int
	cells      []Cell
}

// NewGrid allocates an empty grid. Non-positive dimensions are clamped to 1.
func NewGrid(rows, cols int) *Grid {
	if rows <= 0 {
		rows = 1
	}
	if cols <= 0 {
		cols = 1
	}
	return &Grid{rows: rows, cols: cols, cells: make([]Cell, rows*cols)}
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether p lies inside [0,rows)×[0,cols).
func (g *Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

func (g *Grid) index(p Position) int { return p.Row*g.cols + p.Col }

// At returns the cell at p. Out-of-bounds reads return Empty.
func (g *Grid) At(p Position) Cell {
	if !g.InBounds(p) {
		return Empty
	}
	return g.cells[g.index(p)]
}

// Set writes a cell code at p.
func (g *Grid) Set(p Position, c Cell) error {
	if !g.InBounds(p) {
		return fmt.Errorf("%w: %s on %dx%d grid", ErrOutOfBounds, p, g.rows, g.cols)
	}
	g.cells[g.index(p)] = c
	return nil
}

// Clear resets every cell to Empty.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = Empty
	}
}

// Clone returns an independent deep copy.
func (g *Grid) Clone() *Grid {
	cells := make([]Cell, len(g.cells))
	copy(cells, g.cells)
	return &Grid{rows: g.rows, cols: g.cols, cells: cells}
}

// Cells returns a row-major copy of the raw cell codes.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, len(g.cells))
	copy(out, g.cells)
	return out
}

// Rows2D returns a copy of the grid as a slice of rows.
func (g *Grid) Rows2D() [][]Cell {
	out := make([][]Cell, g.rows)
	for r := 0; r < g.rows; r++ {
		row := make([]Cell, g.cols)
		copy(row, g.cells[r*g.cols:(r+1)*g.cols])
		out[r] = row
	}
	return out
}

// Neighbors returns the in-bounds orthogonal neighbors of p in Directions order.
func (g *Grid) Neighbors(p Position) []Position {
	out := make([]Position, 0, 4)
	for _, m := range Directions {
		if n := m.Apply(p); g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// Count returns how many cells satisfy pred.
func (g *Grid) Count(pred func(Cell) bool) int {
	n := 0
	for _, c := range g.cells {
		if pred(c) {
			n++
		}
	}
	return n
}

// Each calls fn for every cell in row-major order.
func (g *Grid) Each(fn func(p Position, c Cell)) {
	for i, c := range g.cells {
		fn(Position{Row: i / g.cols, Col: i % g.cols}, c)
	}
}

// Equal reports whether two grids have identical dimensions and contents.
func (g *Grid) Equal(o *Grid) bool {
	if g.rows != o.rows || g.cols != o.cols {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}
