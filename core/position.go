package core

import (
	"fmt"
	"strings"
)

// Position addresses a grid cell by row and column (zero based).
type Position struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// Pos is shorthand for Position{Row: row, Col: col}.
func Pos(row, col int) Position { return Position{Row: row, Col: col} }

// Add returns the position offset by the given deltas.
func (p Position) Add(dRow, dCol int) Position {
	return Position{Row: p.Row + dRow, Col: p.Col + dCol}
}

// Manhattan returns the L1 distance between two positions.
func (p Position) Manhattan(o Position) int {
	return abs(p.Row-o.Row) + abs(p.Col-o.Col)
}

// Less orders positions row-major.
func (p Position) Less(o Position) bool {
	if p.Row != o.Row {
		return p.Row < o.Row
	}
	return p.Col < o.Col
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.Row, p.Col) }

// Move is one of the five enumerated directions an agent may choose per round.
type Move int

const (
	// MoveStay keeps the agent in place. It is the zero value.
	MoveStay Move = iota
	// MoveUp decrements the row.
	MoveUp
	// MoveDown increments the row.
	MoveDown
	// MoveLeft decrements the column.
	MoveLeft
	// MoveRight increments the column.
	MoveRight
)

// Moves lists every valid move in a stable order.
var Moves = []Move{MoveUp, MoveDown, MoveLeft, MoveRight, MoveStay}

// Directions lists the four orthogonal moves.
var Directions = []Move{MoveUp, MoveDown, MoveLeft, MoveRight}

// String returns the lower-case wire name of the move.
func (m Move) String() string {
	switch m {
	case MoveStay:
		return "stay"
	case MoveUp:
		return "up"
	case MoveDown:
		return "down"
	case MoveLeft:
		return "left"
	case MoveRight:
		return "right"
	default:
		return fmt.Sprintf("move(%d)", int(m))
	}
}

// Valid reports whether m is one of the enumerated moves.
func (m Move) Valid() bool { return m >= MoveStay && m <= MoveRight }

// Delta returns the row/column offset of the move.
func (m Move) Delta() (int, int) {
	switch m {
	case MoveUp:
		return -1, 0
	case MoveDown:
		return 1, 0
	case MoveLeft:
		return 0, -1
	case MoveRight:
		return 0, 1
	default:
		return 0, 0
	}
}

// Apply returns the position reached by applying m to p. It performs no bounds checks.
func (m Move) Apply(p Position) Position {
	dr, dc := m.Delta()
	return p.Add(dr, dc)
}

// ParseMove converts a case-insensitive wire name into a Move.
func ParseMove(s string) (Move, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stay", "":
		return MoveStay, nil
	case "up":
		return MoveUp, nil
	case "down":
		return MoveDown, nil
	case "left":
		return MoveLeft, nil
	case "right":
		return MoveRight, nil
	default:
		return MoveStay, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Move) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Move) UnmarshalText(b []byte) error {
	mv, err := ParseMove(string(b))
	if err != nil {
		return err
	}
	*m = mv
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
