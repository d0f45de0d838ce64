package provider

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/hupe1980/minionmesh/core"
)

// ErrUnknownGesture is returned by ParseGesture for hints outside the gesture grammar.
var ErrUnknownGesture = errors.New("unknown gesture")

// GestureKind classifies a guide gesture.
type GestureKind int

const (
	// GestureNone means no gesture was made.
	GestureNone GestureKind = iota
	// GesturePoint orders a move in one direction.
	GesturePoint
	// GestureWink favors donuts (left eye) or sushi (right eye).
	GestureWink
	// GestureNod favors bananas.
	GestureNod
)

// Gesture is a parsed guide hint.
type Gesture struct {
	Kind      GestureKind
	Direction core.Move // GesturePoint only
	Side      string    // GestureWink only: "left" or "right"
}

// FavoredItem returns the catalog name an item-preference gesture asks for.
func (g Gesture) FavoredItem() (string, bool) {
	switch {
	case g.Kind == GestureWink && g.Side == "left":
		return "donut", true
	case g.Kind == GestureWink && g.Side == "right":
		return "sushi", true
	case g.Kind == GestureNod:
		return "banana", true
	default:
		return "", false
	}
}

type gestureAST struct {
	Point *string `parser:"  \"point\" @(\"up\" | \"down\" | \"left\" | \"right\")"`
	Wink  *string `parser:"| \"wink\" @(\"left\" | \"right\") \"eye\""`
	Nod   bool    `parser:"| @\"nod\" \"twice\""`
}

var gestureLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Word", Pattern: `[a-z]+`},
	{Name: "Other", Pattern: `[^a-z\s]+`},
})

var gestureParser = participle.MustBuild[gestureAST](
	participle.Lexer(gestureLexer),
	participle.Elide("Whitespace"),
)

// ParseGesture reads a case-insensitive guide hint such as "point left",
// "wink right eye" or "nod twice". An empty hint is GestureNone.
func ParseGesture(hint string) (Gesture, error) {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" {
		return Gesture{}, nil
	}

	ast, err := gestureParser.ParseString("", hint)
	if err != nil {
		return Gesture{}, fmt.Errorf("%w %q: %v", ErrUnknownGesture, hint, err)
	}

	switch {
	case ast.Point != nil:
		mv, err := core.ParseMove(*ast.Point)
		if err != nil {
			return Gesture{}, err
		}
		return Gesture{Kind: GesturePoint, Direction: mv}, nil
	case ast.Wink != nil:
		return Gesture{Kind: GestureWink, Side: *ast.Wink}, nil
	case ast.Nod:
		return Gesture{Kind: GestureNod}, nil
	default:
		return Gesture{}, fmt.Errorf("%w %q", ErrUnknownGesture, hint)
	}
}

// PointMove interprets a "point <direction>" gesture as a direct move order.
func PointMove(hint string) (core.Move, bool) {
	g, err := ParseGesture(hint)
	if err != nil || g.Kind != GesturePoint {
		return core.MoveStay, false
	}
	return g.Direction, true
}
