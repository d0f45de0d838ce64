package core

import "fmt"

// ItemKind identifies a collectible item. Valid kinds start at 1; NoItem marks absence.
type ItemKind int

// NoItem is the zero ItemKind and never appears on the grid.
const NoItem ItemKind = 0

// Cell is the integer code stored in a grid cell. It is a tagged union:
//
//	0          empty
//	k > 0      item of kind k
//	-(id+1)    marker of agent id
type Cell int

// Empty is the code of an empty cell.
const Empty Cell = 0

// ItemCell returns the cell code holding an item of the given kind.
func ItemCell(kind ItemKind) Cell { return Cell(kind) }

// AgentCell returns the marker code for an agent.
func AgentCell(id AgentID) Cell { return Cell(-int(id) - 1) }

// IsEmpty reports whether the cell holds neither an item nor an agent.
func (c Cell) IsEmpty() bool { return c == Empty }

// IsItem reports whether the cell holds an item.
func (c Cell) IsItem() bool { return c > 0 }

// IsAgent reports whether the cell holds an agent marker.
func (c Cell) IsAgent() bool { return c < 0 }

// Item returns the item kind held by the cell or NoItem.
func (c Cell) Item() ItemKind {
	if !c.IsItem() {
		return NoItem
	}
	return ItemKind(c)
}

// Agent returns the agent whose marker the cell holds.
func (c Cell) Agent() (AgentID, bool) {
	if !c.IsAgent() {
		return 0, false
	}
	return AgentID(-int(c) - 1), true
}

func (c Cell) String() string {
	switch {
	case c.IsEmpty():
		return "empty"
	case c.IsItem():
		return fmt.Sprintf("item:%d", int(c))
	default:
		id, _ := c.Agent()
		return fmt.Sprintf("agent:%d", int(id))
	}
}

// Catalog names the item kinds of a match. Index i holds the name of kind i+1.
type Catalog []string

// DefaultCatalog is the stock item set: sushi, donut and banana.
var DefaultCatalog = Catalog{"sushi", "donut", "banana"}

// Kinds returns every item kind of the catalog in ascending order.
func (c Catalog) Kinds() []ItemKind {
	kinds := make([]ItemKind, len(c))
	for i := range c {
		kinds[i] = ItemKind(i + 1)
	}
	return kinds
}

// Name returns the display name of a kind.
func (c Catalog) Name(kind ItemKind) string {
	if kind < 1 || int(kind) > len(c) {
		return fmt.Sprintf("item%d", int(kind))
	}
	return c[kind-1]
}

// Lookup resolves a name to its kind.
func (c Catalog) Lookup(name string) (ItemKind, bool) {
	for i, n := range c {
		if n == name {
			return ItemKind(i + 1), true
		}
	}
	return NoItem, false
}
