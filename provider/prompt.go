package provider

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/minionmesh/core"
	"github.com/hupe1980/minionmesh/internal/util"
)

// Map symbols used in prompts. Item kinds are lettered A, B, C... in catalog order.
const (
	SymbolEmpty = "0"
	SymbolSelf  = "M"
	SymbolAlly  = "F"
	SymbolEnemy = "X"
)

// gestureInstructions tell the model how to read the guide's gesture.
var gestureInstructions = []string{
	"Interpret the gesture naturally based on what it describes",
	"For pointing gestures, move in the indicated direction",
	"For facial expressions, respond accordingly",
}

// DefaultSystemPrompt is rendered with SystemPromptData.
const DefaultSystemPrompt = `You are a minion on a {{.Rows}}x{{.Cols}} board, racing a rival team to collect items.
Your guide may send you a gesture. Weigh it against the map and your own personality, then call decide_next_action.

Inputs (JSON):
- gesture: what your guide just did, or "no gesture". Without a gesture decide on your own.
- instructions: hints on how to read gestures.
- map: {{.Rows}} rows of {{.Cols}} cells. "0" is empty, "M" is you, "F" is a teammate, "X" is a rival.
{{- range .Legend}}
  "{{.Symbol}}" is a {{.Name}}.
{{- end}}
- personality: propensity_to_listen (0..1) is how strongly you follow gestures; intelligence (1..5) is how clearly you reason, low values may misread gestures; power (1..5) wins collisions; style sets the tone of everything you say.
- collected_items, team_collected and target_items describe your team's progress.
- previous_strategies are the plans you announced in earlier rounds.

Rules:
- Moves are one of up, down, left, right, stay. Moving off the board keeps you in place.
- Stepping onto an item collects it. Two minions aiming for the same cell: the stronger one gets it.
- Keep dialogue and thought short and strongly in your style.`

// LegendEntry maps a map symbol to an item name.
type LegendEntry struct {
	Symbol string
	Name   string
}

// SystemPromptData feeds DefaultSystemPrompt.
type SystemPromptData struct {
	Rows   int
	Cols   int
	Legend []LegendEntry
}

// PromptPersonality is the personality block of a prompt.
type PromptPersonality struct {
	PropensityToListen float64 `json:"propensity_to_listen"`
	Intelligence       int     `json:"intelligence"`
	Power              int     `json:"power"`
	Style              string  `json:"style"`
}

// Prompt is the JSON user message sent to a model for one decision.
type Prompt struct {
	Round              int               `json:"round"`
	Gesture            string            `json:"gesture"`
	Instructions       []string          `json:"instructions"`
	Map                [][]string        `json:"map"`
	Position           core.Position     `json:"position"`
	Personality        PromptPersonality `json:"personality"`
	CollectedItems     []string          `json:"collected_items"`
	TeamCollected      map[string]int    `json:"team_collected"`
	TargetItems        map[string]int    `json:"target_items,omitempty"`
	PreviousStrategies []string          `json:"previous_strategies,omitempty"`
}

// ItemSymbol returns the map letter of an item kind.
func ItemSymbol(kind core.ItemKind) string {
	if kind < 1 || kind > 26 {
		return "?"
	}
	return string(rune('A' + int(kind) - 1))
}

// RenderSystemPrompt renders tmpl for the board of req.
func RenderSystemPrompt(tmpl string, req core.DecisionRequest) (string, error) {
	data := SystemPromptData{}
	if req.Grid != nil {
		data.Rows, data.Cols = req.Grid.Rows(), req.Grid.Cols()
	}

	for _, kind := range req.Catalog.Kinds() {
		data.Legend = append(data.Legend, LegendEntry{Symbol: ItemSymbol(kind), Name: req.Catalog.Name(kind)})
	}

	out, err := util.RenderTemplate(tmpl, data)
	if err != nil {
		return "", fmt.Errorf("system prompt: %w", err)
	}

	return out, nil
}

// BuildPrompt renders the decision request into a Prompt.
func BuildPrompt(req core.DecisionRequest, strategies []string) Prompt {
	a := req.Agent

	allies := make(map[core.AgentID]bool, len(a.Teammates))
	for _, id := range a.Teammates {
		allies[id] = true
	}

	p := Prompt{
		Round:        req.Round,
		Gesture:      a.Hint,
		Instructions: gestureInstructions,
		Map:          renderMap(req, allies),
		Position:     a.Position,
		Personality: PromptPersonality{
			PropensityToListen: a.Personality.Obedience,
			Intelligence:       a.Personality.Intelligence,
			Power:              a.Power,
			Style:              a.Personality.Style,
		},
		CollectedItems:     make([]string, 0, len(a.Collected)),
		TeamCollected:      namedCounts(req.Catalog, a.TeamTotals),
		TargetItems:        namedCounts(req.Catalog, a.Targets),
		PreviousStrategies: strategies,
	}

	if p.Gesture == "" {
		p.Gesture = "no gesture"
	}

	for _, it := range a.Collected {
		p.CollectedItems = append(p.CollectedItems, req.Catalog.Name(it))
	}

	return p
}

// Marshal encodes the prompt as the user message body.
func (p Prompt) Marshal() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode prompt: %w", err)
	}
	return string(raw), nil
}

func renderMap(req core.DecisionRequest, allies map[core.AgentID]bool) [][]string {
	if req.Grid == nil {
		return nil
	}

	out := make([][]string, req.Grid.Rows())
	for r := range out {
		out[r] = make([]string, req.Grid.Cols())
	}

	req.Grid.Each(func(p core.Position, c core.Cell) {
		sym := SymbolEmpty
		switch {
		case p == req.Agent.Position:
			sym = SymbolSelf
		case c.IsItem():
			sym = ItemSymbol(c.Item())
		case c.IsAgent():
			id, _ := c.Agent()
			sym = SymbolEnemy
			if allies[id] {
				sym = SymbolAlly
			}
		}
		out[p.Row][p.Col] = sym
	})

	return out
}

func namedCounts(cat core.Catalog, counts map[core.ItemKind]int) map[string]int {
	out := make(map[string]int, len(counts))
	for k, n := range counts {
		if n > 0 {
			out[cat.Name(k)] += n
		}
	}

	return out
}
