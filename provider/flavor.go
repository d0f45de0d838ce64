package provider

import (
	"fmt"
	"strings"

	"github.com/hupe1980/minionmesh/core"
)

// Personality styles with dedicated dialogue lines.
const (
	StyleCalm     = "calm"
	StyleHectic   = "hectic"
	StyleBubbly   = "bubbly"
	StyleSerious  = "serious"
	StyleConfused = "confused"
)

// Styles lists every style with dedicated dialogue lines.
var Styles = []string{StyleCalm, StyleHectic, StyleBubbly, StyleSerious, StyleConfused}

// Flavor produces the dialogue and thought a minion voices for a move. item is
// the name of the item in the destination cell or empty.
func Flavor(p core.Personality, mv core.Move, item string) core.Flavor {
	var dialogue, thought string

	move := mv.String()

	switch strings.ToLower(p.Style) {
	case StyleCalm:
		if item != "" {
			dialogue = fmt.Sprintf("I see a %s. Let me get that.", item)
			thought = fmt.Sprintf("The guide wants me to collect %ss, I believe.", item)
		} else {
			dialogue = fmt.Sprintf("Moving %s.", move)
			thought = "I should keep looking for important items."
		}
	case StyleHectic:
		if item != "" {
			dialogue = fmt.Sprintf("OH! %s! GOTTA GET IT NOW!", strings.ToUpper(item))
			thought = fmt.Sprintf("NEED %s! NEED IT BAD! Was that right??", strings.ToUpper(item))
		} else {
			dialogue = fmt.Sprintf("ZOOMING %s! GOTTA GO FAST!", strings.ToUpper(move))
			thought = "WHERE'S THE STUFF? GOTTA FIND THE THINGS!"
		}
	case StyleBubbly:
		if item != "" {
			dialogue = fmt.Sprintf("Ooooh %s time, let's gooo!", item)
			thought = fmt.Sprintf("Hmm... hope I got that right! Or maybe it was something else? Oh well, %s!", strings.ToUpper(item))
		} else {
			dialogue = fmt.Sprintf("La la la~ Going %s~", move)
			thought = "What was I supposed to be looking for again? Oh, something fun!"
		}
	case StyleSerious:
		if item != "" {
			dialogue = fmt.Sprintf("Target acquired: %s. Moving to collect.", item)
			thought = fmt.Sprintf("Based on the guide's signal, the %s is a priority target.", item)
		} else {
			dialogue = fmt.Sprintf("Proceeding %s.", move)
			thought = "Must locate additional priority items. Analyzing environment."
		}
	case StyleConfused:
		if item != "" {
			dialogue = fmt.Sprintf("Is... is that a %s? I think I should grab it?", item)
			thought = fmt.Sprintf("Wait, was I supposed to get %ss? Or avoid them? Oh no...", item)
		} else {
			dialogue = fmt.Sprintf("I'll try... %s? I guess?", move)
			thought = "What did that gesture mean again? So many rules to remember..."
		}
	}

	if p.Intelligence <= 2 {
		thought += " ...I think?"
	}

	return core.Flavor{Dialogue: dialogue, Thought: thought}
}

// destinationItem names the item an agent at pos would step onto with mv.
func destinationItem(req core.DecisionRequest, mv core.Move) string {
	if req.Grid == nil {
		return ""
	}

	dest := mv.Apply(req.Agent.Position)
	if !req.Grid.InBounds(dest) {
		return ""
	}

	if kind := req.Grid.At(dest).Item(); kind != core.NoItem {
		return req.Catalog.Name(kind)
	}

	return ""
}
