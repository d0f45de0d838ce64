package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/minionmesh/core"
)

// DecideNextActionName is the tool every model-driven minion is forced to call.
const DecideNextActionName = "decide_next_action"

const decideDescription = "Decide the next action for the minion based on the current game state, " +
	"the guide's gestures and the minion's personality."

// NextAction is the argument object of decide_next_action.
type NextAction struct {
	Strategy string `json:"strategy" description:"Your high-level strategy for this turn."`
	NextMove string `json:"next_move" enum:"up,down,left,right,stay" description:"The next move to make."`
	Dialogue string `json:"dialogue" description:"What you say out loud, in character."`
	Thought  string `json:"thought" description:"Your private reasoning for this move."`
}

// Move parses NextMove.
func (a NextAction) Move() (core.Move, error) { return core.ParseMove(a.NextMove) }

// Decision converts the action into a decision for the given agent and round.
func (a NextAction) Decision(id core.AgentID, round int) (core.Decision, error) {
	mv, err := a.Move()
	if err != nil {
		return core.Decision{}, err
	}

	return core.Decision{
		AgentID: id,
		Round:   round,
		Move:    mv,
		Flavor: core.Flavor{
			Dialogue: a.Dialogue,
			Thought:  a.Thought,
			Strategy: a.Strategy,
		},
	}, nil
}

// DecideTool validates decide_next_action calls and decodes them into NextAction.
type DecideTool struct {
	*FunctionTool
}

// NewDecideTool builds the decide_next_action tool.
func NewDecideTool(optFns ...func(o *Options)) (*DecideTool, error) {
	ft, err := NewFunctionToolFromStruct(DecideNextActionName, decideDescription, NextAction{}, decodeNextAction, optFns...)
	if err != nil {
		return nil, err
	}

	return &DecideTool{FunctionTool: ft}, nil
}

// Parse runs the tool on raw arguments and returns the typed action.
func (t *DecideTool) Parse(ctx context.Context, raw json.RawMessage) (NextAction, error) {
	out, err := t.Call(ctx, raw)
	if err != nil {
		return NextAction{}, err
	}

	action, ok := out.(NextAction)
	if !ok {
		return NextAction{}, NewToolError(t.Name(), fmt.Sprintf("unexpected result %T", out), CodeExecution)
	}

	return action, nil
}

func decodeNextAction(_ context.Context, args map[string]any) (any, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}

	var action NextAction
	if err := json.Unmarshal(raw, &action); err != nil {
		return nil, &ToolError{Tool: DecideNextActionName, Message: err.Error(), Code: CodeDecode}
	}

	return action, nil
}
