package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hupe1980/minionmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- FunctionTool Tests --------------------

var sumParams = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"a": map[string]any{"type": "number"},
		"b": map[string]any{"type": "number"},
	},
	"required": []string{"a", "b"},
}

func sum(_ context.Context, args map[string]any) (any, error) {
	a, err := args["a"].(json.Number).Float64()
	if err != nil {
		return nil, err
	}
	b, err := args["b"].(json.Number).Float64()
	if err != nil {
		return nil, err
	}
	return a + b, nil
}

func TestFunctionTool_Success(t *testing.T) {
	sumTool, err := NewFunctionTool("sum", "Add numbers", sumParams, sum)
	require.NoError(t, err)

	result, err := sumTool.Call(context.Background(), json.RawMessage(`{"a": 2, "b": 3.5}`))
	require.NoError(t, err)
	assert.Equal(t, 5.5, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	sumTool, err := NewFunctionTool("sum", "Add numbers", sumParams, sum)
	require.NoError(t, err)

	for _, raw := range []string{`{"a": 1}`, `{"a": "x", "b": 2}`, `[1, 2]`, ``} {
		_, err := sumTool.Call(context.Background(), json.RawMessage(raw))
		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr, raw)
		assert.Equal(t, CodeValidation, toolErr.Code, raw)
		assert.Equal(t, "sum", toolErr.Tool)
	}
}

func TestFunctionTool_DecodeError(t *testing.T) {
	sumTool, err := NewFunctionTool("sum", "Add numbers", sumParams, sum)
	require.NoError(t, err)

	_, err = sumTool.Call(context.Background(), json.RawMessage(`{"a": 1,`))
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeDecode, toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}

	execTool, err := NewFunctionTool("fail", "Fails", params, func(context.Context, map[string]any) (any, error) {
		return nil, errors.New("boom")
	})
	require.NoError(t, err)

	_, err = execTool.Call(context.Background(), json.RawMessage(`{}`))
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Equal(t, "boom", toolErr.Message)

	custom := NewToolError("fail", "custom", "E_CUSTOM")
	fwdTool, err := NewFunctionTool("fail", "Fails", params, func(context.Context, map[string]any) (any, error) {
		return nil, custom
	})
	require.NoError(t, err)

	_, err = fwdTool.Call(context.Background(), nil)
	assert.Same(t, custom, err)
}

func TestFunctionTool_InvalidSchema(t *testing.T) {
	_, err := NewFunctionTool("bad", "Bad", map[string]any{"type": 12}, sum)
	assert.Error(t, err)
}

func TestDefinition(t *testing.T) {
	sumTool, err := NewFunctionTool("sum", "Add numbers", sumParams, sum)
	require.NoError(t, err)

	def := Definition(sumTool)
	assert.Equal(t, "function", def.Type)
	assert.Equal(t, "sum", def.Function.Name)
	assert.Equal(t, "Add numbers", def.Function.Description)
	assert.Equal(t, sumParams, def.Function.Parameters)
}

// -------------------- decide_next_action --------------------

func TestDecideTool_Parse(t *testing.T) {
	dt, err := NewDecideTool()
	require.NoError(t, err)
	assert.Equal(t, DecideNextActionName, dt.Name())

	action, err := dt.Parse(context.Background(), json.RawMessage(`{
		"strategy": "grab the donut",
		"next_move": "left",
		"dialogue": "Banana!",
		"thought": "donut is left"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "left", action.NextMove)

	d, err := action.Decision(3, 7)
	require.NoError(t, err)
	assert.Equal(t, core.Decision{
		AgentID: 3,
		Round:   7,
		Move:    core.MoveLeft,
		Flavor:  core.Flavor{Dialogue: "Banana!", Thought: "donut is left", Strategy: "grab the donut"},
	}, d)
}

func TestDecideTool_RejectsUnknownMove(t *testing.T) {
	dt, err := NewDecideTool()
	require.NoError(t, err)

	_, err = dt.Parse(context.Background(), json.RawMessage(
		`{"strategy": "s", "next_move": "jump", "dialogue": "d", "thought": "t"}`))
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

func TestDecideTool_RequiresAllFields(t *testing.T) {
	dt, err := NewDecideTool()
	require.NoError(t, err)

	_, err = dt.Parse(context.Background(), json.RawMessage(`{"next_move": "up"}`))
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

func TestDecideTool_Schema(t *testing.T) {
	dt, err := NewDecideTool()
	require.NoError(t, err)

	props := dt.Parameters()["properties"].(map[string]any)
	nextMove := props["next_move"].(map[string]any)
	assert.Equal(t, []any{"up", "down", "left", "right", "stay"}, nextMove["enum"])
	assert.ElementsMatch(t, []any{"strategy", "next_move", "dialogue", "thought"}, dt.Parameters()["required"])
}

// -------------------- ToolError Formatting --------------------

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("demo", "something failed", "E123")
	assert.Equal(t, "tool error [E123] in demo: something failed", err.Error())

	bare := &ToolError{Tool: "demo", Message: "oops"}
	assert.Equal(t, "tool error in demo: oops", bare.Error())
}
