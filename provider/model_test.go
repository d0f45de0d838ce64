package provider

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hupe1980/minionmesh/core"
	"github.com/hupe1980/minionmesh/memory"
	"github.com/hupe1980/minionmesh/model"
	"github.com/hupe1980/minionmesh/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func action(move, strategy string) map[string]string {
	return map[string]string{
		"strategy":  strategy,
		"next_move": move,
		"dialogue":  "Bello!",
		"thought":   "banana?",
	}
}

func modelRequest(t *testing.T) core.DecisionRequest {
	t.Helper()

	req := request(t, 3, 4, core.Pos(1, 1), core.Personality{Style: StyleBubbly, Intelligence: 3, Obedience: 0.8},
		map[core.Position]core.Cell{
			core.Pos(0, 0): core.ItemCell(sushi),
			core.Pos(2, 3): core.ItemCell(banana),
			core.Pos(1, 2): core.AgentCell(1),
			core.Pos(0, 3): core.AgentCell(2),
		})
	req.Agent.Teammates = []core.AgentID{1}
	req.Agent.Collected = []core.ItemKind{donut}
	req.Agent.TeamTotals = map[core.ItemKind]int{donut: 1}
	req.Agent.Targets = map[core.ItemKind]int{sushi: 2, donut: 1}

	return req
}

func TestModelProvider_NoModel(t *testing.T) {
	p, err := NewModelProvider(nil)
	require.NoError(t, err)

	d, err := p.Decide(context.Background(), modelRequest(t))
	require.NoError(t, err)
	assert.Equal(t, core.MoveStay, d.Move)
	assert.Equal(t, NoModelFlavor, d.Flavor)
	assert.False(t, d.Fallback)
}

func TestModelProvider_ForcedToolCall(t *testing.T) {
	m := model.NewMockModel("mock-1", "mock")
	require.NoError(t, m.AddToolCall(tool.DecideNextActionName, action("left", "hug the wall")))

	p, err := NewModelProvider(m)
	require.NoError(t, err)

	d, err := p.Decide(context.Background(), modelRequest(t))
	require.NoError(t, err)
	assert.Equal(t, core.Decision{
		AgentID: 0,
		Round:   1,
		Move:    core.MoveLeft,
		Flavor:  core.Flavor{Dialogue: "Bello!", Thought: "banana?", Strategy: "hug the wall"},
	}, d)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	sent := reqs[0]

	assert.Equal(t, tool.DecideNextActionName, sent.ToolChoice)
	require.Len(t, sent.Tools, 1)
	assert.Equal(t, tool.DecideNextActionName, sent.Tools[0].Function.Name)
	assert.Contains(t, sent.Instructions, "3x4 board")
	assert.Contains(t, sent.Instructions, `"A" is a sushi.`)
	assert.Contains(t, sent.Instructions, `"C" is a banana.`)

	require.Len(t, sent.Messages, 1)
	assert.Equal(t, model.RoleUser, sent.Messages[0].Role)

	var prompt Prompt
	require.NoError(t, json.Unmarshal([]byte(sent.Messages[0].Content), &prompt))
	assert.Equal(t, "no gesture", prompt.Gesture)
	assert.Equal(t, [][]string{
		{"A", "0", "0", "X"},
		{"0", "M", "F", "0"},
		{"0", "0", "0", "C"},
	}, prompt.Map)
	assert.Equal(t, []string{"donut"}, prompt.CollectedItems)
	assert.Equal(t, map[string]int{"donut": 1}, prompt.TeamCollected)
	assert.Equal(t, map[string]int{"sushi": 2, "donut": 1}, prompt.TargetItems)
	assert.Equal(t, PromptPersonality{PropensityToListen: 0.8, Intelligence: 3, Power: 3, Style: StyleBubbly}, prompt.Personality)
	assert.Empty(t, prompt.PreviousStrategies)
}

func TestModelProvider_HideTargets(t *testing.T) {
	m := model.NewMockModel("mock-1", "mock")
	require.NoError(t, m.AddToolCall(tool.DecideNextActionName, action("up", "s")))

	p, err := NewModelProvider(m, func(o *ModelOptions) { o.HideTargets = true })
	require.NoError(t, err)

	_, err = p.Decide(context.Background(), modelRequest(t))
	require.NoError(t, err)

	var prompt Prompt
	require.NoError(t, json.Unmarshal([]byte(m.Requests()[0].Messages[0].Content), &prompt))
	assert.Nil(t, prompt.TargetItems)
}

func TestModelProvider_PointGestureSkipsModel(t *testing.T) {
	m := model.NewMockModel("mock-1", "mock")
	p, err := NewModelProvider(m)
	require.NoError(t, err)

	req := modelRequest(t)
	req.Agent.Hint = "point up"

	d, err := p.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, core.MoveUp, d.Move)
	assert.Empty(t, m.Requests())
}

func TestModelProvider_Errors(t *testing.T) {
	t.Run("no tool call", func(t *testing.T) {
		m := model.NewMockModel("mock-1", "mock")
		m.AddResponse(model.Response{Text: "I would rather not.", FinishReason: "stop"})

		p, err := NewModelProvider(m)
		require.NoError(t, err)

		_, err = p.Decide(context.Background(), modelRequest(t))
		assert.ErrorIs(t, err, ErrNoToolCall)
	})

	t.Run("move outside enum", func(t *testing.T) {
		m := model.NewMockModel("mock-1", "mock")
		require.NoError(t, m.AddToolCall(tool.DecideNextActionName, action("jump", "s")))

		p, err := NewModelProvider(m)
		require.NoError(t, err)

		_, err = p.Decide(context.Background(), modelRequest(t))
		var toolErr *tool.ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, tool.CodeValidation, toolErr.Code)
	})

	t.Run("model failure", func(t *testing.T) {
		m := model.NewMockModel("mock-1", "mock")
		boom := errors.New("rate limited")
		m.AddError(boom)

		p, err := NewModelProvider(m)
		require.NoError(t, err)

		_, err = p.Decide(context.Background(), modelRequest(t))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("bad system prompt", func(t *testing.T) {
		m := model.NewMockModel("mock-1", "mock")
		p, err := NewModelProvider(m, func(o *ModelOptions) { o.SystemPrompt = "{{.Rows" })
		require.NoError(t, err)

		_, err = p.Decide(context.Background(), modelRequest(t))
		assert.Error(t, err)
		assert.Empty(t, m.Requests())
	})
}

func TestModelProvider_RecallsStrategies(t *testing.T) {
	m := model.NewMockModel("mock-1", "mock")
	require.NoError(t, m.AddToolCall(tool.DecideNextActionName, action("up", "go north")))
	require.NoError(t, m.AddToolCall(tool.DecideNextActionName, action("left", "then west")))
	require.NoError(t, m.AddToolCall(tool.DecideNextActionName, action("stay", "rest")))

	mem := memory.NewInMemoryStore()
	p, err := NewModelProvider(m, func(o *ModelOptions) {
		o.Memory = mem
		o.MemoryDepth = 1
	})
	require.NoError(t, err)

	for round := 1; round <= 3; round++ {
		req := modelRequest(t)
		req.Round = round
		_, err := p.Decide(context.Background(), req)
		require.NoError(t, err)
	}

	reqs := m.Requests()
	require.Len(t, reqs, 3)

	strategies := func(i int) []string {
		var prompt Prompt
		require.NoError(t, json.Unmarshal([]byte(reqs[i].Messages[0].Content), &prompt))
		return prompt.PreviousStrategies
	}

	assert.Empty(t, strategies(0))
	assert.Equal(t, []string{"go north"}, strategies(1))
	assert.Equal(t, []string{"then west"}, strategies(2))

	assert.Len(t, mem.Recent(MemoryKey(0), -1, 0), 3)
}
