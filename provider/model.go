package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hupe1980/minionmesh/core"
	"github.com/hupe1980/minionmesh/logging"
	"github.com/hupe1980/minionmesh/memory"
	"github.com/hupe1980/minionmesh/model"
	"github.com/hupe1980/minionmesh/tool"
)

// ErrNoToolCall is returned when a model answers without calling decide_next_action.
var ErrNoToolCall = errors.New("provider: model did not call " + tool.DecideNextActionName)

// NoModelFlavor is voiced by minions whose guide configured no model credentials.
var NoModelFlavor = core.Flavor{
	Dialogue: "I need my guide's API key to think properly!",
	Thought:  "My connection to the hive mind seems... broken?",
}

// ModelOptions configure a ModelProvider.
type ModelOptions struct {
	Logger logging.Logger
	// SystemPrompt is a text/template rendered with SystemPromptData.
	SystemPrompt string
	// Memory receives every announced strategy; nil disables strategy recall.
	Memory *memory.InMemoryStore
	// MemoryDepth is the number of earlier strategies replayed in the prompt.
	MemoryDepth int
	// HideTargets omits the team targets from prompts.
	HideTargets bool
}

// ModelProvider asks a language model for each decision through a forced
// decide_next_action tool call.
type ModelProvider struct {
	model model.Model
	tool  *tool.DecideTool
	opts  ModelOptions
}

// NewModelProvider wraps m. A nil model yields a provider that always stays
// and complains about missing credentials.
func NewModelProvider(m model.Model, optFns ...func(o *ModelOptions)) (*ModelProvider, error) {
	opts := ModelOptions{
		Logger:       logging.NoOpLogger{},
		SystemPrompt: DefaultSystemPrompt,
		MemoryDepth:  3,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	dt, err := tool.NewDecideTool(func(o *tool.Options) { o.Logger = opts.Logger })
	if err != nil {
		return nil, err
	}

	return &ModelProvider{model: m, tool: dt, opts: opts}, nil
}

// Decide implements core.DecisionProvider.
func (p *ModelProvider) Decide(ctx context.Context, req core.DecisionRequest) (core.Decision, error) {
	if p.model == nil {
		return core.Decision{
			AgentID: req.Agent.ID,
			Round:   req.Round,
			Move:    core.MoveStay,
			Flavor:  NoModelFlavor,
		}, nil
	}

	if mv, ok := PointMove(req.Agent.Hint); ok {
		return core.Decision{
			AgentID: req.Agent.ID,
			Round:   req.Round,
			Move:    mv,
			Flavor:  Flavor(req.Agent.Personality, mv, destinationItem(req, mv)),
		}, nil
	}

	mreq, err := p.buildRequest(req)
	if err != nil {
		return core.Decision{}, err
	}

	start := time.Now()
	resp, err := model.Collect(ctx, p.model, mreq)
	p.logCall(time.Since(start), err)

	if err != nil {
		return core.Decision{}, fmt.Errorf("generate: %w", err)
	}

	tc, ok := resp.ToolCall(tool.DecideNextActionName)
	if !ok {
		return core.Decision{}, ErrNoToolCall
	}

	action, err := p.tool.Parse(ctx, tc.Function.Arguments)
	if err != nil {
		return core.Decision{}, err
	}

	d, err := action.Decision(req.Agent.ID, req.Round)
	if err != nil {
		return core.Decision{}, err
	}

	p.remember(req, action)

	return d, nil
}

func (p *ModelProvider) buildRequest(req core.DecisionRequest) (model.Request, error) {
	system, err := RenderSystemPrompt(p.opts.SystemPrompt, req)
	if err != nil {
		return model.Request{}, err
	}

	prompt := BuildPrompt(req, p.recall(req))
	if p.opts.HideTargets {
		prompt.TargetItems = nil
	}

	user, err := prompt.Marshal()
	if err != nil {
		return model.Request{}, err
	}

	return model.Request{
		Instructions: system,
		Messages:     []model.Message{{Role: model.RoleUser, Content: user}},
		Tools:        []model.ToolDefinition{tool.Definition(p.tool)},
		ToolChoice:   tool.DecideNextActionName,
	}, nil
}

// MemoryKey names the memory entries of one agent.
func MemoryKey(id core.AgentID) string { return "agent:" + strconv.Itoa(int(id)) }

func (p *ModelProvider) recall(req core.DecisionRequest) []string {
	if p.opts.Memory == nil || p.opts.MemoryDepth <= 0 {
		return nil
	}

	entries := p.opts.Memory.Recent(MemoryKey(req.Agent.ID), req.Round, p.opts.MemoryDepth)

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Content)
	}

	return out
}

func (p *ModelProvider) remember(req core.DecisionRequest, action tool.NextAction) {
	if p.opts.Memory == nil || action.Strategy == "" {
		return
	}

	if _, err := p.opts.Memory.Store(MemoryKey(req.Agent.ID), req.Round, action.Strategy, map[string]any{
		"move": action.NextMove,
	}); err != nil {
		p.opts.Logger.Warn("store strategy", "agent", int(req.Agent.ID), "error", err)
	}
}

func (p *ModelProvider) logCall(dur time.Duration, err error) {
	name := p.model.Info().Provider + "/" + p.model.Info().Name

	if ml, ok := p.opts.Logger.(*logging.MeshLogger); ok {
		ml.LogProviderCall(name, dur, err == nil, err)
		return
	}

	if err != nil {
		p.opts.Logger.Warn("provider call failed", "provider", name, "duration_ms", dur.Milliseconds(), "error", err)
		return
	}

	p.opts.Logger.Debug("provider call", "provider", name, "duration_ms", dur.Milliseconds())
}
