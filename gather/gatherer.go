package gather

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/minionmesh/core"
	"github.com/hupe1980/minionmesh/logging"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 2 * time.Second

// Options configures a Gatherer.
type Options struct {
	// Timeout bounds each provider call. Zero selects DefaultTimeout.
	Timeout time.Duration
	// Logger receives provider failures and stale drops.
	Logger logging.Logger
	// OnDecision, if set, is invoked from the reporting goroutine for every
	// decision accepted into a live ticket.
	OnDecision func(d core.Decision)
}

// Gatherer fans decision requests out to the providers of a match.
type Gatherer struct {
	providers  map[core.AgentID]core.DecisionProvider
	timeout    time.Duration
	logger     logging.Logger
	onDecision func(d core.Decision)

	mu      sync.Mutex
	current *Ticket
}

// New creates a Gatherer over a fixed provider table.
func New(providers map[core.AgentID]core.DecisionProvider, optFns ...func(o *Options)) *Gatherer {
	opts := Options{
		Timeout: DefaultTimeout,
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	table := make(map[core.AgentID]core.DecisionProvider, len(providers))
	for id, p := range providers {
		table[id] = p
	}

	return &Gatherer{
		providers:  table,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
		onDecision: opts.OnDecision,
	}
}

// Timeout returns the per-call deadline.
func (g *Gatherer) Timeout() time.Duration { return g.timeout }

// StartRound dispatches every request and returns the ticket tracking them. Any
// ticket from an earlier round is invalidated first. StartRound never blocks on
// a provider.
func (g *Gatherer) StartRound(ctx context.Context, round int, requests []core.DecisionRequest) *Ticket {
	roundCtx, cancel := context.WithCancel(ctx)

	t := &Ticket{
		round:       round,
		gate:        core.NewCompletionGate(len(requests)),
		decisions:   make(map[core.AgentID]core.Decision, len(requests)),
		invalidated: make(chan struct{}),
		cancel:      cancel,
	}

	g.mu.Lock()
	prev := g.current
	g.current = t
	g.mu.Unlock()

	if prev != nil {
		prev.Invalidate()
	}

	for _, req := range requests {
		go func(req core.DecisionRequest) {
			d := g.decide(roundCtx, req)
			g.report(t, d)
		}(req)
	}

	g.logger.Debug("gather.round.started", "round", round, "requests", len(requests))

	return t
}

// Current returns the live ticket, or nil.
func (g *Gatherer) Current() *Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.current
}

// Invalidate marks the live ticket stale and cancels its outstanding calls.
func (g *Gatherer) Invalidate() {
	g.mu.Lock()
	t := g.current
	g.current = nil
	g.mu.Unlock()

	if t != nil {
		t.Invalidate()
		g.logger.Debug("gather.round.invalidated", "round", t.round)
	}
}

type callResult struct {
	decision core.Decision
	err      error
}

// decide produces exactly one decision for req. It never panics and returns
// no later than the configured timeout.
func (g *Gatherer) decide(ctx context.Context, req core.DecisionRequest) core.Decision {
	id := req.Agent.ID

	provider, ok := g.providers[id]
	if !ok || provider == nil {
		g.logger.Warn("gather.provider.missing", "agent", int(id), "round", req.Round)
		return core.FallbackDecision(id, req.Round)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resCh := make(chan callResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resCh <- callResult{err: &panicError{value: r}}
			}
		}()

		d, err := provider.Decide(callCtx, req)
		resCh <- callResult{decision: d, err: err}
	}()

	select {
	case res := <-resCh:
		if res.err != nil {
			g.logger.Warn("gather.provider.error", "agent", int(id), "round", req.Round, "error", res.err, "duration", time.Since(start))
			return core.FallbackDecision(id, req.Round)
		}
		if !res.decision.Move.Valid() {
			g.logger.Warn("gather.provider.invalid_move", "agent", int(id), "round", req.Round, "move", int(res.decision.Move))
			return core.FallbackDecision(id, req.Round)
		}
		d := res.decision
		d.AgentID = id
		d.Round = req.Round
		return d
	case <-callCtx.Done():
		g.logger.Warn("gather.provider.timeout", "agent", int(id), "round", req.Round, "timeout", g.timeout, "cause", callCtx.Err())
		return core.FallbackDecision(id, req.Round)
	}
}

func (g *Gatherer) report(t *Ticket, d core.Decision) {
	accepted, err := t.record(d)
	if err != nil {
		g.logger.Error("gather.report.rejected", "agent", int(d.AgentID), "round", t.round, "error", err)
		return
	}
	if !accepted {
		g.logger.Debug("gather.report.stale", "agent", int(d.AgentID), "round", t.round)
		return
	}
	if g.onDecision != nil {
		g.onDecision(d)
	}
}

// panicError converts a recovered provider panic into an error.
type panicError struct {
	value any
}

func (p *panicError) Error() string { return fmt.Sprintf("provider panic: %v", p.value) }

// Ticket tracks the decisions of one round.
type Ticket struct {
	round       int
	gate        *core.CompletionGate
	cancel      context.CancelFunc
	invalidated chan struct{}
	once        sync.Once

	mu        sync.Mutex
	stale     bool
	decisions map[core.AgentID]core.Decision
}

// PollResult is the non-blocking view of a ticket.
type PollResult struct {
	Ready     bool
	Stale     bool
	Pending   int
	Decisions []core.Decision // ascending agent id; complete only when Ready
}

// Round returns the round number the ticket was issued for.
func (t *Ticket) Round() int { return t.round }

// Stale reports whether the ticket was replaced or invalidated.
func (t *Ticket) Stale() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.stale
}

// Invalidate marks the ticket stale and cancels outstanding provider calls.
func (t *Ticket) Invalidate() {
	t.once.Do(func() {
		t.mu.Lock()
		t.stale = true
		t.mu.Unlock()

		close(t.invalidated)
		t.cancel()
	})
}

// Poll returns the current state without blocking. Once ready, repeated polls
// return the same decision set.
func (t *Ticket) Poll() PollResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	return PollResult{
		Ready:     !t.stale && t.gate.Complete(),
		Stale:     t.stale,
		Pending:   t.gate.Remaining(),
		Decisions: t.snapshot(),
	}
}

// Wait blocks until every decision arrived, the ticket goes stale, or ctx ends.
func (t *Ticket) Wait(ctx context.Context) ([]core.Decision, error) {
	select {
	case <-t.gate.Wait():
	case <-t.invalidated:
		return nil, core.ErrStaleTicket
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stale {
		return nil, core.ErrStaleTicket
	}

	return t.snapshot(), nil
}

// record stores d unless the ticket is stale or the agent already reported.
func (t *Ticket) record(d core.Decision) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stale {
		return false, nil
	}

	if _, dup := t.decisions[d.AgentID]; dup {
		return false, fmt.Errorf("agent %d reported twice", d.AgentID)
	}

	opened, err := t.gate.Mark()
	if err != nil {
		return false, err
	}

	t.decisions[d.AgentID] = d

	if opened {
		t.cancel()
	}

	return true, nil
}

// snapshot must be called with t.mu held.
func (t *Ticket) snapshot() []core.Decision {
	out := make([]core.Decision, 0, len(t.decisions))
	for _, d := range t.decisions {
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })

	return out
}
