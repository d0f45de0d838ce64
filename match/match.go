package match

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/minionmesh/config"
	"github.com/hupe1980/minionmesh/core"
	"github.com/hupe1980/minionmesh/gather"
	"github.com/hupe1980/minionmesh/logging"
	"github.com/hupe1980/minionmesh/resolve"
)

// Options configures a Match.
type Options struct {
	// ID overrides the generated match identifier.
	ID string
	// Rand drives board setup, random targets and arbitration. When nil a
	// source is seeded from cfg.Seed, or from the clock if that is zero.
	Rand core.Rand
	// Logger receives lifecycle and anomaly logs.
	Logger logging.Logger
	// DecisionTimeout overrides cfg.DecisionTimeout.
	DecisionTimeout time.Duration
	// OnDecision is forwarded to the gatherer.
	OnDecision func(d core.Decision)
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithRand injects the random source.
func WithRand(r core.Rand) func(o *Options) {
	return func(o *Options) { o.Rand = r }
}

// WithDecisionTimeout overrides the per-call provider deadline.
func WithDecisionTimeout(d time.Duration) func(o *Options) {
	return func(o *Options) { o.DecisionTimeout = d }
}

// Match is the single owner of a match's mutable state.
type Match struct {
	id        string
	cfg       *config.Config
	catalog   core.Catalog
	maxRounds int
	rand      core.Rand
	logger    logging.Logger
	resolver  *resolve.Resolver
	gatherer  *gather.Gatherer

	mu      sync.RWMutex
	grid    *core.Grid
	agents  []*core.Agent
	teams   []*core.Team
	hints   map[core.AgentID]string
	round   int
	phase   core.Phase
	ticket  *gather.Ticket
	outcome core.Outcome
}

// New validates cfg, builds the board and returns an Idle match. providers is
// keyed by agent id (see AgentIDs); agents without a provider always receive
// the fallback decision.
func New(cfg *config.Config, providers map[core.AgentID]core.DecisionProvider, optFns ...func(o *Options)) (*Match, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid match config: %w", err)
	}

	opts := Options{
		Logger:          logging.NoOpLogger{},
		DecisionTimeout: cfg.DecisionTimeout,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.ID == "" {
		opts.ID = core.NewID()
	}

	if opts.Rand == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		opts.Rand = core.NewRand(seed)
	}

	agents, teams := buildRoster(cfg)
	for id := range providers {
		if int(id) < 0 || int(id) >= len(agents) {
			return nil, fmt.Errorf("provider for agent %d: %w", id, core.ErrUnknownAgent)
		}
	}

	m := &Match{
		id:        opts.ID,
		cfg:       cfg,
		catalog:   cfg.Catalog(),
		maxRounds: cfg.MaxRounds,
		rand:      opts.Rand,
		logger:    opts.Logger,
		agents:    agents,
		teams:     teams,
		hints:     map[core.AgentID]string{},
	}

	m.resolver = resolve.New(func(o *resolve.Options) {
		o.Rand = opts.Rand
		o.Logger = opts.Logger
	})
	m.gatherer = gather.New(providers, func(o *gather.Options) {
		o.Timeout = opts.DecisionTimeout
		o.Logger = opts.Logger
		o.OnDecision = opts.OnDecision
	})

	if err := m.setup(); err != nil {
		return nil, err
	}

	return m, nil
}

// setup rebuilds targets, grid and agent records. Callers hold mu or own m exclusively.
func (m *Match) setup() error {
	for _, a := range m.agents {
		a.Position = a.Spawn
		a.Collected = nil
	}

	drawTargets(m.cfg, m.catalog, m.teams, m.rand)

	grid, err := buildGrid(m.cfg, m.catalog, m.agents, m.rand)
	if err != nil {
		return err
	}

	m.grid = grid
	m.round = 0
	m.phase = core.PhaseIdle
	m.ticket = nil
	m.outcome = core.Outcome{}
	m.hints = map[core.AgentID]string{}

	return nil
}

// ID returns the match identifier.
func (m *Match) ID() string { return m.id }

// Catalog returns the item catalog.
func (m *Match) Catalog() core.Catalog { return m.catalog }

// TickInterval returns the configured host loop period.
func (m *Match) TickInterval() time.Duration { return m.cfg.TickInterval() }

// Phase returns the current phase.
func (m *Match) Phase() core.Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.phase
}

// Round returns the number of fully resolved rounds.
func (m *Match) Round() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.round
}

// Outcome returns the terminal state; Finished is false while the match runs.
func (m *Match) Outcome() core.Outcome {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.outcome
}

// SetHint queues free text for an agent's next decision request. The hint is
// passed through to the provider once and never interpreted by the match.
func (m *Match) SetHint(id core.AgentID, hint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if int(id) < 0 || int(id) >= len(m.agents) {
		return fmt.Errorf("hint for agent %d: %w", id, core.ErrUnknownAgent)
	}

	m.hints[id] = hint

	return nil
}

// StartRound snapshots the board and dispatches one decision request per
// agent. It returns immediately.
func (m *Match) StartRound(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.phase {
	case core.PhaseFinished:
		return core.ErrMatchFinished
	case core.PhaseAwaitingDecisions, core.PhaseResolving:
		return core.ErrRoundInProgress
	}

	totals := m.teamTotals()
	requests := make([]core.DecisionRequest, 0, len(m.agents))
	for _, a := range m.agents {
		requests = append(requests, core.DecisionRequest{
			Round:   m.round,
			Agent:   m.agentView(a, totals),
			Grid:    m.grid.Clone(),
			Catalog: m.catalog,
		})
	}
	m.hints = map[core.AgentID]string{}

	m.ticket = m.gatherer.StartRound(ctx, m.round, requests)
	m.phase = core.PhaseAwaitingDecisions

	m.logger.Debug("match.round.started", "match", m.id, "round", m.round, "agents", len(requests))

	return nil
}

// IsRoundReady reports, without blocking, whether every decision of the
// current round has arrived.
func (m *Match) IsRoundReady() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.phase != core.PhaseAwaitingDecisions || m.ticket == nil {
		return false
	}

	return m.ticket.Poll().Ready
}

// Ticket returns the ticket of the round in flight, or nil.
func (m *Match) Ticket() *gather.Ticket {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.ticket
}

// ResolveRound runs the resolver over the completed decision set, applies the
// plan and evaluates the win condition.
func (m *Match) ResolveRound() (core.ResolvedRound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.phase {
	case core.PhaseFinished:
		return core.ResolvedRound{}, core.ErrMatchFinished
	case core.PhaseIdle:
		return core.ResolvedRound{}, core.ErrNoRound
	}

	poll := m.ticket.Poll()
	if poll.Stale {
		return core.ResolvedRound{}, core.ErrStaleTicket
	}
	if !poll.Ready {
		return core.ResolvedRound{}, fmt.Errorf("%w: %d pending", core.ErrRoundNotReady, poll.Pending)
	}

	m.phase = core.PhaseResolving

	byAgent := make(map[core.AgentID]core.Decision, len(poll.Decisions))
	for _, d := range poll.Decisions {
		byAgent[d.AgentID] = d
	}

	intents := make([]resolve.Intent, 0, len(m.agents))
	for _, a := range m.agents {
		d, ok := byAgent[a.ID]
		if !ok {
			d = core.FallbackDecision(a.ID, m.round)
		}
		intents = append(intents, resolve.Intent{Agent: a, Decision: d})
	}

	res := m.resolver.Resolve(m.grid, m.round, intents)

	if err := m.applyLocked(res); err != nil {
		return core.ResolvedRound{}, err
	}

	m.checkWinLocked()

	return res, nil
}

// ApplyResolved mutates the grid and agents according to res and advances the
// round counter. It is the only mutation entry point for board state.
func (m *Match) ApplyResolved(res core.ResolvedRound) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.applyLocked(res)
}

func (m *Match) applyLocked(res core.ResolvedRound) error {
	switch m.phase {
	case core.PhaseFinished:
		return core.ErrMatchFinished
	case core.PhaseIdle:
		return core.ErrNoRound
	}

	if res.Round != m.round {
		return fmt.Errorf("%w: resolved round %d, current round %d", core.ErrStaleTicket, res.Round, m.round)
	}

	for id, pos := range res.FinalPositions {
		if int(id) < 0 || int(id) >= len(m.agents) {
			return fmt.Errorf("apply round %d: agent %d: %w", res.Round, id, core.ErrUnknownAgent)
		}
		if !m.grid.InBounds(pos) {
			panic(fmt.Sprintf("match: agent %d resolved out of bounds at %s", id, pos))
		}
	}

	// old markers, only where the cell still carries the agent's own marker
	for _, a := range m.agents {
		if m.grid.At(a.Position) == core.AgentCell(a.ID) {
			_ = m.grid.Set(a.Position, core.Empty)
		}
	}

	for _, pos := range res.ClearedItems {
		_ = m.grid.Set(pos, core.Empty)
	}

	ids := make([]core.AgentID, 0, len(res.FinalPositions))
	for id := range res.FinalPositions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		a := m.agents[id]
		a.Position = res.FinalPositions[id]
		if kind, ok := res.Collected[id]; ok && kind != core.NoItem {
			a.Collected = append(a.Collected, kind)
		}
		_ = m.grid.Set(a.Position, core.AgentCell(id))
	}

	for pos, shared := range res.Overlaps {
		m.logger.Warn("match.overlap", "match", m.id, "round", res.Round, "cell", pos.String(), "agents", len(shared))
	}

	m.round++
	m.phase = core.PhaseIdle
	m.ticket = nil

	m.logger.Info("match.round.applied", "match", m.id, "round", res.Round, "bumped", len(res.Bumped), "collected", len(res.Collected))

	return nil
}

// CheckWin evaluates the pooled team targets and the round limit, finishing
// the match when either is met. Simultaneous winners resolve to the lowest
// team id.
func (m *Match) CheckWin() core.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.checkWinLocked()
}

func (m *Match) checkWinLocked() core.Outcome {
	if m.phase == core.PhaseFinished {
		return m.outcome
	}

	totals := m.teamTotals()
	for _, t := range m.teams {
		if core.Satisfies(t.Targets, totals[t.ID]) {
			m.finish(core.Outcome{Finished: true, Winner: t.ID, Rounds: m.round})
			return m.outcome
		}
	}

	if m.maxRounds > 0 && m.round >= m.maxRounds {
		m.finish(core.Outcome{Finished: true, Draw: true, Winner: -1, Rounds: m.round})
	}

	return m.outcome
}

func (m *Match) finish(o core.Outcome) {
	m.outcome = o
	m.phase = core.PhaseFinished
	m.logger.Info("match.finished", "match", m.id, "rounds", o.Rounds, "draw", o.Draw, "winner", int(o.Winner))
}

// Reset discards any round in flight, rebuilds the board, redraws random
// targets and returns the match to Idle with the round counter at zero.
func (m *Match) Reset() error {
	m.gatherer.Invalidate()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.setup(); err != nil {
		return err
	}

	m.logger.Info("match.reset", "match", m.id)

	return nil
}

// teamTotals pools collected items per team. Callers hold mu.
func (m *Match) teamTotals() map[core.TeamID]map[core.ItemKind]int {
	out := make(map[core.TeamID]map[core.ItemKind]int, len(m.teams))
	for _, t := range m.teams {
		out[t.ID] = map[core.ItemKind]int{}
	}
	for _, a := range m.agents {
		for _, kind := range a.Collected {
			out[a.TeamID][kind]++
		}
	}
	return out
}

func (m *Match) agentView(a *core.Agent, totals map[core.TeamID]map[core.ItemKind]int) core.AgentView {
	team := m.teams[a.TeamID]

	teamTotals := make(map[core.ItemKind]int, len(totals[a.TeamID]))
	for k, v := range totals[a.TeamID] {
		teamTotals[k] = v
	}
	targets := make(map[core.ItemKind]int, len(team.Targets))
	for k, v := range team.Targets {
		targets[k] = v
	}
	mates := make([]core.AgentID, 0, len(team.Members))
	for _, id := range team.Members {
		if id != a.ID {
			mates = append(mates, id)
		}
	}

	return core.AgentView{
		ID:          a.ID,
		Name:        a.Name,
		TeamID:      a.TeamID,
		Position:    a.Position,
		Power:       a.Power,
		Personality: a.Personality,
		Collected:   append([]core.ItemKind(nil), a.Collected...),
		TeamTotals:  teamTotals,
		Targets:     targets,
		Teammates:   mates,
		Hint:        m.hints[a.ID],
	}
}
