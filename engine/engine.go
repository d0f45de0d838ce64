package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hupe1980/minionmesh/artifact"
	"github.com/hupe1980/minionmesh/core"
	"github.com/hupe1980/minionmesh/history"
	"github.com/hupe1980/minionmesh/logging"
	"github.com/hupe1980/minionmesh/match"
)

// ErrAlreadyRunning is returned by Run while another Run is active.
var ErrAlreadyRunning = errors.New("engine already running")

// Config defines tuning parameters for the host loop.
type Config struct {
	// TickInterval is the period between ticks in Run. The host loop polls
	// round readiness once per tick and never blocks on a provider.
	TickInterval time.Duration

	// EventBufferSize sets the channel buffer size of Run's event stream.
	EventBufferSize int
}

// DefaultConfig ticks at 60 Hz with a buffer of 100 events.
var DefaultConfig = Config{
	TickInterval:    time.Second / 60,
	EventBufferSize: 100,
}

// Options configures an Engine using the functional options pattern.
//
// Example:
//
//	eng := engine.New(m,
//	    engine.WithTickInterval(16*time.Millisecond),
//	    engine.WithLogger(logger),
//	)
type Options struct {
	// Config contains operational parameters. Defaults to DefaultConfig.
	Config Config

	// History records every emitted event. Defaults to an in-memory store.
	History core.HistoryStore

	// Callbacks receives lifecycle hooks. Defaults to an empty manager.
	Callbacks *CallbackManager

	// Artifacts receives the transcript of every finished match. Optional.
	Artifacts core.ArtifactStore

	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithHistory sets the history store.
func WithHistory(h core.HistoryStore) func(o *Options) {
	return func(o *Options) { o.History = h }
}

// WithArtifacts exports a transcript to store whenever a match finishes.
func WithArtifacts(store core.ArtifactStore) func(o *Options) {
	return func(o *Options) { o.Artifacts = store }
}

// WithTickInterval sets the host loop period.
func WithTickInterval(d time.Duration) func(o *Options) {
	return func(o *Options) { o.Config.TickInterval = d }
}

// WithCallback registers a lifecycle callback.
func WithCallback(cb Callback) func(o *Options) {
	return func(o *Options) {
		if o.Callbacks == nil {
			o.Callbacks = NewCallbackManager()
		}
		o.Callbacks.RegisterCallback(cb)
	}
}

// Engine is the host loop driving one match. Each tick advances the match by
// at most one step: start a round, or resolve a round whose decisions are all
// in. Resolution runs synchronously on the ticking goroutine.
type Engine struct {
	match     *match.Match
	history   core.HistoryStore
	artifacts core.ArtifactStore
	callbacks *CallbackManager
	logger    logging.Logger
	mesh      *logging.MeshLogger // non-nil when logger supports domain helpers
	config    Config

	tickMu sync.Mutex // serializes steps from Tick, Run and Reset

	runMu   sync.Mutex
	running bool
	stop    context.CancelFunc
}

// New creates an Engine for m.
func New(m *match.Match, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.History == nil {
		opts.History = history.NewInMemoryStore()
	}

	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}

	if opts.Config.TickInterval <= 0 {
		opts.Config.TickInterval = DefaultConfig.TickInterval
	}

	if opts.Config.EventBufferSize <= 0 {
		opts.Config.EventBufferSize = DefaultConfig.EventBufferSize
	}

	e := &Engine{
		match:     m,
		history:   opts.History,
		artifacts: opts.Artifacts,
		callbacks: opts.Callbacks,
		logger:    opts.Logger,
		config:    opts.Config,
	}

	if ml, ok := opts.Logger.(*logging.MeshLogger); ok {
		e.mesh = ml.WithComponent("engine").WithMatch(m.ID())
		e.logger = e.mesh
	}

	return e
}

// Match returns the driven match.
func (e *Engine) Match() *match.Match { return e.match }

// History returns the event store.
func (e *Engine) History() core.HistoryStore { return e.history }

// RegisterCallback adds a lifecycle callback.
func (e *Engine) RegisterCallback(cb Callback) { e.callbacks.RegisterCallback(cb) }

// Tick advances the match by at most one step and never waits for a provider.
// It reports whether the match is finished. ctx bounds the provider calls of a
// round started by this tick.
func (e *Engine) Tick(ctx context.Context) (bool, error) {
	_, done, err := e.step(ctx)
	return done, err
}

// step performs one tick and returns the events it emitted.
func (e *Engine) step(ctx context.Context) ([]core.Event, bool, error) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	evs, done, err := e.advance(ctx)
	if err != nil {
		_ = e.callbacks.ExecuteCallbacks(ctx, CallbackOnError, &CallbackContext{
			MatchID: e.match.ID(),
			Round:   e.match.Round(),
			Err:     err,
		})
		e.logger.Error("engine.tick.failed", "match", e.match.ID(), "error", err)
	}

	return evs, done, err
}

func (e *Engine) advance(ctx context.Context) ([]core.Event, bool, error) {
	m := e.match

	switch m.Phase() {
	case core.PhaseFinished:
		return nil, true, nil

	case core.PhaseIdle:
		round := m.Round()
		if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeRound, &CallbackContext{MatchID: m.ID(), Round: round}); err != nil {
			return nil, false, err
		}

		if err := m.StartRound(ctx); err != nil {
			return nil, false, err
		}

		ev := core.NewEvent(m.ID(), core.EventRoundStarted, round)
		if err := e.record(ev); err != nil {
			return nil, false, err
		}

		return []core.Event{ev}, false, nil

	case core.PhaseAwaitingDecisions:
		if !m.IsRoundReady() {
			return nil, false, nil
		}

		start := time.Now()
		res, err := m.ResolveRound()
		if err != nil {
			return nil, false, err
		}

		if e.mesh != nil {
			e.mesh.WithRound(res.Round).LogResolution(res.Round, len(res.Bumped), len(res.Collected), time.Since(start))
		}

		evs := make([]core.Event, 0, 2)
		resolved := core.NewResolvedEvent(m.ID(), res)
		if err := e.record(resolved); err != nil {
			return nil, false, err
		}
		evs = append(evs, resolved)

		for i := range res.Decisions {
			d := res.Decisions[i]
			if e.mesh != nil {
				e.mesh.WithRound(res.Round).LogDecision(int(d.AgentID), d.Move.String(), d.Fallback)
			}
			if !d.Fallback {
				continue
			}
			if err := e.callbacks.ExecuteCallbacks(ctx, CallbackOnFallback, &CallbackContext{
				MatchID:  m.ID(),
				Round:    res.Round,
				Decision: &d,
			}); err != nil {
				return evs, false, err
			}
		}

		if err := e.callbacks.ExecuteCallbacks(ctx, CallbackAfterRound, &CallbackContext{
			MatchID:  m.ID(),
			Round:    res.Round,
			Event:    &resolved,
			Resolved: &res,
		}); err != nil {
			return evs, false, err
		}

		outcome := m.Outcome()
		if !outcome.Finished {
			return evs, false, nil
		}

		finished := core.NewFinishedEvent(m.ID(), outcome)
		if err := e.record(finished); err != nil {
			return evs, true, err
		}
		evs = append(evs, finished)

		if e.mesh != nil {
			e.mesh.LogOutcome(outcome.Rounds, outcome.Draw, int(outcome.Winner))
		}

		e.exportTranscript(m.ID())

		if err := e.callbacks.ExecuteCallbacks(ctx, CallbackOnGameOver, &CallbackContext{
			MatchID: m.ID(),
			Round:   outcome.Rounds,
			Event:   &finished,
			Outcome: &outcome,
		}); err != nil {
			return evs, true, err
		}

		return evs, true, nil

	default:
		// Resolving is transient inside ResolveRound and never observed here.
		return nil, false, nil
	}
}

// exportTranscript is best effort; a failing store never ends the match with an error.
func (e *Engine) exportTranscript(matchID string) {
	if e.artifacts == nil {
		return
	}

	evs, err := e.history.Events(matchID)
	if err == nil {
		err = artifact.SaveTranscript(e.artifacts, matchID, evs)
	}
	if err != nil {
		e.logger.Warn("engine.transcript.failed", "match", matchID, "error", err)
	}
}

func (e *Engine) record(ev core.Event) error {
	return e.history.Append(ev.MatchID, ev)
}

// Run drives the match on its own goroutine until it finishes, ctx ends or
// Stop is called. Events are streamed in emission order. Both channels are
// closed when the loop exits; a terminal error, if any, is delivered on the
// error channel first. Stop ends the loop without an error.
func (e *Engine) Run(ctx context.Context) (<-chan core.Event, <-chan error) {
	eventsCh := make(chan core.Event, e.config.EventBufferSize)
	errorsCh := make(chan error, 1)

	e.runMu.Lock()
	if e.running {
		e.runMu.Unlock()
		errorsCh <- ErrAlreadyRunning
		close(errorsCh)
		close(eventsCh)
		return eventsCh, errorsCh
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.running = true
	e.stop = cancel
	e.runMu.Unlock()

	go func() {
		defer func() {
			cancel()
			e.runMu.Lock()
			e.running = false
			e.stop = nil
			e.runMu.Unlock()
			close(eventsCh)
			close(errorsCh)
		}()

		ticker := time.NewTicker(e.config.TickInterval)
		defer ticker.Stop()

		// exit reports the cancellation cause unless Stop ended the loop.
		exit := func() {
			if err := ctx.Err(); err != nil {
				errorsCh <- err
			}
		}

		for {
			evs, done, err := e.step(runCtx)

			for _, ev := range evs {
				select {
				case eventsCh <- ev:
				case <-runCtx.Done():
					exit()
					return
				}
			}

			if err != nil {
				errorsCh <- err
				return
			}

			if done {
				return
			}

			select {
			case <-runCtx.Done():
				exit()
				return
			case <-ticker.C:
			}
		}
	}()

	return eventsCh, errorsCh
}

// RunSync drives the match to completion and returns its outcome together
// with every event emitted.
func (e *Engine) RunSync(ctx context.Context) (core.Outcome, []core.Event, error) {
	eventsCh, errorsCh := e.Run(ctx)

	var events []core.Event
	for ev := range eventsCh {
		events = append(events, ev)
	}

	if err := <-errorsCh; err != nil {
		return e.match.Outcome(), events, err
	}

	return e.match.Outcome(), events, nil
}

// Stop ends an active Run. It is a no-op when the engine is not running.
func (e *Engine) Stop() {
	e.runMu.Lock()
	stop := e.stop
	e.runMu.Unlock()

	if stop != nil {
		stop()
	}
}

// Reset discards any round in flight, rebuilds the board and records a reset
// event. A running loop keeps going with the fresh match.
func (e *Engine) Reset(ctx context.Context) error {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	if err := e.match.Reset(); err != nil {
		return err
	}

	ev := core.NewEvent(e.match.ID(), core.EventMatchReset, 0)
	if err := e.record(ev); err != nil {
		return err
	}

	e.logger.Info("engine.match.reset", "match", e.match.ID())

	return e.callbacks.ExecuteCallbacks(ctx, CallbackOnReset, &CallbackContext{
		MatchID: e.match.ID(),
		Event:   &ev,
	})
}
