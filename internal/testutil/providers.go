package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/minionmesh/core"
)

// Fixed always chooses mv.
func Fixed(mv core.Move) core.DecisionProvider {
	return core.ProviderFunc(func(_ context.Context, req core.DecisionRequest) (core.Decision, error) {
		return core.Decision{AgentID: req.Agent.ID, Round: req.Round, Move: mv}, nil
	})
}

// Failing always returns err.
func Failing(err error) core.DecisionProvider {
	return core.ProviderFunc(func(context.Context, core.DecisionRequest) (core.Decision, error) {
		return core.Decision{}, err
	})
}

// Panicking always panics with v.
func Panicking(v any) core.DecisionProvider {
	return core.ProviderFunc(func(context.Context, core.DecisionRequest) (core.Decision, error) {
		panic(v)
	})
}

// Slow chooses mv after d or returns early with ctx.Err().
func Slow(d time.Duration, mv core.Move) core.DecisionProvider {
	return core.ProviderFunc(func(ctx context.Context, req core.DecisionRequest) (core.Decision, error) {
		select {
		case <-time.After(d):
			return core.Decision{AgentID: req.Agent.ID, Round: req.Round, Move: mv}, nil
		case <-ctx.Done():
			return core.Decision{}, ctx.Err()
		}
	})
}

// Gated blocks every call until the returned release func is called, ignoring ctx.
func Gated(mv core.Move) (core.DecisionProvider, func()) {
	ch := make(chan struct{})
	var once sync.Once

	p := core.ProviderFunc(func(_ context.Context, req core.DecisionRequest) (core.Decision, error) {
		<-ch
		return core.Decision{AgentID: req.Agent.ID, Round: req.Round, Move: mv}, nil
	})

	return p, func() { once.Do(func() { close(ch) }) }
}

// Recorder wraps a provider and records every request it receives.
type Recorder struct {
	inner core.DecisionProvider

	mu       sync.Mutex
	requests []core.DecisionRequest
}

// NewRecorder wraps inner.
func NewRecorder(inner core.DecisionProvider) *Recorder {
	return &Recorder{inner: inner}
}

// Decide implements core.DecisionProvider.
func (r *Recorder) Decide(ctx context.Context, req core.DecisionRequest) (core.Decision, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()

	return r.inner.Decide(ctx, req)
}

// Requests returns the recorded requests in arrival order.
func (r *Recorder) Requests() []core.DecisionRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.DecisionRequest(nil), r.requests...)
}

// Calls returns the number of recorded requests.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}
