package provider

import (
	"context"
	"sync"

	"github.com/hupe1980/minionmesh/core"
)

// Func adapts a plain function to core.DecisionProvider.
type Func = core.ProviderFunc

// Scripted replays a fixed sequence of moves, one per Decide call. Once the
// script is exhausted it stays, or starts over when Loop is set.
type Scripted struct {
	mu    sync.Mutex
	moves []core.Move
	next  int
	loop  bool
}

// NewScripted returns a provider playing moves in order.
func NewScripted(moves ...core.Move) *Scripted {
	return &Scripted{moves: append([]core.Move(nil), moves...)}
}

// Loop makes the script restart after its last move.
func (s *Scripted) Loop() *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = true
	return s
}

// Remaining reports how many scripted moves are left in the current pass.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.moves) - s.next
}

// Decide implements core.DecisionProvider.
func (s *Scripted) Decide(_ context.Context, req core.DecisionRequest) (core.Decision, error) {
	s.mu.Lock()
	mv := core.MoveStay
	if s.loop && s.next >= len(s.moves) {
		s.next = 0
	}
	if s.next < len(s.moves) {
		mv = s.moves[s.next]
		s.next++
	}
	s.mu.Unlock()

	return core.Decision{
		AgentID: req.Agent.ID,
		Round:   req.Round,
		Move:    mv,
		Flavor:  Flavor(req.Agent.Personality, mv, destinationItem(req, mv)),
	}, nil
}

// Stay returns a provider that never moves.
func Stay() core.DecisionProvider {
	return Func(func(_ context.Context, req core.DecisionRequest) (core.Decision, error) {
		return core.Decision{
			AgentID: req.Agent.ID,
			Round:   req.Round,
			Move:    core.MoveStay,
			Flavor:  core.Flavor{Dialogue: "...", Thought: "Waiting for a sign."},
		}, nil
	})
}
