package core

import (
	"fmt"
	"sync"
)

// CompletionGate is a counting barrier: it opens once Mark has been called
// exactly total times. Marks beyond total are rejected so a double report can
// never make a round look complete early or late.
type CompletionGate struct {
	total int
	count int
	done  chan struct{}
	mu    sync.Mutex
}

// NewCompletionGate creates a gate expecting total marks. A gate with total <= 0
// is complete immediately.
func NewCompletionGate(total int) *CompletionGate {
	g := &CompletionGate{total: total, done: make(chan struct{})}
	if total <= 0 {
		close(g.done)
	}
	return g
}

// Mark records one completion. It returns true when this mark opened the gate.
func (g *CompletionGate) Mark() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.count >= g.total {
		return false, fmt.Errorf("completion gate overflow: %d marks expected", g.total)
	}

	g.count++
	if g.count == g.total {
		close(g.done)
		return true, nil
	}

	return false, nil
}

// Complete reports whether every expected mark arrived. It never blocks.
func (g *CompletionGate) Complete() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.count >= g.total
}

// Wait returns a channel closed when the gate opens.
func (g *CompletionGate) Wait() <-chan struct{} { return g.done }

// Count returns the number of marks recorded so far.
func (g *CompletionGate) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.count
}

// Remaining returns how many marks are still outstanding.
func (g *CompletionGate) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.count >= g.total {
		return 0
	}

	return g.total - g.count
}
