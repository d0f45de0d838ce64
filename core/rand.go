package core

import (
	"math/rand/v2"
	"sync"
)

// Rand is the injectable random source used for tie-breaking, relocation order
// and board setup. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// NewRand returns a deterministic PCG-backed source for the given seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0))
}

// LockedRand serializes access to a Rand so it can be shared between
// concurrently running providers.
type LockedRand struct {
	mu sync.Mutex
	r  Rand
}

// NewLockedRand wraps r.
func NewLockedRand(r Rand) *LockedRand { return &LockedRand{r: r} }

// IntN implements Rand.
func (l *LockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// Float64 implements Rand.
func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Shuffle implements Rand.
func (l *LockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}
