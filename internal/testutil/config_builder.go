package testutil

import (
	"time"

	"github.com/hupe1980/minionmesh/config"
	"github.com/hupe1980/minionmesh/core"
)

// ConfigBuilder helps construct match configs with fluent chaining for tests.
// Example:
//
//	cfg := NewConfigBuilder(3, 3).Seed(1).Items("sushi", 2).
//	  Team("red", map[string]int{"sushi": 1}).Agent("r1", core.Pos(0, 0), 2).
//	  Build()
//
// Agents attach to the most recently added team.
type ConfigBuilder struct {
	cfg config.Config
}

// NewConfigBuilder starts an empty config for a rows x cols board with a 500ms
// decision timeout and unlimited rounds.
func NewConfigBuilder(rows, cols int) *ConfigBuilder {
	return &ConfigBuilder{cfg: config.Config{
		Rows:            rows,
		Cols:            cols,
		DecisionTimeout: 500 * time.Millisecond,
		TickRateHz:      60,
	}}
}

// Seed fixes the match seed (chainable).
func (b *ConfigBuilder) Seed(seed int64) *ConfigBuilder { b.cfg.Seed = seed; return b }

// MaxRounds sets the round limit; 0 means unlimited (chainable).
func (b *ConfigBuilder) MaxRounds(n int) *ConfigBuilder { b.cfg.MaxRounds = n; return b }

// Timeout sets the per-round decision timeout (chainable).
func (b *ConfigBuilder) Timeout(d time.Duration) *ConfigBuilder { b.cfg.DecisionTimeout = d; return b }

// Items adds a catalog entry placed count times (chainable).
func (b *ConfigBuilder) Items(name string, count int) *ConfigBuilder {
	b.cfg.Items = append(b.cfg.Items, config.Item{Name: name, Count: count})
	return b
}

// Team appends a team with explicit targets (chainable).
func (b *ConfigBuilder) Team(name string, targets map[string]int) *ConfigBuilder {
	b.cfg.Teams = append(b.cfg.Teams, config.Team{Name: name, Targets: targets})
	return b
}

// RandomTeam appends a team drawing n random targets on every setup (chainable).
func (b *ConfigBuilder) RandomTeam(name string, n int) *ConfigBuilder {
	b.cfg.Teams = append(b.cfg.Teams, config.Team{Name: name, RandomTargets: n})
	return b
}

// Agent adds a minion to the last team (chainable). It panics without a team.
func (b *ConfigBuilder) Agent(name string, spawn core.Position, power int) *ConfigBuilder {
	return b.AgentWith(config.Agent{Name: name, Spawn: spawn, Power: power})
}

// AgentWith adds a fully specified minion to the last team (chainable).
func (b *ConfigBuilder) AgentWith(a config.Agent) *ConfigBuilder {
	if len(b.cfg.Teams) == 0 {
		panic("testutil: Agent called before Team")
	}
	t := &b.cfg.Teams[len(b.cfg.Teams)-1]
	t.Agents = append(t.Agents, a)
	return b
}

// Build returns a copy of the assembled config.
func (b *ConfigBuilder) Build() *config.Config {
	cfg := b.cfg
	cfg.Items = append([]config.Item(nil), b.cfg.Items...)
	cfg.Teams = make([]config.Team, len(b.cfg.Teams))
	for i, t := range b.cfg.Teams {
		t.Agents = append([]config.Agent(nil), t.Agents...)
		cfg.Teams[i] = t
	}
	return &cfg
}
