// Package config loads and validates match configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/minionmesh/core"
)

// Provider kinds understood by the façade.
const (
	ProviderHeuristic = "heuristic"
	ProviderModel     = "model"
	ProviderStay      = "stay"
)

// Config describes a complete match: board, items, teams and pacing.
type Config struct {
	Rows            int           `yaml:"rows"`
	Cols            int           `yaml:"cols"`
	MaxRounds       int           `yaml:"max_rounds"`
	Seed            int64         `yaml:"seed"` // 0 selects a time-based seed
	DecisionTimeout time.Duration `yaml:"decision_timeout"`
	TickRateHz      int           `yaml:"tick_rate_hz"`
	Items           []Item        `yaml:"items"`
	Teams           []Team        `yaml:"teams"`
	Model           Model         `yaml:"model"`
	Logging         Logging       `yaml:"logging"`
	Output          Output        `yaml:"output"`
}

// Item declares one catalog entry and how many are placed on the board.
type Item struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

// Team declares a team, its goal and its members. When Targets is empty,
// RandomTargets items are drawn from the catalog on every setup.
type Team struct {
	Name          string         `yaml:"name"`
	Targets       map[string]int `yaml:"targets"`
	RandomTargets int            `yaml:"random_targets"`
	Agents        []Agent        `yaml:"agents"`
}

// Agent declares one minion.
type Agent struct {
	Name        string           `yaml:"name"`
	Spawn       core.Position    `yaml:"spawn"`
	Power       int              `yaml:"power"`
	Personality core.Personality `yaml:"personality"`
	Provider    string           `yaml:"provider"`
	Hint        string           `yaml:"hint"`
}

// Model selects the LLM backing agents whose provider is "model".
type Model struct {
	Backend   string `yaml:"backend"` // openai or anthropic
	Name      string `yaml:"name"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// Logging configures the MeshLogger built by the façade.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Output selects where match records go. Empty fields disable the sink.
type Output struct {
	HistoryDB           string `yaml:"history_db"`     // sqlite event log
	TranscriptDir       string `yaml:"transcript_dir"` // one directory per match
	CompressTranscripts bool   `yaml:"compress_transcripts"`
	SpectateAddr        string `yaml:"spectate_addr"` // e.g. 127.0.0.1:8080
}

// Default returns the stock two-minion match on an 8x10 board.
func Default() *Config {
	return &Config{
		Rows:            8,
		Cols:            10,
		MaxRounds:       50,
		DecisionTimeout: 2 * time.Second,
		TickRateHz:      60,
		Items: []Item{
			{Name: "sushi", Count: 10},
			{Name: "donut", Count: 10},
			{Name: "banana", Count: 10},
		},
		Teams: []Team{
			{
				Name:          "Team 1",
				RandomTargets: 5,
				Agents: []Agent{{
					Name:        "Bubbles",
					Spawn:       core.Pos(0, 0),
					Power:       3,
					Personality: core.Personality{Style: "bubbly", Intelligence: 3, Obedience: 0.8},
					Provider:    ProviderHeuristic,
				}},
			},
			{
				Name:          "Team 2",
				RandomTargets: 5,
				Agents: []Agent{{
					Name:        "Zoom",
					Spawn:       core.Pos(7, 9),
					Power:       2,
					Personality: core.Personality{Style: "hectic", Intelligence: 3, Obedience: 0.7},
					Provider:    ProviderHeuristic,
				}},
			},
		},
		Model: Model{
			Backend:   "openai",
			Name:      "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file. Fields omitted in the file keep their Default values.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Catalog returns the item catalog in declaration order.
func (c *Config) Catalog() core.Catalog {
	out := make(core.Catalog, len(c.Items))
	for i, it := range c.Items {
		out[i] = it.Name
	}
	return out
}

// AgentCount returns the total number of agents over all teams.
func (c *Config) AgentCount() int {
	n := 0
	for _, t := range c.Teams {
		n += len(t.Agents)
	}
	return n
}

// TickInterval returns the host loop period derived from TickRateHz.
func (c *Config) TickInterval() time.Duration {
	if c.TickRateHz <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.TickRateHz)
}

// Validate reports every problem found as a joined error.
func (c *Config) Validate() error {
	var errs []error

	if c.Rows <= 0 || c.Cols <= 0 {
		errs = append(errs, fmt.Errorf("grid must be positive, got %dx%d", c.Rows, c.Cols))
	}

	if c.MaxRounds < 0 {
		errs = append(errs, fmt.Errorf("max_rounds must not be negative, got %d", c.MaxRounds))
	}

	if c.DecisionTimeout < 0 {
		errs = append(errs, fmt.Errorf("decision_timeout must not be negative, got %s", c.DecisionTimeout))
	}

	names := map[string]bool{}
	items := 0
	for _, it := range c.Items {
		if it.Name == "" {
			errs = append(errs, errors.New("item name must not be empty"))
		}
		if names[it.Name] {
			errs = append(errs, fmt.Errorf("duplicate item %q", it.Name))
		}
		names[it.Name] = true
		if it.Count < 0 {
			errs = append(errs, fmt.Errorf("item %q: count must not be negative", it.Name))
		}
		items += it.Count
	}

	if len(c.Teams) == 0 || c.AgentCount() == 0 {
		errs = append(errs, errors.New("at least one agent is required"))
	}

	spawns := map[core.Position]string{}
	for _, t := range c.Teams {
		for kind, n := range t.Targets {
			if !names[kind] {
				errs = append(errs, fmt.Errorf("team %q: unknown target item %q", t.Name, kind))
			}
			if n < 0 {
				errs = append(errs, fmt.Errorf("team %q: target %q must not be negative", t.Name, kind))
			}
		}
		if t.RandomTargets < 0 {
			errs = append(errs, fmt.Errorf("team %q: random_targets must not be negative", t.Name))
		}
		if t.RandomTargets > 0 && len(c.Items) == 0 {
			errs = append(errs, fmt.Errorf("team %q: random_targets needs a non-empty catalog", t.Name))
		}

		for _, a := range t.Agents {
			if a.Spawn.Row < 0 || a.Spawn.Row >= c.Rows || a.Spawn.Col < 0 || a.Spawn.Col >= c.Cols {
				errs = append(errs, fmt.Errorf("agent %q: spawn %s out of bounds", a.Name, a.Spawn))
			}
			if other, dup := spawns[a.Spawn]; dup {
				errs = append(errs, fmt.Errorf("agent %q: spawn %s already used by %q", a.Name, a.Spawn, other))
			}
			spawns[a.Spawn] = a.Name
			if a.Power < 0 {
				errs = append(errs, fmt.Errorf("agent %q: power must not be negative", a.Name))
			}
			switch a.Provider {
			case "", ProviderHeuristic, ProviderModel, ProviderStay:
			default:
				errs = append(errs, fmt.Errorf("agent %q: unknown provider %q", a.Name, a.Provider))
			}
		}
	}

	if free := c.Rows*c.Cols - len(spawns); c.Rows > 0 && c.Cols > 0 && items > free {
		errs = append(errs, fmt.Errorf("%d items do not fit into %d free cells", items, free))
	}

	return errors.Join(errs...)
}
