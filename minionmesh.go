// Package minionmesh provides a high-level façade over the match engine. It
// turns a configuration into a ready to run game by:
//  1. Loading the config (Default, a YAML file or a caller supplied value)
//  2. Building a decision provider per minion (heuristic, model or stay)
//  3. Creating the Match and the Engine that drives it
//
// Callers either Play a match to completion or Run it asynchronously and
// consume the event stream. All defaults are safe for local play: minions use
// the heuristic AI and events are kept in memory.
package minionmesh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/hupe1980/minionmesh/artifact"
	"github.com/hupe1980/minionmesh/config"
	"github.com/hupe1980/minionmesh/core"
	"github.com/hupe1980/minionmesh/engine"
	historysqlite "github.com/hupe1980/minionmesh/history/sqlite"
	"github.com/hupe1980/minionmesh/logging"
	"github.com/hupe1980/minionmesh/match"
	"github.com/hupe1980/minionmesh/memory"
	"github.com/hupe1980/minionmesh/model"
	anthropicmodel "github.com/hupe1980/minionmesh/model/anthropic"
	openaimodel "github.com/hupe1980/minionmesh/model/openai"
	"github.com/hupe1980/minionmesh/provider"
	"github.com/hupe1980/minionmesh/spectate"
)

// Model backends understood by config.Model.Backend.
const (
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
)

// Options configures the Mesh.
type Options struct {
	// Config describes the match. When nil, ConfigPath is loaded, or Default is used.
	Config *config.Config

	// ConfigPath names a YAML file read when Config is nil.
	ConfigPath string

	// Logger defaults to a MeshLogger built from Config.Logging.
	Logger logging.Logger

	// Providers overrides the configured provider of individual agents.
	Providers map[core.AgentID]core.DecisionProvider

	// Model overrides the backend built from Config.Model for "model" agents.
	Model model.Model

	// Memory stores announced strategies of model driven minions.
	// Defaults to an in-memory store.
	Memory *memory.InMemoryStore

	// History records emitted events. Defaults to the sqlite log named by
	// Config.Output.HistoryDB, or an in-memory store.
	History core.HistoryStore

	// Artifacts receives a transcript of every finished match. Defaults to
	// Config.Output.TranscriptDir when set.
	Artifacts core.ArtifactStore

	// Callbacks are registered on the engine.
	Callbacks []engine.Callback

	// Rand overrides the seeded random source of the match.
	Rand core.Rand
}

// Mesh bundles a configured match and its engine. Call Close to release the
// sinks opened from Config.Output.
type Mesh struct {
	cfg    *config.Config
	match  *match.Match
	engine *engine.Engine

	spectator    *spectate.Hub
	spectateAddr string
	closers      []func() error
}

// New builds a Mesh from the given options.
func New(optFns ...func(o *Options)) (_ *Mesh, err error) {
	opts := Options{}

	for _, fn := range optFns {
		fn(&opts)
	}

	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}

	if opts.Logger == nil {
		opts.Logger = logging.NewSlogLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, false)
	}

	if opts.Memory == nil {
		opts.Memory = memory.NewInMemoryStore()
	}

	mesh := &Mesh{cfg: cfg}
	defer func() {
		if err != nil {
			_ = mesh.Close()
		}
	}()

	if err := mesh.openSinks(cfg.Output, &opts); err != nil {
		return nil, err
	}

	providers, err := buildProviders(cfg, opts)
	if err != nil {
		return nil, err
	}

	matchOpts := []func(o *match.Options){match.WithLogger(opts.Logger)}
	if opts.Rand != nil {
		matchOpts = append(matchOpts, match.WithRand(opts.Rand))
	}

	m, err := match.New(cfg, providers, matchOpts...)
	if err != nil {
		return nil, err
	}

	if err := applyConfiguredHints(cfg, m); err != nil {
		return nil, err
	}

	engineOpts := []func(o *engine.Options){
		engine.WithLogger(opts.Logger),
		engine.WithTickInterval(cfg.TickInterval()),
	}
	if opts.History != nil {
		engineOpts = append(engineOpts, engine.WithHistory(opts.History))
	}
	if opts.Artifacts != nil {
		engineOpts = append(engineOpts, engine.WithArtifacts(opts.Artifacts))
	}
	for _, cb := range opts.Callbacks {
		engineOpts = append(engineOpts, engine.WithCallback(cb))
	}

	mesh.match = m
	mesh.engine = engine.New(m, engineOpts...)

	if addr := cfg.Output.SpectateAddr; addr != "" {
		if err := mesh.startSpectator(addr, opts.Logger); err != nil {
			return nil, err
		}
	}

	return mesh, nil
}

// Config returns the effective configuration.
func (m *Mesh) Config() *config.Config { return m.cfg }

// Match returns the underlying match.
func (m *Mesh) Match() *match.Match { return m.match }

// Engine returns the engine driving the match.
func (m *Mesh) Engine() *engine.Engine { return m.engine }

// Play runs the match to completion and returns its outcome and every event.
func (m *Mesh) Play(ctx context.Context) (core.Outcome, []core.Event, error) {
	return m.engine.RunSync(ctx)
}

// Run starts the match loop asynchronously.
func (m *Mesh) Run(ctx context.Context) (<-chan core.Event, <-chan error) {
	return m.engine.Run(ctx)
}

// SetHint forwards a guide gesture to an agent's next decision.
func (m *Mesh) SetHint(id core.AgentID, hint string) error { return m.match.SetHint(id, hint) }

// Spectator returns the spectator hub, or nil when Config.Output.SpectateAddr is empty.
func (m *Mesh) Spectator() *spectate.Hub { return m.spectator }

// SpectateAddr returns the address the spectator server listens on.
func (m *Mesh) SpectateAddr() string { return m.spectateAddr }

// Close stops the spectator server and closes the sinks opened by New, in
// reverse order. It is safe to call more than once.
func (m *Mesh) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i]())
	}
	m.closers = nil
	return errors.Join(errs...)
}

func (m *Mesh) openSinks(out config.Output, opts *Options) error {
	if opts.History == nil && out.HistoryDB != "" {
		store, err := historysqlite.Open(out.HistoryDB)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		m.closers = append(m.closers, store.Close)
		opts.History = store
	}

	if opts.Artifacts == nil && out.TranscriptDir != "" {
		dir, err := artifact.NewDirStore(out.TranscriptDir)
		if err != nil {
			return fmt.Errorf("open transcripts: %w", err)
		}
		opts.Artifacts = dir

		if out.CompressTranscripts {
			cs, err := artifact.NewCompressedStore(dir)
			if err != nil {
				return err
			}
			m.closers = append(m.closers, cs.Close)
			opts.Artifacts = cs
		}
	}

	return nil
}

func (m *Mesh) startSpectator(addr string, logger logging.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("spectate: %w", err)
	}

	hub := spectate.NewHub(func(o *spectate.Options) { o.Logger = logger })
	hub.Attach(m.engine)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("spectate.serve.failed", "addr", addr, "error", err)
		}
	}()

	m.spectator = hub
	m.spectateAddr = ln.Addr().String()
	m.closers = append(m.closers, func() error {
		hub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})

	return nil
}

func resolveConfig(opts Options) (*config.Config, error) {
	switch {
	case opts.Config != nil:
		if err := opts.Config.Validate(); err != nil {
			return nil, err
		}
		return opts.Config, nil
	case opts.ConfigPath != "":
		return config.Load(opts.ConfigPath)
	default:
		return config.Default(), nil
	}
}

func buildProviders(cfg *config.Config, opts Options) (map[core.AgentID]core.DecisionProvider, error) {
	ids := match.AgentIDs(cfg)
	out := make(map[core.AgentID]core.DecisionProvider, cfg.AgentCount())

	heuristic := provider.NewHeuristic(func(o *provider.HeuristicOptions) {
		o.Logger = opts.Logger
		if cfg.Seed != 0 {
			o.Rand = core.NewRand(cfg.Seed + 1)
		}
	})

	var modelProvider *provider.ModelProvider

	for ti, team := range cfg.Teams {
		for ai, a := range team.Agents {
			id := ids[ti][ai]

			if p, ok := opts.Providers[id]; ok {
				out[id] = p
				continue
			}

			switch a.Provider {
			case "", config.ProviderHeuristic:
				out[id] = heuristic
			case config.ProviderStay:
				out[id] = provider.Stay()
			case config.ProviderModel:
				if modelProvider == nil {
					mp, err := newModelProvider(cfg, opts)
					if err != nil {
						return nil, err
					}
					modelProvider = mp
				}
				out[id] = modelProvider
			default:
				return nil, fmt.Errorf("agent %q: unknown provider %q", a.Name, a.Provider)
			}
		}
	}

	return out, nil
}

func newModelProvider(cfg *config.Config, opts Options) (*provider.ModelProvider, error) {
	backend := opts.Model
	if backend == nil {
		b, err := NewModel(cfg.Model)
		if err != nil {
			return nil, err
		}
		backend = b
	}

	if backend == nil {
		opts.Logger.Warn("no model credentials, model driven minions will stay put",
			"backend", cfg.Model.Backend, "api_key_env", cfg.Model.APIKeyEnv)
	}

	return provider.NewModelProvider(backend, func(o *provider.ModelOptions) {
		o.Logger = opts.Logger
		o.Memory = opts.Memory
	})
}

// NewModel builds the configured LLM backend. It returns a nil Model without
// error when the API key environment variable is unset.
func NewModel(mc config.Model) (model.Model, error) {
	key := ""
	if mc.APIKeyEnv != "" {
		key = os.Getenv(mc.APIKeyEnv)
	}

	if key == "" {
		return nil, nil
	}

	switch strings.ToLower(mc.Backend) {
	case "", BackendOpenAI:
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.APIKey = key
			if mc.Name != "" {
				o.Model = mc.Name
			}
		}), nil
	case BackendAnthropic:
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.APIKey = key
			if mc.Name != "" {
				o.Model = anthropic.Model(mc.Name)
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", mc.Backend)
	}
}

func applyConfiguredHints(cfg *config.Config, m *match.Match) error {
	ids := match.AgentIDs(cfg)

	for ti, team := range cfg.Teams {
		for ai, a := range team.Agents {
			if a.Hint == "" {
				continue
			}
			if err := m.SetHint(ids[ti][ai], a.Hint); err != nil {
				return err
			}
		}
	}

	return nil
}
