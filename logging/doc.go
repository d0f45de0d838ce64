// Package logging provides a minimal logging interface and adapters for MinionMesh.
//
// The Logger interface defines the leveled methods (Debug, Info, Warn, Error)
// that the gatherer, resolver, match and engine use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - MeshLogger with match/round scoping and domain helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	m, err := match.New(cfg, providers, match.WithLogger(logger))
//
// The interface is intentionally small so any structured logger can be plugged in.
package logging
