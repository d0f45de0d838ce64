// Package provider contains core.DecisionProvider implementations that steer
// minions:
//
//   - Heuristic: the local personality driven AI (item scan, gesture
//     preferences, styled dialogue).
//   - ModelProvider: a language model forced to call decide_next_action.
//   - Scripted and Stay: deterministic providers for tests and demos.
//
// Providers are called concurrently, one goroutine per agent and round, and
// must be safe for concurrent use.
package provider
