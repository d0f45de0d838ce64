// Package core provides the foundational domain types and interfaces shared by
// every MinionMesh component. It defines:
//
//   - Grid, Cell and Position (the board and its bounds-checked accessors)
//   - Agent, Team and Personality (mutable records owned by a match)
//   - Decision, DecisionRequest and DecisionProvider (the per-round move oracle)
//   - ResolvedRound and Outcome (what a resolved round and a finished match look like)
//   - CompletionGate (the counting barrier used while gathering decisions)
//   - Event and HistoryStore (the observable record of a match)
//
// The package intentionally keeps orchestration (decision gathering, turn
// resolution, the host loop) out of scope, exposing small interfaces so that
// providers, renderers and stores can be swapped independently.
package core
