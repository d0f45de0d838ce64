// Package match owns the state of one match: the grid, the agents and teams,
// the round counter and the terminal outcome.
//
// Match is the only writer of that state. Decision gathering runs concurrently
// on private snapshots; resolution and mutation run on the caller's goroutine
// (the host loop) through ResolveRound, which chains the resolver,
// ApplyResolved and CheckWin. The phase machine is
//
//	Idle -> AwaitingDecisions -> Resolving -> Idle ... -> Finished
//
// and Finished is terminal until Reset.
package match
