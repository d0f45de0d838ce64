// Package gather dispatches one decision request per agent concurrently and
// collects the answers of a round.
//
// Every request runs in its own goroutine; the provider call itself runs in an
// inner goroutine raced against a per-call deadline so a stuck provider can
// never stall the round. Errors, panics, invalid moves and timeouts are all
// replaced by the deterministic fallback decision. Each agent is counted
// exactly once on the round's completion gate.
//
// A Ticket represents one round of collection. Starting a new round or
// invalidating the gatherer marks the previous ticket stale; results that
// arrive for a stale ticket are dropped.
package gather
