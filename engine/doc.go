// Package engine provides the host loop that drives a match.
//
// The Engine never blocks on decision providers. Every tick it inspects the
// match phase and performs at most one step:
//
//   - Idle: run BeforeRound callbacks and dispatch a new round
//   - AwaitingDecisions: poll readiness; once every decision is in, resolve,
//     apply and evaluate the win condition synchronously on the tick goroutine
//   - Finished: report completion
//
// Three ways to drive it:
//
//	// Embed in an existing frame loop
//	done, err := eng.Tick(ctx)
//
//	// Stream events from a background loop
//	events, errs := eng.Run(ctx)
//	for ev := range events {
//	    render(ev)
//	}
//	if err := <-errs; err != nil {
//	    return err
//	}
//
//	// Block until the match ends
//	outcome, events, err := eng.RunSync(ctx)
//
// Every emitted event is recorded in the configured core.HistoryStore
// (in-memory by default). Lifecycle callbacks are registered through a
// CallbackManager; a callback error aborts the current tick.
package engine
