package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/minionmesh/core"
)

// CallbackType defines the lifecycle points where callbacks can be executed.
//
// Callbacks provide a flexible mechanism for hooking into the host loop
// without modifying core logic. Each type represents a specific point in a
// round's lifecycle where custom logic can be injected.
//
// Available callback types:
//   - BeforeRound/AfterRound: around one full round (dispatch to applied plan)
//   - OnFallback: for every fallback decision the round consumed
//   - OnGameOver: once when the match finishes
//   - OnReset: after the board was rebuilt
//   - OnError: when a tick fails
//
// Callbacks are executed synchronously on the host loop goroutine and can
// abort a tick by returning an error.
type CallbackType string

const (
	// CallbackBeforeRound is triggered before decision requests are dispatched.
	CallbackBeforeRound CallbackType = "before_round"

	// CallbackAfterRound is triggered after a resolved plan was applied.
	CallbackAfterRound CallbackType = "after_round"

	// CallbackOnFallback is triggered once per fallback decision in a resolved round.
	CallbackOnFallback CallbackType = "on_fallback"

	// CallbackOnGameOver is triggered when the match reaches a win or draw.
	CallbackOnGameOver CallbackType = "on_game_over"

	// CallbackOnReset is triggered after the match was reset.
	CallbackOnReset CallbackType = "on_reset"

	// CallbackOnError is triggered when a tick returns an error. Errors
	// returned by OnError callbacks are ignored.
	CallbackOnError CallbackType = "on_error"
)

// CallbackContext carries the information available at a lifecycle point.
// Fields that do not apply to a callback type are left zero.
type CallbackContext struct {
	// MatchID identifies the match.
	MatchID string

	// Round is the round the callback refers to.
	Round int

	// CallbackType indicates which callback type triggered this execution.
	CallbackType CallbackType

	// Event is the event emitted at this point, if any.
	Event *core.Event

	// Resolved is the applied plan (AfterRound).
	Resolved *core.ResolvedRound

	// Decision is the substituted decision (OnFallback).
	Decision *core.Decision

	// Outcome is the terminal state (OnGameOver).
	Outcome *core.Outcome

	// Err is the tick failure (OnError).
	Err error

	// Metadata provides extensible storage for custom callback data.
	Metadata map[string]any
}

// Callback defines the interface for round lifecycle hooks.
//
// Implementations should be fast: callbacks run synchronously on the host
// loop and delay the next tick.
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic with the provided context.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	cb := NewFunctionCallback(
//	    CallbackAfterRound,
//	    func(ctx context.Context, cc *CallbackContext) error {
//	        log.Printf("round %d: %d bumped", cc.Round, len(cc.Resolved.Bumped))
//	        return nil
//	    },
//	)
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager is the registry of callbacks per type. Callbacks run in
// registration order; the first error stops the chain. Registration and
// execution are safe for concurrent use.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty callback manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback for its type.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks executes all registered callbacks for the specified type.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	cm.mu.RLock()
	callbacks := append([]Callback(nil), cm.callbacks[callbackType]...)
	cm.mu.RUnlock()

	callbackCtx.CallbackType = callbackType

	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return fmt.Errorf("%s callback: %w", callbackType, err)
		}
	}

	return nil
}

// LoggingCallback forwards lifecycle points to a line-oriented log function.
//
// Example:
//
//	callback := NewLoggingCallback(CallbackAfterRound, func(msg string) {
//	    log.Printf("[ENGINE] %s", msg)
//	})
type LoggingCallback struct {
	callbackType CallbackType
	logger       func(message string)
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger func(message string)) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute formats the lifecycle point and passes it to the log function.
func (c *LoggingCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	if c.logger == nil {
		return nil
	}

	message := fmt.Sprintf("[%s] match=%s round=%d", c.callbackType, callbackCtx.MatchID, callbackCtx.Round)
	switch {
	case callbackCtx.Decision != nil:
		message += fmt.Sprintf(" agent=%d move=%s", callbackCtx.Decision.AgentID, callbackCtx.Decision.Move)
	case callbackCtx.Outcome != nil:
		message += fmt.Sprintf(" draw=%t winner=%d", callbackCtx.Outcome.Draw, callbackCtx.Outcome.Winner)
	case callbackCtx.Resolved != nil:
		message += fmt.Sprintf(" bumped=%d collected=%d", len(callbackCtx.Resolved.Bumped), len(callbackCtx.Resolved.Collected))
	case callbackCtx.Err != nil:
		message += fmt.Sprintf(" error=%v", callbackCtx.Err)
	}

	c.logger(message)

	return nil
}
