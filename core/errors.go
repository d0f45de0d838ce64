package core

import "errors"

var (
	// ErrOutOfBounds is returned by grid accessors for coordinates outside the board.
	ErrOutOfBounds = errors.New("position out of bounds")
	// ErrInvalidMove reports a move name or value outside the five enumerated directions.
	ErrInvalidMove = errors.New("invalid move")
	// ErrUnknownAgent reports a reference to an agent id the match does not own.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrMatchFinished is returned when a round is requested after a win or draw.
	ErrMatchFinished = errors.New("match finished")
	// ErrRoundInProgress is returned by StartRound while a previous round is unresolved.
	ErrRoundInProgress = errors.New("round already in progress")
	// ErrRoundNotReady is returned when resolution is requested before every decision arrived.
	ErrRoundNotReady = errors.New("round not ready")
	// ErrNoRound is returned when resolution is requested while no round was started.
	ErrNoRound = errors.New("no round started")
	// ErrStaleTicket reports a ticket that was replaced or invalidated by a reset.
	ErrStaleTicket = errors.New("stale round ticket")
)
