// Package spectate streams a running match to read-only viewers over
// WebSocket. A Hub attached to an engine publishes one JSON Frame after every
// resolved round, reset and game over; newly connected viewers first receive
// the latest frame. Viewers cannot influence the match.
package spectate
