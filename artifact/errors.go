package artifact

import "errors"

var (
	// ErrNotFound is returned when no artifact exists for the match / name pair.
	ErrNotFound = errors.New("artifact not found")

	// ErrInvalidName is returned for empty names or names that would escape
	// the match namespace.
	ErrInvalidName = errors.New("artifact: invalid name")
)
