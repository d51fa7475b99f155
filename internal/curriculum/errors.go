package curriculum

import "errors"

// Error kinds returned by the engine. Callers match with errors.Is; the
// wrapped message names the lesson and container involved.
var (
	// ErrNotFound means an operation referenced a lesson, half-term, stack
	// or unit that is not in the store.
	ErrNotFound = errors.New("not found")

	// ErrOutOfRange means a reorder was given an out-of-bounds index.
	ErrOutOfRange = errors.New("index out of range")

	// ErrInvariant means the mutation would break a hierarchy rule; the
	// store is left unchanged.
	ErrInvariant = errors.New("invariant violation")

	// ErrPersistence means the durable-storage boundary failed. The
	// in-memory mutation is still applied; the caller owns retry.
	ErrPersistence = errors.New("persistence failed")
)
