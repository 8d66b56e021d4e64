package domain

import "errors"

var (
	// ErrNotFound indicates the requested aggregate does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConcurrentModification indicates an optimistic concurrency conflict:
	// the aggregate's stored version advanced between load and save.
	ErrConcurrentModification = errors.New("concurrent modification")
)
