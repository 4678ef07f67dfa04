package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks rejected mutations: bad quantities, prices,
	// names, empty carts or illegal state transitions.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks unknown ingredient, plate, order or table ids.
	ErrNotFound = errors.New("not found")
	// ErrStaleSnapshot is returned by a SnapshotStore asked to write a
	// revision older than the one it holds.
	ErrStaleSnapshot = errors.New("stale snapshot")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}
