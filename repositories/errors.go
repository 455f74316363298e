package repositories

import "errors"

// Sentinel errors returned by repository implementations. The service layer
// translates these into its own error taxonomy.
var (
	// ErrNotFound is returned when no row matches (including rows hidden by
	// tenant scoping)
	ErrNotFound = errors.New("repository: not found")

	// ErrDuplicate is returned on a unique-constraint violation, e.g. a
	// reused idempotency key or a second pending approval for a work item
	ErrDuplicate = errors.New("repository: duplicate")
)
