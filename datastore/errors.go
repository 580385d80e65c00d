package datastore

import "errors"

// Domain errors returned by the repositories. Anything else coming out
// of this package is an infrastructure failure wrapped with %w.
var (
	// ErrNotFound means no row matched both the id and the owner
	// predicate. Callers cannot tell "does not exist" apart from
	// "exists but belongs to someone else".
	ErrNotFound = errors.New("no matching row")

	// ErrEmptyTitle means the task title was empty after trimming.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmailTaken means the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
)
