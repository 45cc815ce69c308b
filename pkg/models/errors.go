package models

import "errors"

// Standard errors returned by the store and services. Callers match these
// with errors.Is.
var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique constraint (title, slug, flag,
	// email) would be violated.
	ErrDuplicate = errors.New("already exists")

	// ErrAlreadyClaimed is returned when a user submits a flag for a
	// challenge they have already solved.
	ErrAlreadyClaimed = errors.New("challenge already claimed")

	// ErrInvalidTitle is returned when a content title is empty.
	ErrInvalidTitle = errors.New("title must not be empty")

	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("store is closed")
)
