package store

import "errors"

var (
	// ErrNotFound reports a lookup for a row that does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict reports a write that would violate a uniqueness
	// constraint, such as creating two profiles with one name.
	ErrConflict = errors.New("record already exists")

	// ErrProfileInUse reports an attempt to delete the last remaining
	// profile.
	ErrProfileInUse = errors.New("cannot delete the only profile")
)
