package store

import "errors"

// Store-level sentinel errors. Higher layers (catalog, dataplane, jobs)
// wrap these with fmt.Errorf("%w", ...) to add context while keeping them
// matchable with errors.Is.
var (
	ErrGraphNotFound = errors.New("store: graph not found")
	ErrGraphExists   = errors.New("store: graph already exists")
)
