package storage

import "errors"

// Common storage errors
var (
	// ErrNotFound indicates that referenced catalog entity or record was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidEntityType indicates unknown catalog preference entity type
	ErrInvalidEntityType = errors.New("invalid entity type")
)
