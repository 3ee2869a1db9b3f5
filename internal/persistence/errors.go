// Package persistence defines the sentinel errors shared by every storage
// backend. Repository interfaces themselves live next to the services that
// consume them.
package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a record with the same identity already exists.
	ErrDuplicate = errors.New("persistence: duplicate")
)
