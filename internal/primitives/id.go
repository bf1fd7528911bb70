package primitives

import "github.com/google/uuid"

// ID is an opaque 128-bit identifier used for every entity in the domain
// model (spec.md §3.2: "All identifiers are opaque 128-bit UUIDs").
type ID string

// NewID generates a fresh random identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// EmptyID reports whether id has never been assigned.
func (id ID) EmptyID() bool { return id == "" }

// String returns the raw identifier.
func (id ID) String() string { return string(id) }
