package domain

import "github.com/google/uuid"

// Ref is a minimal reference to another record: its identity plus the name
// shown to users.
type Ref struct {
	ID   uuid.UUID
	Name string
}

// IsZero reports whether r points at nothing.
func (r Ref) IsZero() bool { return r.ID == uuid.Nil }
