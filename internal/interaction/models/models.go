package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
)

// Kind is the mutation an interaction records.
type Kind string

const (
	KindCreated Kind = "CREATED"
	KindUpdated Kind = "UPDATED"
	KindDeleted Kind = "DELETED"
)

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindCreated, KindUpdated, KindDeleted:
		return true
	}
	return false
}

// EntityType names a tracked business record kind.
type EntityType string

const (
	EntityClient        EntityType = "client"
	EntityClientContact EntityType = "client_contact"
	EntityEquipment     EntityType = "equipment"
	EntityRepair        EntityType = "repair"
)

// EntityTypes lists every tracked entity type.
func EntityTypes() []EntityType {
	return []EntityType{EntityClient, EntityClientContact, EntityEquipment, EntityRepair}
}

// IsValid reports whether e is a tracked entity type.
func (e EntityType) IsValid() bool {
	switch e {
	case EntityClient, EntityClientContact, EntityEquipment, EntityRepair:
		return true
	}
	return false
}

// PathSegment is the collection name used in URLs.
func (e EntityType) PathSegment() string {
	switch e {
	case EntityClient:
		return "clients"
	case EntityClientContact:
		return "client-contacts"
	case EntityEquipment:
		return "equipment"
	case EntityRepair:
		return "repairs"
	}
	return string(e)
}

// TypeString renders the interaction type shown to history consumers,
// e.g. CLIENT_CREATED.
func TypeString(e EntityType, k Kind) string {
	return strings.ToUpper(string(e)) + "_" + string(k)
}

// Actor is the write-time snapshot of the user responsible for a mutation.
type Actor struct {
	ID       uuid.UUID   `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// Record is one immutable change record.
type Record struct {
	ID            int64         `json:"id"`
	EntityType    EntityType    `json:"entity_type"`
	EntityID      uuid.UUID     `json:"entity_id"`
	Kind          Kind          `json:"kind"`
	Actor         *Actor        `json:"actor"`
	Changes       []FieldChange `json:"changes"`
	SchemaVersion int           `json:"schema_version"`
	PrevHash      []byte        `json:"prev_hash"`
	Hash          []byte        `json:"hash"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Type is the consumer-facing interaction type of r.
func (r Record) Type() string {
	return TypeString(r.EntityType, r.Kind)
}

// Clone returns a copy of r that shares no mutable state with it.
func (r Record) Clone() Record {
	out := r
	if r.Actor != nil {
		actor := *r.Actor
		out.Actor = &actor
	}
	if r.Changes != nil {
		out.Changes = make([]FieldChange, len(r.Changes))
		for i, c := range r.Changes {
			out.Changes[i] = c.Clone()
		}
	}
	if r.PrevHash != nil {
		out.PrevHash = append([]byte(nil), r.PrevHash...)
	}
	if r.Hash != nil {
		out.Hash = append([]byte(nil), r.Hash...)
	}
	return out
}
