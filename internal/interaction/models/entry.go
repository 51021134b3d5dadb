package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
)

// ResponsibleUser is the actor as rendered in history responses.
type ResponsibleUser struct {
	ID       uuid.UUID   `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// Entry is the history read contract for one record. A null
// responsible_user means no actor snapshot exists.
type Entry struct {
	ID              int64            `json:"id"`
	Type            string           `json:"type"`
	Changes         []FieldChange    `json:"changes"`
	ResponsibleUser *ResponsibleUser `json:"responsible_user"`
	CreatedAt       time.Time        `json:"created_at_datetime"`
}

// NewEntry renders r for history consumers.
func NewEntry(r Record) Entry {
	e := Entry{
		ID:        r.ID,
		Type:      r.Type(),
		Changes:   r.Changes,
		CreatedAt: r.CreatedAt,
	}
	if e.Changes == nil {
		e.Changes = []FieldChange{}
	}
	if r.Actor != nil {
		e.ResponsibleUser = &ResponsibleUser{
			ID:       r.Actor.ID,
			Username: r.Actor.Username,
			Role:     r.Actor.Role,
		}
	}
	return e
}

// NewEntries renders records in the order given. The result is never nil.
func NewEntries(records []Record) []Entry {
	out := make([]Entry, 0, len(records))
	for _, r := range records {
		out = append(out, NewEntry(r))
	}
	return out
}
