package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
)

// Equipment is a device a client brought to the workshop. ClientName is
// read from the owning client and not stored with the equipment.
type Equipment struct {
	ID           uuid.UUID `json:"id"`
	ClientID     uuid.UUID `json:"client_id"`
	ClientName   string    `json:"client_name"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	SerialNumber *string   `json:"serial_number"`
	Description  *string   `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clone returns a copy that shares no pointers with e.
func (e Equipment) Clone() Equipment {
	e.SerialNumber = cloneString(e.SerialNumber)
	e.Description = cloneString(e.Description)
	return e
}

// ClientRef is the owning client as a relation value.
func (e Equipment) ClientRef() domain.Ref {
	return domain.Ref{ID: e.ClientID, Name: e.ClientName}
}

// Ref is the relation value repairs store for e.
func (e Equipment) Ref() domain.Ref {
	return domain.Ref{ID: e.ID, Name: e.DisplayName()}
}

// DisplayName is brand and model, followed by the serial number when known.
func (e Equipment) DisplayName() string {
	name := e.Brand + " " + e.Model
	if e.SerialNumber != nil && *e.SerialNumber != "" {
		name += " (" + *e.SerialNumber + ")"
	}
	return name
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
