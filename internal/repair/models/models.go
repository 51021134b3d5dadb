package models

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
)

// Status is a step of the repair workflow.
type Status struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Position int       `json:"position"`
}

// Accessory is an item left with the equipment during a repair.
type Accessory struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Repair is a workshop job on one piece of equipment. EquipmentName,
// StatusName and accessory names are read from their own records.
type Repair struct {
	ID             uuid.UUID   `json:"id"`
	EquipmentID    uuid.UUID   `json:"equipment_id"`
	EquipmentName  string      `json:"equipment_name"`
	StatusID       uuid.UUID   `json:"status_id"`
	StatusName     string      `json:"status_name"`
	Accessories    []Accessory `json:"accessories"`
	ReportedIssues []string    `json:"reported_issues"`
	Diagnosis      *string     `json:"diagnosis"`
	EstimatedCost  *float64    `json:"estimated_cost"`
	Urgent         bool        `json:"urgent"`
	EntryDate      time.Time   `json:"entry_date"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Clone returns a copy that shares no slices or pointers with r.
func (r Repair) Clone() Repair {
	r.Accessories = slices.Clone(r.Accessories)
	r.ReportedIssues = slices.Clone(r.ReportedIssues)
	if r.Diagnosis != nil {
		d := *r.Diagnosis
		r.Diagnosis = &d
	}
	if r.EstimatedCost != nil {
		c := *r.EstimatedCost
		r.EstimatedCost = &c
	}
	return r
}

// AccessoryIDs returns the ids of the repair's accessories in order.
func (r Repair) AccessoryIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.Accessories))
	for i, a := range r.Accessories {
		ids[i] = a.ID
	}
	return ids
}

// AccessoryRefs returns the accessories as relation values.
func (r Repair) AccessoryRefs() []domain.Ref {
	refs := make([]domain.Ref, len(r.Accessories))
	for i, a := range r.Accessories {
		refs[i] = domain.Ref{ID: a.ID, Name: a.Name}
	}
	return refs
}
