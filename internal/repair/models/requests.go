package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	pstrings "github.com/ItsLhuis/mxt-sub001/pkg/platform/strings"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/validation"
)

const dateLayout = "2006-01-02"

// Request is the body of repair create and update calls. Updates replace
// every field. A missing status means Pendente and a missing entry date
// means today.
type Request struct {
	EquipmentID    uuid.UUID   `json:"equipment_id" validate:"required"`
	StatusID       *uuid.UUID  `json:"status_id"`
	AccessoryIDs   []uuid.UUID `json:"accessory_ids" validate:"max=20"`
	ReportedIssues []string    `json:"reported_issues" validate:"max=20,dive,max=500"`
	Diagnosis      *string     `json:"diagnosis" validate:"omitempty,max=5000"`
	EstimatedCost  *float64    `json:"estimated_cost" validate:"omitempty,gte=0"`
	Urgent         bool        `json:"urgent"`
	EntryDate      string      `json:"entry_date" validate:"omitempty,datetime=2006-01-02"`
}

func (r *Request) Normalize() {
	r.ReportedIssues = pstrings.DedupeFold(r.ReportedIssues)
	r.AccessoryIDs = dedupeIDs(r.AccessoryIDs)
	if r.Diagnosis != nil {
		d := strings.TrimSpace(*r.Diagnosis)
		if d == "" {
			r.Diagnosis = nil
		} else {
			r.Diagnosis = &d
		}
	}
	r.EntryDate = strings.TrimSpace(r.EntryDate)
}

func (r *Request) Validate() error {
	return validation.Struct(r)
}

// Entry resolves the entry date, defaulting to the day of now.
func (r *Request) Entry(now time.Time) (time.Time, error) {
	if r.EntryDate == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateLayout, r.EntryDate)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "entry_date must be a date in YYYY-MM-DD form")
	}
	return t, nil
}

// StatusRequest moves a repair to another status.
type StatusRequest struct {
	StatusID uuid.UUID `json:"status_id" validate:"required"`
}

func (r *StatusRequest) Normalize() {}

func (r *StatusRequest) Validate() error {
	return validation.Struct(r)
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == uuid.Nil {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
