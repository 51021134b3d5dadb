package models

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/pkg/platform/validation"
)

// Request is the body of equipment create and update calls. Updates
// replace every field, including the owning client.
type Request struct {
	ClientID     uuid.UUID `json:"client_id" validate:"required"`
	Brand        string    `json:"brand" validate:"notblank,max=100"`
	Model        string    `json:"model" validate:"notblank,max=100"`
	SerialNumber *string   `json:"serial_number" validate:"omitempty,max=100"`
	Description  *string   `json:"description" validate:"omitempty,max=2000"`
}

func (r *Request) Normalize() {
	r.Brand = strings.TrimSpace(r.Brand)
	r.Model = strings.TrimSpace(r.Model)
	r.SerialNumber = trimOptional(r.SerialNumber)
	if r.SerialNumber != nil {
		upper := strings.ToUpper(*r.SerialNumber)
		r.SerialNumber = &upper
	}
	r.Description = trimOptional(r.Description)
}

func (r *Request) Validate() error {
	return validation.Struct(r)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
