package models

import (
	"strings"

	"github.com/ItsLhuis/mxt-sub001/pkg/platform/validation"
)

// ClientRequest is the body of client create and update calls. Updates
// replace every field.
type ClientRequest struct {
	Name        string  `json:"name" validate:"notblank,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

func (r *ClientRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = trimOptional(r.Description)
}

func (r *ClientRequest) Validate() error {
	return validation.Struct(r)
}

// ContactRequest is the body of contact create and update calls.
type ContactRequest struct {
	Kind  string `json:"kind" validate:"required,oneof=phone email other"`
	Value string `json:"value" validate:"notblank,max=200"`
}

func (r *ContactRequest) Normalize() {
	r.Kind = strings.ToLower(strings.TrimSpace(r.Kind))
	r.Value = strings.TrimSpace(r.Value)
}

func (r *ContactRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if ContactKind(r.Kind) == ContactEmail {
		return validation.Struct(struct {
			Email string `validate:"email"`
		}{r.Value})
	}
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
