package models

import (
	"strings"

	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/validation"
)

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Username string `json:"username" validate:"notblank,max=64"`
	Role     string `json:"role" validate:"required,oneof=admin manager employee"`
}

func (r *CreateUserRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Role = string(domain.ParseRole(r.Role))
}

func (r *CreateUserRequest) Validate() error {
	return validation.Struct(r)
}
