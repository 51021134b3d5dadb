package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
)

// User is an account that can act on tracked entities.
type User struct {
	ID        uuid.UUID   `json:"id"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// KnownRole reports whether r is one of the roles a user may hold.
func KnownRole(r domain.Role) bool {
	switch r {
	case domain.RoleAdmin, domain.RoleManager, domain.RoleEmployee:
		return true
	}
	return false
}
