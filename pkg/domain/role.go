package domain

import "strings"

// Role is the caller's role as carried in access tokens and snapshotted on
// interaction records.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// ParseRole normalizes a role string. Unknown roles are kept verbatim so that
// policies can decide about them explicitly.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

func (r Role) String() string { return string(r) }

// IsZero reports whether no role was supplied.
func (r Role) IsZero() bool { return r == "" }
