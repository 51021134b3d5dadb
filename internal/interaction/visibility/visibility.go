// Package visibility redacts interaction history by caller role at read
// time. Stored records are never modified.
package visibility

import (
	"fmt"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
)

// Policy maps roles to the canViewHistory permission.
type Policy struct {
	viewers map[domain.Role]struct{}
}

// NewPolicy grants history access to roles.
func NewPolicy(roles ...domain.Role) Policy {
	p := Policy{viewers: make(map[domain.Role]struct{}, len(roles))}
	for _, r := range roles {
		p.viewers[r] = struct{}{}
	}
	return p
}

// DefaultPolicy lets admins and managers view history.
func DefaultPolicy() Policy {
	return NewPolicy(domain.RoleAdmin, domain.RoleManager)
}

// ParsePolicy builds a policy from configured role names.
func ParsePolicy(names []string) (Policy, error) {
	roles := make([]domain.Role, 0, len(names))
	for _, n := range names {
		r := domain.ParseRole(n)
		if r.IsZero() {
			continue
		}
		switch r {
		case domain.RoleAdmin, domain.RoleManager, domain.RoleEmployee:
		default:
			return Policy{}, fmt.Errorf("unknown history viewer role %q", n)
		}
		roles = append(roles, r)
	}
	return NewPolicy(roles...), nil
}

// CanViewHistory reports whether role may see interaction history.
func (p Policy) CanViewHistory(role domain.Role) bool {
	_, ok := p.viewers[role]
	return ok
}

// FieldRules reports per-field visibility for stored labels.
type FieldRules interface {
	LabelVisible(et models.EntityType, label string, role domain.Role) bool
}

// Filter applies the policy and field rules to records on every read path.
type Filter struct {
	policy Policy
	fields FieldRules
}

// NewFilter creates a Filter. fields may be nil to skip per-field rules.
func NewFilter(policy Policy, fields FieldRules) *Filter {
	return &Filter{policy: policy, fields: fields}
}

// CanViewHistory reports whether role may see history at all.
func (f *Filter) CanViewHistory(role domain.Role) bool {
	return f.policy.CanViewHistory(role)
}

// Apply returns the records role may see and whether history is visible at
// all. When visible is false the caller must omit history from its
// response entirely. Changes to fields hidden from role are dropped from
// the returned copies; records keep their position.
func (f *Filter) Apply(role domain.Role, records []models.Record) ([]models.Record, bool) {
	if !f.policy.CanViewHistory(role) {
		return nil, false
	}
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		r := rec.Clone()
		if f.fields != nil {
			kept := make([]models.FieldChange, 0, len(r.Changes))
			for _, c := range r.Changes {
				if f.fields.LabelVisible(r.EntityType, c.Field, role) {
					kept = append(kept, c)
				}
			}
			r.Changes = kept
		}
		out = append(out, r)
	}
	return out, true
}
