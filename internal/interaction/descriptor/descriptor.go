// Package descriptor declares, per entity type, which fields are tracked in
// the change history and how each one is read, projected and compared.
//
// A Set is built once per entity type and its order is the order fields
// appear in every record. Labels are what records store, so renaming a
// label is a schema change: bump the set version and keep the old label
// with WithFormerLabels so older records stay governed by the field's
// visibility.
package descriptor

import (
	"fmt"
	"reflect"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
)

// Descriptor tracks one field of T.
//
// Extract reads the raw value from an entity. Project turns it into the
// JSON-native value stored in the record; nil means the raw value is used.
// Equals compares two projected values; nil means reflect.DeepEqual.
// VisibleTo limits which roles see the field in history; nil means all.
// FormerLabels are labels the field was stored under in older versions.
type Descriptor[T any] struct {
	Key          string
	Label        string
	FormerLabels []string
	Extract      func(*T) any
	Project      func(any) any
	Equals       func(a, b any) bool
	VisibleTo    func(domain.Role) bool
}

// WithFormerLabels returns a copy of d that also owns labels retired from
// earlier versions of the set.
func (d Descriptor[T]) WithFormerLabels(labels ...string) Descriptor[T] {
	d.FormerLabels = append(append([]string(nil), d.FormerLabels...), labels...)
	return d
}

// WithVisibility returns a copy of d visible only to the given roles.
func (d Descriptor[T]) WithVisibility(roles ...domain.Role) Descriptor[T] {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	d.VisibleTo = func(role domain.Role) bool {
		_, ok := allowed[role]
		return ok
	}
	return d
}

// Visible reports whether role may see the field.
func (d Descriptor[T]) Visible(role domain.Role) bool {
	return d.VisibleTo == nil || d.VisibleTo(role)
}

// Same compares projected values with the descriptor's comparator.
func (d Descriptor[T]) Same(a, b any) bool {
	if d.Equals == nil {
		return reflect.DeepEqual(a, b)
	}
	return d.Equals(a, b)
}

// Field is the type-erased view of a descriptor kept by the Registry.
type Field struct {
	Key          string
	Label        string
	FormerLabels []string
	VisibleTo    func(domain.Role) bool
}

// Visible reports whether role may see the field.
func (f Field) Visible(role domain.Role) bool {
	return f.VisibleTo == nil || f.VisibleTo(role)
}

// Set is the ordered, versioned list of tracked fields of one entity type.
type Set[T any] struct {
	entity  models.EntityType
	version int
	fields  []Descriptor[T]
}

// NewSet validates fields and builds a Set. Keys and labels must be unique
// and every descriptor needs an extractor.
func NewSet[T any](entity models.EntityType, version int, fields ...Descriptor[T]) (*Set[T], error) {
	if !entity.IsValid() {
		return nil, fmt.Errorf("descriptor set: unknown entity type %q", entity)
	}
	if version < 1 {
		return nil, fmt.Errorf("descriptor set %s: version must be positive", entity)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("descriptor set %s: no fields", entity)
	}
	keys := make(map[string]struct{}, len(fields))
	labels := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		switch {
		case f.Key == "":
			return nil, fmt.Errorf("descriptor set %s: field %d has no key", entity, i)
		case f.Label == "":
			return nil, fmt.Errorf("descriptor set %s: field %q has no label", entity, f.Key)
		case f.Extract == nil:
			return nil, fmt.Errorf("descriptor set %s: field %q has no extractor", entity, f.Key)
		}
		if _, dup := keys[f.Key]; dup {
			return nil, fmt.Errorf("descriptor set %s: duplicate key %q", entity, f.Key)
		}
		keys[f.Key] = struct{}{}
		for _, label := range append([]string{f.Label}, f.FormerLabels...) {
			if _, dup := labels[label]; dup {
				return nil, fmt.Errorf("descriptor set %s: duplicate label %q", entity, label)
			}
			labels[label] = struct{}{}
		}
	}
	return &Set[T]{
		entity:  entity,
		version: version,
		fields:  append([]Descriptor[T](nil), fields...),
	}, nil
}

// MustSet is NewSet for package-level declarations.
func MustSet[T any](entity models.EntityType, version int, fields ...Descriptor[T]) *Set[T] {
	s, err := NewSet(entity, version, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// EntityType returns the entity type the set describes.
func (s *Set[T]) EntityType() models.EntityType { return s.entity }

// Version returns the set's schema version.
func (s *Set[T]) Version() int { return s.version }

// Len returns the number of tracked fields.
func (s *Set[T]) Len() int { return len(s.fields) }

// Fields returns the descriptors in display order.
func (s *Set[T]) Fields() []Descriptor[T] {
	return append([]Descriptor[T](nil), s.fields...)
}

// Labels returns the field labels in display order.
func (s *Set[T]) Labels() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Label
	}
	return out
}

// Erase returns the type-erased fields for registration.
func (s *Set[T]) Erase() []Field {
	out := make([]Field, len(s.fields))
	for i, f := range s.fields {
		out[i] = Field{
			Key:          f.Key,
			Label:        f.Label,
			FormerLabels: append([]string(nil), f.FormerLabels...),
			VisibleTo:    f.VisibleTo,
		}
	}
	return out
}
