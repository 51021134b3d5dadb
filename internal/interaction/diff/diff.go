// Package diff computes the per-field change list of a mutation.
package diff

import (
	"reflect"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/descriptor"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
)

// KindOf infers the mutation kind from which sides are present.
func KindOf[T any](before, after *T) (models.Kind, bool) {
	switch {
	case before == nil && after != nil:
		return models.KindCreated, true
	case before != nil && after == nil:
		return models.KindDeleted, true
	case before != nil && after != nil:
		return models.KindUpdated, true
	}
	return "", false
}

// Compute returns one FieldChange per descriptor in set, in set order.
//
// before == nil is a create and only After is populated; after == nil is a
// delete and only Before is populated. An update populates both sides and
// Changed on every field, changed or not. Compute never panics: a failing
// extractor or projection yields null for that field and a failing
// comparator counts as a change.
func Compute[T any](before, after *T, set *descriptor.Set[T]) []models.FieldChange {
	fields := set.Fields()
	changes := make([]models.FieldChange, 0, len(fields))
	if before == nil && after == nil {
		return changes
	}
	for _, d := range fields {
		c := models.FieldChange{Field: d.Label}
		if before != nil {
			c.Before, c.HasBefore = value(d, before), true
		}
		if after != nil {
			c.After, c.HasAfter = value(d, after), true
		}
		if before != nil && after != nil {
			changed := !same(d, c.Before, c.After)
			c.Changed = &changed
		}
		changes = append(changes, c)
	}
	return changes
}

// Changed reports whether any field in changes differs.
func Changed(changes []models.FieldChange) bool {
	for _, c := range changes {
		if c.Changed == nil || *c.Changed {
			return true
		}
	}
	return false
}

func value[T any](d descriptor.Descriptor[T], entity *T) (v any) {
	defer func() {
		if recover() != nil {
			v = nil
		}
	}()
	v = d.Extract(entity)
	if d.Project != nil {
		v = d.Project(v)
	}
	return normalizeNil(v)
}

func same[T any](d descriptor.Descriptor[T], a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return d.Same(a, b)
}

// normalizeNil turns typed nils (nil *string, nil map) into an untyped nil
// so that records serialize and compare consistently.
func normalizeNil(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil
		}
	}
	return v
}
