package descriptor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
)

// ErrUnknownEntity is returned by Registry lookups for unregistered types.
var ErrUnknownEntity = errors.New("entity type not registered")

// erased is implemented by every *Set[T].
type erased interface {
	EntityType() models.EntityType
	Version() int
	Erase() []Field
}

type entry struct {
	version int
	fields  []Field
	byLabel map[string]Field
}

// Registry indexes descriptor sets by entity type for read paths that only
// see stored records.
type Registry struct {
	mu   sync.RWMutex
	sets map[models.EntityType]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sets: make(map[models.EntityType]entry)}
}

// Register adds set. Registering the same entity type twice is an error.
func (r *Registry) Register(set erased) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	et := set.EntityType()
	if _, exists := r.sets[et]; exists {
		return fmt.Errorf("descriptor registry: %s already registered", et)
	}
	fields := set.Erase()
	byLabel := make(map[string]Field, len(fields))
	for _, f := range fields {
		byLabel[f.Label] = f
		for _, former := range f.FormerLabels {
			byLabel[former] = f
		}
	}
	r.sets[et] = entry{version: set.Version(), fields: fields, byLabel: byLabel}
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(sets ...erased) *Registry {
	for _, s := range sets {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Version returns the current schema version of et.
func (r *Registry) Version(et models.EntityType) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sets[et]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownEntity, et)
	}
	return e.version, nil
}

// Fields returns the registered fields of et in display order.
func (r *Registry) Fields(et models.EntityType) ([]Field, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sets[et]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, et)
	}
	return append([]Field(nil), e.fields...), nil
}

// LabelVisible reports whether role may see the field stored under label,
// current or former. A label the set does not know gets the most
// restrictive visibility of the entity: role must see every field.
func (r *Registry) LabelVisible(et models.EntityType, label string, role domain.Role) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sets[et]
	if !ok {
		return true
	}
	if f, ok := e.byLabel[label]; ok {
		return f.Visible(role)
	}
	for _, f := range e.fields {
		if !f.Visible(role) {
			return false
		}
	}
	return true
}
