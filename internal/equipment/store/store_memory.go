package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/internal/equipment/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
	txcontext "github.com/ItsLhuis/mxt-sub001/pkg/platform/tx"
)

// InMemoryStore keeps equipment in a map. Writes made inside a unit of work
// are undone through its journal if the unit fails.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]models.Equipment
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{items: make(map[uuid.UUID]models.Equipment)}
}

// Create adds equipment. Serial numbers are unique across all equipment.
func (s *InMemoryStore) Create(ctx context.Context, e *models.Equipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[e.ID]; exists || s.serialTaken(e) {
		return sentinel.ErrConflict
	}
	s.put(ctx, e.Clone())
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := e.Clone()
	return &cp, nil
}

// FindForUpdate is FindByID; the unit of work already holds the entity lock.
func (s *InMemoryStore) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	return s.FindByID(ctx, id)
}

// List returns equipment ordered by brand, model and id. A non-nil
// clientID restricts the result to that client's equipment.
func (s *InMemoryStore) List(_ context.Context, clientID *uuid.UUID) ([]*models.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Equipment, 0)
	for _, e := range s.items {
		if clientID != nil && e.ClientID != *clientID {
			continue
		}
		cp := e.Clone()
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Brand != b.Brand {
			return a.Brand < b.Brand
		}
		if a.Model != b.Model {
			return a.Model < b.Model
		}
		return a.ID.String() < b.ID.String()
	})
	return out, nil
}

func (s *InMemoryStore) Update(ctx context.Context, e *models.Equipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[e.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.serialTaken(e) {
		return sentinel.ErrConflict
	}
	s.put(ctx, e.Clone())
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.items[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.items, id)
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.items[id] = prev
	})
	return nil
}

// ClientInUse reports whether any equipment belongs to clientID.
func (s *InMemoryStore) ClientInUse(_ context.Context, clientID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.items {
		if e.ClientID == clientID {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) serialTaken(e *models.Equipment) bool {
	if e.SerialNumber == nil {
		return false
	}
	for id, other := range s.items {
		if id != e.ID && other.SerialNumber != nil && strings.EqualFold(*other.SerialNumber, *e.SerialNumber) {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) put(ctx context.Context, e models.Equipment) {
	prev, existed := s.items[e.ID]
	s.items[e.ID] = e
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.items[e.ID] = prev
		} else {
			delete(s.items, e.ID)
		}
	})
}
