package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/internal/repair/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
	txcontext "github.com/ItsLhuis/mxt-sub001/pkg/platform/tx"
)

// InMemoryStore keeps repairs in a map and serves the seeded catalog.
// Writes made inside a unit of work are undone through its journal if the
// unit fails.
type InMemoryStore struct {
	mu      sync.RWMutex
	repairs map[uuid.UUID]models.Repair
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{repairs: make(map[uuid.UUID]models.Repair)}
}

func (s *InMemoryStore) Statuses(context.Context) ([]models.Status, error) {
	return models.DefaultStatuses(), nil
}

func (s *InMemoryStore) Accessories(context.Context) ([]models.Accessory, error) {
	return models.DefaultAccessories(), nil
}

func (s *InMemoryStore) Create(ctx context.Context, r *models.Repair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.repairs[r.ID]; exists {
		return sentinel.ErrConflict
	}
	s.put(ctx, r.Clone())
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Repair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.repairs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := r.Clone()
	return &cp, nil
}

// FindForUpdate is FindByID; the unit of work already holds the entity lock.
func (s *InMemoryStore) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Repair, error) {
	return s.FindByID(ctx, id)
}

// List returns repairs newest entry first. A non-nil equipmentID restricts
// the result to that equipment's repairs.
func (s *InMemoryStore) List(_ context.Context, equipmentID *uuid.UUID) ([]*models.Repair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Repair, 0)
	for _, r := range s.repairs {
		if equipmentID != nil && r.EquipmentID != *equipmentID {
			continue
		}
		cp := r.Clone()
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.After(b.EntryDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return out, nil
}

func (s *InMemoryStore) Update(ctx context.Context, r *models.Repair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.repairs[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.put(ctx, r.Clone())
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.repairs[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.repairs, id)
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.repairs[id] = prev
	})
	return nil
}

// EquipmentInUse reports whether any repair references equipmentID.
func (s *InMemoryStore) EquipmentInUse(_ context.Context, equipmentID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.repairs {
		if r.EquipmentID == equipmentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) put(ctx context.Context, r models.Repair) {
	prev, existed := s.repairs[r.ID]
	s.repairs[r.ID] = r
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.repairs[r.ID] = prev
		} else {
			delete(s.repairs, r.ID)
		}
	})
}
