package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	txcontext "github.com/ItsLhuis/mxt-sub001/pkg/platform/tx"
)

type entityKey struct {
	entityType models.EntityType
	entityID   uuid.UUID
}

// InMemory is an append-only record store for tests and database-less runs.
// Appends made inside a journaled unit of work are undone on rollback.
type InMemory struct {
	mu       sync.RWMutex
	nextID   int64
	records  map[int64]models.Record
	byEntity map[entityKey][]int64
	now      func() time.Time
}

// MemoryOption configures an InMemory store.
type MemoryOption func(*InMemory)

// WithClock replaces time.Now as the source of CreatedAt.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *InMemory) { s.now = now }
}

// NewInMemory returns an empty store.
func NewInMemory(opts ...MemoryOption) *InMemory {
	s := &InMemory{
		records:  make(map[int64]models.Record),
		byEntity: make(map[entityKey][]int64),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append assigns rec its id, creation time and hash link, then stores a
// copy.
func (s *InMemory) Append(ctx context.Context, rec *models.Record) (int64, error) {
	key := entityKey{rec.EntityType, rec.EntityID}

	s.mu.Lock()
	defer s.mu.Unlock()

	var last *models.Record
	if ids := s.byEntity[key]; len(ids) > 0 {
		prev := s.records[ids[len(ids)-1]]
		last = &prev
	}
	if err := seal(rec, last, s.now()); err != nil {
		return 0, err
	}
	s.nextID++
	rec.ID = s.nextID
	s.records[rec.ID] = rec.Clone()
	s.byEntity[key] = append(s.byEntity[key], rec.ID)

	id := rec.ID
	txcontext.OnRollback(ctx, func() { s.remove(key, id) })
	return id, nil
}

func (s *InMemory) remove(key entityKey, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	ids := s.byEntity[key]
	if i := slices.Index(ids, id); i >= 0 {
		s.byEntity[key] = slices.Delete(ids, i, i+1)
	}
	if len(s.byEntity[key]) == 0 {
		delete(s.byEntity, key)
	}
}

// FindAllByEntityID returns the entity's records newest first.
func (s *InMemory) FindAllByEntityID(_ context.Context, entityType models.EntityType, entityID uuid.UUID) ([]models.Record, error) {
	out := s.collect(entityKey{entityType, entityID})
	sortNewestFirst(out)
	return out, nil
}

// Chain returns the entity's records in insertion order.
func (s *InMemory) Chain(_ context.Context, entityType models.EntityType, entityID uuid.UUID) ([]models.Record, error) {
	return s.collect(entityKey{entityType, entityID}), nil
}

func (s *InMemory) collect(key entityKey) []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byEntity[key]
	out := make([]models.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id].Clone())
	}
	return out
}
