package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/internal/client/models"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/descriptor"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
	txcontext "github.com/ItsLhuis/mxt-sub001/pkg/platform/tx"
)

// InMemoryStore keeps clients and their contacts in maps. Writes made inside
// a unit of work are undone through its journal if the unit fails.
type InMemoryStore struct {
	mu       sync.RWMutex
	clients  map[uuid.UUID]models.Client
	contacts map[uuid.UUID]models.Contact
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		clients:  make(map[uuid.UUID]models.Client),
		contacts: make(map[uuid.UUID]models.Contact),
	}
}

func (s *InMemoryStore) Create(ctx context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clients[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.putClient(ctx, c.Clone())
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := c.Clone()
	return &cp, nil
}

// FindForUpdate is FindByID; the unit of work already holds the entity lock.
func (s *InMemoryStore) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	return s.FindByID(ctx, id)
}

// List returns clients ordered by name.
func (s *InMemoryStore) List(_ context.Context) ([]*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Client, 0, len(s.clients))
	for _, c := range s.clients {
		cp := c.Clone()
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryStore) Update(ctx context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.putClient(ctx, c.Clone())
	return nil
}

// Delete removes a client without contacts.
func (s *InMemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.clients[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	for _, ct := range s.contacts {
		if ct.ClientID == id {
			return sentinel.ErrConflict
		}
	}
	delete(s.clients, id)
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.clients[id] = prev
	})
	return nil
}

func (s *InMemoryStore) putClient(ctx context.Context, c models.Client) {
	prev, existed := s.clients[c.ID]
	s.clients[c.ID] = c
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.clients[c.ID] = prev
		} else {
			delete(s.clients, c.ID)
		}
	})
}

// CreateContact adds a contact to an existing client. A client may not hold
// the same contact twice; phone numbers and e-mail addresses compare in
// normalized form.
func (s *InMemoryStore) CreateContact(ctx context.Context, ct *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[ct.ClientID]; !ok {
		return sentinel.ErrNotFound
	}
	if _, exists := s.contacts[ct.ID]; exists || s.duplicateContact(ct) {
		return sentinel.ErrConflict
	}
	s.putContact(ctx, *ct)
	return nil
}

func (s *InMemoryStore) FindContact(_ context.Context, id uuid.UUID) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ct, ok := s.contacts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &ct, nil
}

func (s *InMemoryStore) FindContactForUpdate(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	return s.FindContact(ctx, id)
}

// ListContacts returns a client's contacts in creation order.
func (s *InMemoryStore) ListContacts(_ context.Context, clientID uuid.UUID) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Contact, 0)
	for _, ct := range s.contacts {
		if ct.ClientID == clientID {
			cp := ct
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryStore) UpdateContact(ctx context.Context, ct *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[ct.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.duplicateContact(ct) {
		return sentinel.ErrConflict
	}
	s.putContact(ctx, *ct)
	return nil
}

func (s *InMemoryStore) DeleteContact(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.contacts[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.contacts, id)
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.contacts[id] = prev
	})
	return nil
}

func (s *InMemoryStore) duplicateContact(ct *models.Contact) bool {
	want := descriptor.NormalizeContact(ct.Value)
	for id, other := range s.contacts {
		if id != ct.ID && other.ClientID == ct.ClientID && other.Kind == ct.Kind &&
			descriptor.NormalizeContact(other.Value) == want {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) putContact(ctx context.Context, ct models.Contact) {
	prev, existed := s.contacts[ct.ID]
	s.contacts[ct.ID] = ct
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.contacts[ct.ID] = prev
		} else {
			delete(s.contacts, ct.ID)
		}
	})
}
