// Package service implements equipment operations. Writes are tracked in
// the equipment's interaction history.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	clientModels "github.com/ItsLhuis/mxt-sub001/internal/client/models"
	"github.com/ItsLhuis/mxt-sub001/internal/equipment/models"
	interaction "github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	tracking "github.com/ItsLhuis/mxt-sub001/internal/interaction/service"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
	"github.com/ItsLhuis/mxt-sub001/pkg/requestcontext"
)

// Store persists equipment.
type Store interface {
	Create(ctx context.Context, e *models.Equipment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Equipment, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Equipment, error)
	List(ctx context.Context, clientID *uuid.UUID) ([]*models.Equipment, error)
	Update(ctx context.Context, e *models.Equipment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Clients looks up owning clients. It returns sentinel.ErrNotFound for
// unknown ids.
type Clients interface {
	FindByID(ctx context.Context, id uuid.UUID) (*clientModels.Client, error)
}

// Dependents reports whether repairs still reference equipment.
type Dependents interface {
	EquipmentInUse(ctx context.Context, equipmentID uuid.UUID) (bool, error)
}

// Service manages equipment.
type Service struct {
	store      Store
	clients    Clients
	recorder   *tracking.Recorder
	dependents Dependents
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithDependents blocks deleting equipment that repairs still reference.
func WithDependents(d Dependents) Option {
	return func(s *Service) { s.dependents = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates an equipment Service.
func New(store Store, clients Clients, recorder *tracking.Recorder, opts ...Option) *Service {
	s := &Service{store: store, clients: clients, recorder: recorder, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC().Truncate(time.Microsecond)
}

// Create adds equipment for an existing client. It serializes with writes
// to that client so a concurrent client delete cannot orphan it.
func (s *Service) Create(ctx context.Context, req *models.Request) (*models.Equipment, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	id := uuid.New()
	res, err := tracking.Track(ctx, s.recorder, models.Fields, tracking.Mutation[models.Equipment]{
		EntityID: id,
		Kind:     interaction.KindCreated,
		Locks:    []string{tracking.LockKey(interaction.EntityClient, req.ClientID)},
		Apply: func(ctx context.Context, _ *models.Equipment) (*models.Equipment, error) {
			owner, err := s.client(ctx, req.ClientID)
			if err != nil {
				return nil, err
			}
			at := now(ctx)
			e := &models.Equipment{
				ID:           id,
				ClientID:     owner.ID,
				ClientName:   owner.Name,
				Brand:        req.Brand,
				Model:        req.Model,
				SerialNumber: req.SerialNumber,
				Description:  req.Description,
				CreatedAt:    at,
				UpdatedAt:    at,
			}
			if err := s.store.Create(ctx, e); err != nil {
				return nil, storeError(err, "client not found", "serial number already registered")
			}
			return e, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return res.After, nil
}

// Get returns one piece of equipment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	e, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "equipment not found", "")
	}
	if err := s.hydrate(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// List returns all equipment, or only one client's when clientID is set.
func (s *Service) List(ctx context.Context, clientID *uuid.UUID) ([]*models.Equipment, error) {
	if clientID != nil {
		if _, err := s.client(ctx, *clientID); err != nil {
			return nil, err
		}
	}
	items, err := s.store.List(ctx, clientID)
	if err != nil {
		return nil, storeError(err, "", "")
	}
	for _, e := range items {
		if err := s.hydrate(ctx, e); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Update replaces the equipment's fields. Moving equipment to another
// client is recorded as a change of Cliente.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *models.Request) (*models.Equipment, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res, err := tracking.Track(ctx, s.recorder, models.Fields, tracking.Mutation[models.Equipment]{
		EntityID: id,
		Kind:     interaction.KindUpdated,
		Locks:    []string{tracking.LockKey(interaction.EntityClient, req.ClientID)},
		Load:     s.load(id),
		Apply: func(ctx context.Context, before *models.Equipment) (*models.Equipment, error) {
			owner, err := s.client(ctx, req.ClientID)
			if err != nil {
				return nil, err
			}
			after := before.Clone()
			after.ClientID = owner.ID
			after.ClientName = owner.Name
			after.Brand = req.Brand
			after.Model = req.Model
			after.SerialNumber = req.SerialNumber
			after.Description = req.Description
			after.UpdatedAt = now(ctx)
			if err := s.store.Update(ctx, &after); err != nil {
				return nil, storeError(err, "equipment not found", "serial number already registered")
			}
			return &after, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return res.After, nil
}

// Delete removes equipment that no repair references.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := tracking.Track(ctx, s.recorder, models.Fields, tracking.Mutation[models.Equipment]{
		EntityID: id,
		Kind:     interaction.KindDeleted,
		Load:     s.load(id),
		Apply: func(ctx context.Context, _ *models.Equipment) (*models.Equipment, error) {
			if s.dependents != nil {
				inUse, err := s.dependents.EquipmentInUse(ctx, id)
				if err != nil {
					return nil, storeError(err, "", "")
				}
				if inUse {
					return nil, dErrors.New(dErrors.CodeConflict, "equipment still has repairs")
				}
			}
			if err := s.store.Delete(ctx, id); err != nil {
				return nil, storeError(err, "equipment not found", "equipment still has repairs")
			}
			return nil, nil
		},
	})
	return err
}

func (s *Service) load(id uuid.UUID) func(ctx context.Context) (*models.Equipment, error) {
	return func(ctx context.Context) (*models.Equipment, error) {
		e, err := s.store.FindForUpdate(ctx, id)
		if err != nil {
			return nil, storeError(err, "equipment not found", "")
		}
		if err := s.hydrate(ctx, e); err != nil {
			return nil, err
		}
		return e, nil
	}
}

func (s *Service) client(ctx context.Context, id uuid.UUID) (*clientModels.Client, error) {
	c, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "client not found", "")
	}
	return c, nil
}

// hydrate sets the current name of the owning client.
func (s *Service) hydrate(ctx context.Context, e *models.Equipment) error {
	c, err := s.clients.FindByID(ctx, e.ClientID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		s.logger.WarnContext(ctx, "equipment references a missing client",
			"equipment_id", e.ID,
			"client_id", e.ClientID,
		)
		return nil
	case err != nil:
		return storeError(err, "", "")
	}
	e.ClientName = c.Name
	return nil
}

func storeError(err error, notFound, conflict string) error {
	if _, ok := dErrors.CodeOf(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound) && notFound != "":
		return dErrors.New(dErrors.CodeNotFound, notFound)
	case errors.Is(err, sentinel.ErrConflict) && conflict != "":
		return dErrors.Wrap(err, dErrors.CodeConflict, conflict)
	default:
		return dErrors.Wrap(err, dErrors.CodePersistence, "equipment store failure")
	}
}
