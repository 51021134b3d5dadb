// Package service implements client and contact operations. Every write
// goes through interaction tracking so it is recorded in the entity's
// history in the same transaction.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/internal/client/models"
	interaction "github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	tracking "github.com/ItsLhuis/mxt-sub001/internal/interaction/service"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
	"github.com/ItsLhuis/mxt-sub001/pkg/requestcontext"
)

// Store persists clients and contacts.
type Store interface {
	Create(ctx context.Context, c *models.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Client, error)
	List(ctx context.Context) ([]*models.Client, error)
	Update(ctx context.Context, c *models.Client) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateContact(ctx context.Context, ct *models.Contact) error
	FindContact(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	FindContactForUpdate(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	ListContacts(ctx context.Context, clientID uuid.UUID) ([]*models.Contact, error)
	UpdateContact(ctx context.Context, ct *models.Contact) error
	DeleteContact(ctx context.Context, id uuid.UUID) error
}

// Dependents reports whether other records still reference a client.
type Dependents interface {
	ClientInUse(ctx context.Context, clientID uuid.UUID) (bool, error)
}

// Service manages clients and their contacts.
type Service struct {
	store      Store
	recorder   *tracking.Recorder
	dependents Dependents
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithDependents blocks deleting clients that are still referenced.
func WithDependents(d Dependents) Option {
	return func(s *Service) { s.dependents = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates a client Service.
func New(store Store, recorder *tracking.Recorder, opts ...Option) *Service {
	s := &Service{store: store, recorder: recorder, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC().Truncate(time.Microsecond)
}

// Create adds a client.
func (s *Service) Create(ctx context.Context, req *models.ClientRequest) (*models.Client, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	id := uuid.New()
	res, err := tracking.Track(ctx, s.recorder, models.ClientFields, tracking.Mutation[models.Client]{
		EntityID: id,
		Kind:     interaction.KindCreated,
		Apply: func(ctx context.Context, _ *models.Client) (*models.Client, error) {
			at := now(ctx)
			c := &models.Client{ID: id, Name: req.Name, Description: req.Description, CreatedAt: at, UpdatedAt: at}
			if err := s.store.Create(ctx, c); err != nil {
				return nil, storeError(err, "client not found", "client already exists")
			}
			return c, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return res.After, nil
}

// Get returns one client.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "client not found", "")
	}
	return c, nil
}

// List returns every client ordered by name.
func (s *Service) List(ctx context.Context) ([]*models.Client, error) {
	clients, err := s.store.List(ctx)
	if err != nil {
		return nil, storeError(err, "", "")
	}
	return clients, nil
}

// Update replaces a client's fields.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *models.ClientRequest) (*models.Client, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res, err := tracking.Track(ctx, s.recorder, models.ClientFields, tracking.Mutation[models.Client]{
		EntityID: id,
		Kind:     interaction.KindUpdated,
		Load:     s.loadClient(id),
		Apply: func(ctx context.Context, before *models.Client) (*models.Client, error) {
			after := before.Clone()
			after.Name = req.Name
			after.Description = req.Description
			after.UpdatedAt = now(ctx)
			if err := s.store.Update(ctx, &after); err != nil {
				return nil, storeError(err, "client not found", "client conflicts with an existing one")
			}
			return &after, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return res.After, nil
}

// Delete removes a client that has no contacts and no equipment.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := tracking.Track(ctx, s.recorder, models.ClientFields, tracking.Mutation[models.Client]{
		EntityID: id,
		Kind:     interaction.KindDeleted,
		Load:     s.loadClient(id),
		Apply: func(ctx context.Context, before *models.Client) (*models.Client, error) {
			if s.dependents != nil {
				inUse, err := s.dependents.ClientInUse(ctx, id)
				if err != nil {
					return nil, storeError(err, "", "")
				}
				if inUse {
					return nil, dErrors.New(dErrors.CodeConflict, "client still has equipment")
				}
			}
			if err := s.store.Delete(ctx, id); err != nil {
				return nil, storeError(err, "client not found", "client still has contacts or equipment")
			}
			return nil, nil
		},
	})
	return err
}

func (s *Service) loadClient(id uuid.UUID) func(ctx context.Context) (*models.Client, error) {
	return func(ctx context.Context) (*models.Client, error) {
		c, err := s.store.FindForUpdate(ctx, id)
		if err != nil {
			return nil, storeError(err, "client not found", "")
		}
		return c, nil
	}
}

// storeError translates store failures into coded errors. Errors that
// already carry a code pass through.
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
		return dErrors.Wrap(err, dErrors.CodePersistence, "client store failure")
	}
}
