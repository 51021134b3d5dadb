// Package service manages the users that act on tracked entities and
// resolves them into actor snapshots for interaction records.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	interactionModels "github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/internal/user/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
	"github.com/ItsLhuis/mxt-sub001/pkg/requestcontext"
)

// Store persists users.
type Store interface {
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service manages users.
type Service struct {
	store  Store
	logger *slog.Logger
}

// New creates a user Service.
func New(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Create adds a user. Usernames are unique regardless of case.
func (s *Service) Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	user := &models.User{
		ID:        uuid.New(),
		Username:  req.Username,
		Role:      domain.Role(req.Role),
		CreatedAt: requestcontext.Now(ctx).UTC(),
	}
	if err := s.store.Save(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "username already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to save user")
	}
	s.logger.InfoContext(ctx, "user created",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", user.ID,
		"role", user.Role,
	)
	return user, nil
}

// EnsureUser returns the user named username, creating it with role when
// absent.
func (s *Service) EnsureUser(ctx context.Context, username, role string) (*models.User, error) {
	existing, err := s.store.FindByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to look up user")
	}
	return s.Create(ctx, &models.CreateUserRequest{Username: username, Role: role})
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to load user")
	}
	return user, nil
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to list users")
	}
	return users, nil
}

// Delete removes a user. History already recorded for the user is left
// untouched and keeps showing its snapshot.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodePersistence, "failed to delete user")
	}
	s.logger.InfoContext(ctx, "user deleted",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", id,
	)
	return nil
}

// Actor resolves id into the snapshot stored on interaction records. It
// returns sentinel.ErrNotFound for unknown users.
func (s *Service) Actor(ctx context.Context, id uuid.UUID) (*interactionModels.Actor, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &interactionModels.Actor{ID: user.ID, Username: user.Username, Role: user.Role}, nil
}
