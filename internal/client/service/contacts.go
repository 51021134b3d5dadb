package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/internal/client/models"
	interaction "github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	tracking "github.com/ItsLhuis/mxt-sub001/internal/interaction/service"
)

// AddContact adds a contact to an existing client.
func (s *Service) AddContact(ctx context.Context, clientID uuid.UUID, req *models.ContactRequest) (*models.Contact, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	id := uuid.New()
	res, err := tracking.Track(ctx, s.recorder, models.ContactFields, tracking.Mutation[models.Contact]{
		EntityID: id,
		Kind:     interaction.KindCreated,
		Apply: func(ctx context.Context, _ *models.Contact) (*models.Contact, error) {
			at := now(ctx)
			ct := &models.Contact{
				ID:        id,
				ClientID:  clientID,
				Kind:      models.ContactKind(req.Kind),
				Value:     req.Value,
				CreatedAt: at,
				UpdatedAt: at,
			}
			if err := s.store.CreateContact(ctx, ct); err != nil {
				return nil, storeError(err, "client not found", "client already has this contact")
			}
			return ct, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return res.After, nil
}

// GetContact returns one contact.
func (s *Service) GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	ct, err := s.store.FindContact(ctx, id)
	if err != nil {
		return nil, storeError(err, "contact not found", "")
	}
	return ct, nil
}

// ListContacts returns a client's contacts. It fails with not found when
// the client does not exist.
func (s *Service) ListContacts(ctx context.Context, clientID uuid.UUID) ([]*models.Contact, error) {
	if _, err := s.Get(ctx, clientID); err != nil {
		return nil, err
	}
	contacts, err := s.store.ListContacts(ctx, clientID)
	if err != nil {
		return nil, storeError(err, "", "")
	}
	return contacts, nil
}

// UpdateContact replaces a contact's kind and value.
func (s *Service) UpdateContact(ctx context.Context, id uuid.UUID, req *models.ContactRequest) (*models.Contact, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res, err := tracking.Track(ctx, s.recorder, models.ContactFields, tracking.Mutation[models.Contact]{
		EntityID: id,
		Kind:     interaction.KindUpdated,
		Load:     s.loadContact(id),
		Apply: func(ctx context.Context, before *models.Contact) (*models.Contact, error) {
			after := *before
			after.Kind = models.ContactKind(req.Kind)
			after.Value = req.Value
			after.UpdatedAt = now(ctx)
			if err := s.store.UpdateContact(ctx, &after); err != nil {
				return nil, storeError(err, "contact not found", "client already has this contact")
			}
			return &after, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return res.After, nil
}

// DeleteContact removes a contact.
func (s *Service) DeleteContact(ctx context.Context, id uuid.UUID) error {
	_, err := tracking.Track(ctx, s.recorder, models.ContactFields, tracking.Mutation[models.Contact]{
		EntityID: id,
		Kind:     interaction.KindDeleted,
		Load:     s.loadContact(id),
		Apply: func(ctx context.Context, _ *models.Contact) (*models.Contact, error) {
			if err := s.store.DeleteContact(ctx, id); err != nil {
				return nil, storeError(err, "contact not found", "")
			}
			return nil, nil
		},
	})
	return err
}

func (s *Service) loadContact(id uuid.UUID) func(ctx context.Context) (*models.Contact, error) {
	return func(ctx context.Context) (*models.Contact, error) {
		ct, err := s.store.FindContactForUpdate(ctx, id)
		if err != nil {
			return nil, storeError(err, "contact not found", "")
		}
		return ct, nil
	}
}
