package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ItsLhuis/mxt-sub001/internal/client/models"
	"github.com/ItsLhuis/mxt-sub001/internal/client/store"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/descriptor"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/interactiontest"
	interaction "github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/visibility"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
)

type dependents bool

func (d dependents) ClientInUse(context.Context, uuid.UUID) (bool, error) { return bool(d), nil }

type ServiceSuite struct {
	suite.Suite
	env     *interactiontest.Env
	store   *store.InMemoryStore
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.env = interactiontest.New(descriptor.NewRegistry().MustRegister(models.ClientFields, models.ContactFields), nil)
	s.store = store.NewInMemory()
	s.service = New(s.store, s.env.Recorder)
	s.ctx = s.env.Directory.Add(context.Background(), "ana", domain.RoleManager)
}

func (s *ServiceSuite) create(name string) *models.Client {
	c, err := s.service.Create(s.ctx, &models.ClientRequest{Name: name})
	s.Require().NoError(err)
	return c
}

func (s *ServiceSuite) TestClientLifecycleHistory() {
	c := s.create("  Acme ")
	s.Equal("Acme", c.Name)

	name := "Acme Inc"
	_, err := s.service.Update(s.ctx, c.ID, &models.ClientRequest{Name: name})
	s.Require().NoError(err)
	s.Require().NoError(s.service.Delete(s.ctx, c.ID))

	records := s.env.History(interaction.EntityClient, c.ID)
	s.Require().Len(records, 3)
	deleted, updated, created := records[0], records[1], records[2]

	s.Run("create records every field with after values", func() {
		s.Equal("CLIENT_CREATED", created.Type())
		s.Require().Len(created.Changes, 2)
		s.Equal("Nome", created.Changes[0].Field)
		s.Equal("Acme", created.Changes[0].After)
		s.False(created.Changes[0].HasBefore)
		s.Equal("Descrição", created.Changes[1].Field)
		s.True(created.Changes[1].HasAfter)
		s.Nil(created.Changes[1].After)
	})

	s.Run("update records a full snapshot", func() {
		s.Equal("CLIENT_UPDATED", updated.Type())
		s.Require().Len(updated.Changes, 2)
		s.Equal("Acme", updated.Changes[0].Before)
		s.Equal("Acme Inc", updated.Changes[0].After)
		s.True(*updated.Changes[0].Changed)
		s.False(*updated.Changes[1].Changed)
	})

	s.Run("delete records before values only", func() {
		s.Equal("CLIENT_DELETED", deleted.Type())
		s.Equal("Acme Inc", deleted.Changes[0].Before)
		for _, ch := range deleted.Changes {
			s.False(ch.HasAfter)
		}
	})

	s.Run("records carry the actor snapshot", func() {
		for _, rec := range records {
			s.Require().NotNil(rec.Actor)
			s.Equal("ana", rec.Actor.Username)
			s.Equal(domain.RoleManager, rec.Actor.Role)
		}
	})

	_, err = s.service.Get(s.ctx, c.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestValidationFailsBeforeTracking() {
	_, err := s.service.Create(s.ctx, &models.ClientRequest{Name: "   "})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	clients, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(clients)
}

func (s *ServiceSuite) TestUpdateMissingClient() {
	id := uuid.New()
	_, err := s.service.Update(s.ctx, id, &models.ClientRequest{Name: "x"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Empty(s.env.History(interaction.EntityClient, id))
}

func (s *ServiceSuite) TestDuplicateContactLeavesNoHistory() {
	c := s.create("Acme")
	first, err := s.service.AddContact(s.ctx, c.ID, &models.ContactRequest{Kind: "phone", Value: "+351 912 345 678"})
	s.Require().NoError(err)

	_, err = s.service.AddContact(s.ctx, c.ID, &models.ContactRequest{Kind: "phone", Value: "00351912345678"})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	contacts, err := s.service.ListContacts(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Require().Len(contacts, 1)
	s.Equal(first.ID, contacts[0].ID)
	s.Len(s.env.History(interaction.EntityClientContact, first.ID), 1)
}

func (s *ServiceSuite) TestReformattedContactIsNotAChange() {
	c := s.create("Acme")
	ct, err := s.service.AddContact(s.ctx, c.ID, &models.ContactRequest{Kind: "phone", Value: "912345678"})
	s.Require().NoError(err)

	_, err = s.service.UpdateContact(s.ctx, ct.ID, &models.ContactRequest{Kind: "phone", Value: "912 345 678"})
	s.Require().NoError(err)

	records := s.env.History(interaction.EntityClientContact, ct.ID)
	s.Require().Len(records, 2)
	s.Equal("Contacto", records[0].Changes[1].Field)
	s.False(*records[0].Changes[1].Changed)
}

func (s *ServiceSuite) TestContactForMissingClient() {
	_, err := s.service.AddContact(s.ctx, uuid.New(), &models.ContactRequest{Kind: "other", Value: "loja"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.ListContacts(s.ctx, uuid.New())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestInvalidEmailContact() {
	c := s.create("Acme")
	_, err := s.service.AddContact(s.ctx, c.ID, &models.ContactRequest{Kind: "email", Value: "not-an-address"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestDeleteBlockedByContacts() {
	c := s.create("Acme")
	ct, err := s.service.AddContact(s.ctx, c.ID, &models.ContactRequest{Kind: "other", Value: "loja"})
	s.Require().NoError(err)

	err = s.service.Delete(s.ctx, c.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Len(s.env.History(interaction.EntityClient, c.ID), 1)

	s.Require().NoError(s.service.DeleteContact(s.ctx, ct.ID))
	s.Require().NoError(s.service.Delete(s.ctx, c.ID))
}

func (s *ServiceSuite) TestDeleteBlockedByDependents() {
	svc := New(s.store, s.env.Recorder, WithDependents(dependents(true)))
	c := s.create("Acme")

	err := svc.Delete(s.ctx, c.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = svc.Get(s.ctx, c.ID)
	s.NoError(err)
}

func (s *ServiceSuite) TestConcurrentRenamesAreSerialized() {
	c := s.create("Acme")
	names := []string{"Acme Norte", "Acme Sul"}

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := s.service.Update(s.ctx, c.ID, &models.ClientRequest{Name: name})
			s.NoError(err)
		}(name)
	}
	wg.Wait()

	records := s.env.History(interaction.EntityClient, c.ID)
	s.Require().Len(records, 3)
	second, first := records[0], records[1]
	s.Equal("Acme", first.Changes[0].Before)
	s.Equal(first.Changes[0].After, second.Changes[0].Before)
	s.NotEqual(first.Changes[0].After, second.Changes[0].After)
}

func TestContactValueHiddenFromEmployees(t *testing.T) {
	policy := visibility.NewPolicy(domain.RoleAdmin, domain.RoleManager, domain.RoleEmployee)
	env := interactiontest.New(descriptor.NewRegistry().MustRegister(models.ClientFields, models.ContactFields), &policy)
	svc := New(store.NewInMemory(), env.Recorder)
	ctx := env.Directory.Add(context.Background(), "ana", domain.RoleAdmin)

	c, err := svc.Create(ctx, &models.ClientRequest{Name: "Acme"})
	require.NoError(t, err)
	ct, err := svc.AddContact(ctx, c.ID, &models.ContactRequest{Kind: "email", Value: "acme@example.com"})
	require.NoError(t, err)

	records, visible, err := env.Recorder.History(ctx, interaction.EntityClientContact, ct.ID, domain.RoleEmployee)
	require.NoError(t, err)
	require.True(t, visible)
	require.Len(t, records, 1)
	require.Len(t, records[0].Changes, 1)
	assert.Equal(t, "Tipo", records[0].Changes[0].Field)

	records, _, err = env.Recorder.History(ctx, interaction.EntityClientContact, ct.ID, domain.RoleManager)
	require.NoError(t, err)
	assert.Len(t, records[0].Changes, 2)
}

func TestStoreError(t *testing.T) {
	coded := dErrors.New(dErrors.CodeValidation, "bad")
	assert.Equal(t, coded, storeError(coded, "nf", "c"))
	assert.True(t, dErrors.HasCode(storeError(errors.New("boom"), "nf", "c"), dErrors.CodePersistence))
}
