package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/ItsLhuis/mxt-sub001/internal/user/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
)

type InMemoryUserStoreSuite struct {
	suite.Suite
	store *InMemoryUserStore
}

func (s *InMemoryUserStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func TestInMemoryUserStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryUserStoreSuite))
}

func (s *InMemoryUserStoreSuite) TestLookupBehavior() {
	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Username: "Ana", Role: domain.RoleManager}
	s.Require().NoError(s.store.Save(ctx, user))

	s.Run("returns user by ID when exists", func() {
		found, err := s.store.FindByID(ctx, user.ID)
		s.Require().NoError(err)
		s.Equal(user, found)
	})

	s.Run("returns user by username regardless of case", func() {
		found, err := s.store.FindByUsername(ctx, "ana")
		s.Require().NoError(err)
		s.Equal(user.ID, found.ID)
	})

	s.Run("returns ErrNotFound when user ID does not exist", func() {
		_, err := s.store.FindByID(ctx, uuid.New())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned users are copies", func() {
		found, err := s.store.FindByID(ctx, user.ID)
		s.Require().NoError(err)
		found.Username = "mutated"
		again, err := s.store.FindByID(ctx, user.ID)
		s.Require().NoError(err)
		s.Equal("Ana", again.Username)
	})
}

func (s *InMemoryUserStoreSuite) TestUsernameUniqueness() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, &models.User{ID: uuid.New(), Username: "rui", Role: domain.RoleEmployee}))

	err := s.store.Save(ctx, &models.User{ID: uuid.New(), Username: "RUI", Role: domain.RoleAdmin})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *InMemoryUserStoreSuite) TestListAndDelete() {
	ctx := context.Background()
	b := &models.User{ID: uuid.New(), Username: "bruno", Role: domain.RoleEmployee}
	a := &models.User{ID: uuid.New(), Username: "alice", Role: domain.RoleAdmin}
	s.Require().NoError(s.store.Save(ctx, b))
	s.Require().NoError(s.store.Save(ctx, a))

	users, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.Equal("alice", users[0].Username)

	s.Require().NoError(s.store.Delete(ctx, a.ID))
	_, err = s.store.FindByID(ctx, a.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(ctx, a.ID), sentinel.ErrNotFound)
}
