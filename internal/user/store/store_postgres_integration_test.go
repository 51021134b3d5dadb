//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/ItsLhuis/mxt-sub001/internal/user/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
	"github.com/ItsLhuis/mxt-sub001/pkg/testutil/containers"
)

type PostgresUserStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresUserStore
}

func TestPostgresUserStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresUserStoreSuite))
}

func (s *PostgresUserStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresUserStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background()))
}

func (s *PostgresUserStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	user := &models.User{
		ID:        uuid.New(),
		Username:  "ana",
		Role:      domain.RoleManager,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.Save(ctx, user))

	found, err := s.store.FindByUsername(ctx, "ANA")
	s.Require().NoError(err)
	s.Equal(user.ID, found.ID)
	s.Equal(domain.RoleManager, found.Role)
	s.True(user.CreatedAt.Equal(found.CreatedAt))

	err = s.store.Save(ctx, &models.User{ID: uuid.New(), Username: "ana", Role: domain.RoleAdmin, CreatedAt: time.Now()})
	s.ErrorIs(err, sentinel.ErrConflict)

	s.Require().NoError(s.store.Delete(ctx, user.ID))
	_, err = s.store.FindByID(ctx, user.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
