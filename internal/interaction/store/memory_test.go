package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
	txcontext "github.com/ItsLhuis/mxt-sub001/pkg/platform/tx"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) set(t time.Time) { c.t = t }

type InMemorySuite struct {
	suite.Suite
	store    *InMemory
	clock    *testClock
	ctx      context.Context
	entityID uuid.UUID
	base     time.Time
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.base = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	s.clock = &testClock{t: s.base}
	s.store = NewInMemory(WithClock(s.clock.now))
	s.ctx = context.Background()
	s.entityID = uuid.New()
}

func (s *InMemorySuite) record(kind models.Kind, name string) *models.Record {
	return &models.Record{
		EntityType:    models.EntityClient,
		EntityID:      s.entityID,
		Kind:          kind,
		Changes:       []models.FieldChange{{Field: "Nome", After: name, HasAfter: true}},
		SchemaVersion: 1,
	}
}

func (s *InMemorySuite) TestAppendAssignsIncreasingIDs() {
	first := s.record(models.KindCreated, "Acme")
	second := s.record(models.KindUpdated, "Acme Inc")

	id1, err := s.store.Append(s.ctx, first)
	s.Require().NoError(err)
	s.clock.set(s.base.Add(time.Second))
	id2, err := s.store.Append(s.ctx, second)
	s.Require().NoError(err)

	s.Less(id1, id2)
	s.Equal(id1, first.ID)
	s.Equal(s.base, first.CreatedAt)
	s.Equal(s.base.Add(time.Second), second.CreatedAt)
	s.Nil(first.PrevHash)
	s.Equal(first.Hash, second.PrevHash)
}

func (s *InMemorySuite) TestStalledClockStillOrdersNewestFirst() {
	for _, name := range []string{"a", "b", "c"} {
		_, err := s.store.Append(s.ctx, s.record(models.KindUpdated, name))
		s.Require().NoError(err)
	}

	records, err := s.store.FindAllByEntityID(s.ctx, models.EntityClient, s.entityID)
	s.Require().NoError(err)
	s.Require().Len(records, 3)

	s.Equal([]int64{3, 2, 1}, []int64{records[0].ID, records[1].ID, records[2].ID})
	s.Equal("c", records[0].Changes[0].After)
	for i := 1; i < len(records); i++ {
		s.True(records[i].CreatedAt.Before(records[i-1].CreatedAt))
	}
}

func (s *InMemorySuite) TestCreatedAtNeverGoesBackwards() {
	_, err := s.store.Append(s.ctx, s.record(models.KindCreated, "a"))
	s.Require().NoError(err)

	s.clock.set(s.base.Add(-time.Hour))
	late := s.record(models.KindUpdated, "b")
	late.CreatedAt = s.base.Add(-2 * time.Hour)
	_, err = s.store.Append(s.ctx, late)
	s.Require().NoError(err)

	s.Equal(s.base.Add(time.Microsecond), late.CreatedAt)
}

func (s *InMemorySuite) TestCreatedAtIsTruncatedToMicroseconds() {
	s.clock.set(s.base.Add(1500 * time.Nanosecond).In(time.FixedZone("WEST", 3600)))
	rec := s.record(models.KindCreated, "a")
	_, err := s.store.Append(s.ctx, rec)
	s.Require().NoError(err)

	s.Equal(s.base.Add(time.Microsecond), rec.CreatedAt)
	s.Equal(time.UTC, rec.CreatedAt.Location())
}

func (s *InMemorySuite) TestRecordsAreIsolatedFromCallers() {
	rec := s.record(models.KindCreated, "Acme")
	_, err := s.store.Append(s.ctx, rec)
	s.Require().NoError(err)

	rec.Changes[0].After = "tampered"
	records, err := s.store.FindAllByEntityID(s.ctx, models.EntityClient, s.entityID)
	s.Require().NoError(err)
	s.Equal("Acme", records[0].Changes[0].After)

	records[0].Changes[0].After = "tampered again"
	again, err := s.store.FindAllByEntityID(s.ctx, models.EntityClient, s.entityID)
	s.Require().NoError(err)
	s.Equal("Acme", again[0].Changes[0].After)
}

func (s *InMemorySuite) TestRollbackRemovesAppend() {
	_, err := s.store.Append(s.ctx, s.record(models.KindCreated, "a"))
	s.Require().NoError(err)

	journal := &txcontext.Journal{}
	ctx := txcontext.WithJournal(s.ctx, journal)
	_, err = s.store.Append(ctx, s.record(models.KindUpdated, "b"))
	s.Require().NoError(err)
	journal.Rollback()

	records, err := s.store.FindAllByEntityID(s.ctx, models.EntityClient, s.entityID)
	s.Require().NoError(err)
	s.Len(records, 1)

	chain, err := s.store.Chain(s.ctx, models.EntityClient, s.entityID)
	s.Require().NoError(err)
	s.NoError(VerifyChain(chain))
}

func (s *InMemorySuite) TestUnknownEntityHasEmptyHistory() {
	records, err := s.store.FindAllByEntityID(s.ctx, models.EntityClient, uuid.New())
	s.Require().NoError(err)
	s.NotNil(records)
	s.Empty(records)
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	st := NewInMemory()
	ctx := context.Background()
	entityID := uuid.New()
	for _, name := range []string{"a", "b", "c"} {
		_, err := st.Append(ctx, &models.Record{
			EntityType: models.EntityClient, EntityID: entityID, Kind: models.KindUpdated,
			Changes:       []models.FieldChange{{Field: "Nome", After: name, HasAfter: true}},
			SchemaVersion: 1,
		})
		require.NoError(t, err)
	}

	chain, err := st.Chain(ctx, models.EntityClient, entityID)
	require.NoError(t, err)
	require.NoError(t, VerifyChain(chain))

	edited := append([]models.Record(nil), chain...)
	edited[1] = edited[1].Clone()
	edited[1].Changes[0].After = "forged"
	err = VerifyChain(edited)
	require.ErrorIs(t, err, sentinel.ErrChainBroken)
	assert.Contains(t, err.Error(), "interaction 2")

	dropped := []models.Record{chain[0], chain[2]}
	require.ErrorIs(t, VerifyChain(dropped), sentinel.ErrChainBroken)
}

func TestSortNewestFirstBreaksTiesByID(t *testing.T) {
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	records := []models.Record{
		{ID: 1, CreatedAt: at},
		{ID: 3, CreatedAt: at.Add(time.Minute)},
		{ID: 2, CreatedAt: at.Add(time.Minute)},
	}
	sortNewestFirst(records)
	assert.Equal(t, []int64{2, 3, 1}, []int64{records[0].ID, records[1].ID, records[2].ID})
}
