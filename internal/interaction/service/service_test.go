package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/builder"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/descriptor"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/metrics"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/service/mocks"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/store"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/visibility"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	txcontext "github.com/ItsLhuis/mxt-sub001/pkg/platform/tx"
	"github.com/ItsLhuis/mxt-sub001/pkg/requestcontext"
	"github.com/ItsLhuis/mxt-sub001/pkg/testutil"
)

type client struct {
	ID          uuid.UUID
	Name        string
	Description *string
}

var clientSet = descriptor.MustSet(models.EntityClient, 1,
	descriptor.Text("name", "Nome", func(c *client) string { return c.Name }),
	descriptor.OptionalText("description", "Descrição", func(c *client) *string { return c.Description }),
)

// clientRows is a journaled in-memory entity table.
type clientRows struct {
	mu   sync.Mutex
	rows map[uuid.UUID]client
}

func newClientRows() *clientRows { return &clientRows{rows: map[uuid.UUID]client{}} }

func (c *clientRows) get(id uuid.UUID) (*client, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.rows[id]
	if !ok {
		return nil, false
	}
	return &row, true
}

func (c *clientRows) put(ctx context.Context, row client) {
	c.mu.Lock()
	prev, existed := c.rows[row.ID]
	c.rows[row.ID] = row
	c.mu.Unlock()
	txcontext.OnRollback(ctx, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if existed {
			c.rows[row.ID] = prev
		} else {
			delete(c.rows, row.ID)
		}
	})
}

func (c *clientRows) del(ctx context.Context, id uuid.UUID) {
	c.mu.Lock()
	prev := c.rows[id]
	delete(c.rows, id)
	c.mu.Unlock()
	txcontext.OnRollback(ctx, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.rows[id] = prev
	})
}

type directory map[uuid.UUID]models.Actor

func (d directory) Actor(_ context.Context, id uuid.UUID) (*models.Actor, error) {
	a, ok := d[id]
	if !ok {
		return nil, errors.New("unexpected lookup")
	}
	return &a, nil
}

type RecorderSuite struct {
	suite.Suite
	rows     *clientRows
	store    *store.InMemory
	recorder *Recorder
	actorID  uuid.UUID
	ctx      context.Context
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *RecorderSuite) SetupTest() {
	s.rows = newClientRows()
	s.store = store.NewInMemory()
	s.actorID = uuid.New()
	b := builder.New(directory{s.actorID: {Username: "ana", Role: domain.RoleManager}})
	s.recorder = New(s.store, NewShardedTx(time.Second), b,
		visibility.NewFilter(visibility.DefaultPolicy(), nil),
		WithLogger(discardLogger()),
		WithMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())),
	)
	s.ctx = requestcontext.WithUserID(context.Background(), s.actorID)
}

func (s *RecorderSuite) create(id uuid.UUID, name string, description *string) (*Result[client], error) {
	return Track(s.ctx, s.recorder, clientSet, Mutation[client]{
		EntityID: id,
		Kind:     models.KindCreated,
		Apply: func(ctx context.Context, _ *client) (*client, error) {
			row := client{ID: id, Name: name, Description: description}
			s.rows.put(ctx, row)
			return &row, nil
		},
	})
}

func (s *RecorderSuite) rename(ctx context.Context, id uuid.UUID, name string) (*Result[client], error) {
	return Track(ctx, s.recorder, clientSet, Mutation[client]{
		EntityID: id,
		Kind:     models.KindUpdated,
		Load: func(context.Context) (*client, error) {
			row, _ := s.rows.get(id)
			return row, nil
		},
		Apply: func(ctx context.Context, before *client) (*client, error) {
			after := *before
			after.Name = name
			s.rows.put(ctx, after)
			return &after, nil
		},
	})
}

func (s *RecorderSuite) remove(id uuid.UUID) (*Result[client], error) {
	return Track(s.ctx, s.recorder, clientSet, Mutation[client]{
		EntityID: id,
		Kind:     models.KindDeleted,
		Load: func(context.Context) (*client, error) {
			row, _ := s.rows.get(id)
			return row, nil
		},
		Apply: func(ctx context.Context, before *client) (*client, error) {
			s.rows.del(ctx, before.ID)
			return nil, nil
		},
	})
}

func (s *RecorderSuite) historyJSON(id uuid.UUID) []map[string]any {
	records, visible, err := s.recorder.History(s.ctx, models.EntityClient, id, domain.RoleAdmin)
	s.Require().NoError(err)
	s.Require().True(visible)
	data, err := json.Marshal(models.NewEntries(records))
	s.Require().NoError(err)
	var out []map[string]any
	s.Require().NoError(json.Unmarshal(data, &out))
	return out
}

func (s *RecorderSuite) TestCreateUpdateDeleteScenarios() {
	t := s.T()
	id := uuid.New()

	testutil.Given(t, "a new client Acme without description", func(t *testing.T) {
		_, err := s.create(id, "Acme", nil)
		require.NoError(t, err)

		testutil.Then(t, "history holds one CLIENT_CREATED record", func(t *testing.T) {
			history := s.historyJSON(id)
			require.Len(t, history, 1)
			assert.Equal(t, "CLIENT_CREATED", history[0]["type"])
			changes, _ := json.Marshal(history[0]["changes"])
			assert.JSONEq(t, `[{"field":"Nome","after":"Acme"},{"field":"Descrição","after":null}]`, string(changes))
			user := history[0]["responsible_user"].(map[string]any)
			assert.Equal(t, "ana", user["username"])
			assert.Equal(t, "manager", user["role"])
		})
	})

	testutil.When(t, "the name changes to Acme Inc", func(t *testing.T) {
		_, err := s.rename(s.ctx, id, "Acme Inc")
		require.NoError(t, err)

		testutil.Then(t, "the newest record is a full update snapshot", func(t *testing.T) {
			history := s.historyJSON(id)
			require.Len(t, history, 2)
			assert.Equal(t, "CLIENT_UPDATED", history[0]["type"])
			changes, _ := json.Marshal(history[0]["changes"])
			assert.JSONEq(t, `[
				{"field":"Nome","before":"Acme","after":"Acme Inc","changed":true},
				{"field":"Descrição","before":null,"after":null,"changed":false}
			]`, string(changes))
		})
	})

	testutil.When(t, "the client is deleted", func(t *testing.T) {
		_, err := s.remove(id)
		require.NoError(t, err)

		testutil.Then(t, "history keeps every record and the delete has no after values", func(t *testing.T) {
			history := s.historyJSON(id)
			require.Len(t, history, 3)
			assert.Equal(t, "CLIENT_DELETED", history[0]["type"])
			changes, _ := json.Marshal(history[0]["changes"])
			assert.JSONEq(t, `[{"field":"Nome","before":"Acme Inc"},{"field":"Descrição","before":null}]`, string(changes))
			_, exists := s.rows.get(id)
			assert.False(t, exists)
		})
	})
}

func (s *RecorderSuite) TestUpdateOfMissingEntityIsNotFound() {
	_, err := s.rename(s.ctx, uuid.New(), "ghost")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *RecorderSuite) TestRejectedMutationLeavesNoHistory() {
	id := uuid.New()
	_, err := Track(s.ctx, s.recorder, clientSet, Mutation[client]{
		EntityID: id,
		Kind:     models.KindCreated,
		Apply: func(ctx context.Context, _ *client) (*client, error) {
			return nil, dErrors.New(dErrors.CodeConflict, "client already exists")
		},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	records, err := s.store.FindAllByEntityID(s.ctx, models.EntityClient, id)
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *RecorderSuite) TestPanicInApplyRollsBack() {
	id := uuid.New()
	_, err := Track(s.ctx, s.recorder, clientSet, Mutation[client]{
		EntityID: id,
		Kind:     models.KindCreated,
		Apply: func(ctx context.Context, _ *client) (*client, error) {
			s.rows.put(ctx, client{ID: id, Name: "half"})
			panic("bug")
		},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	_, exists := s.rows.get(id)
	s.False(exists)
}

func (s *RecorderSuite) TestApplyResultMustMatchKind() {
	id := uuid.New()
	_, err := Track(s.ctx, s.recorder, clientSet, Mutation[client]{
		EntityID: id,
		Kind:     models.KindCreated,
		Apply:    func(context.Context, *client) (*client, error) { return nil, nil },
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *RecorderSuite) TestRecordInteractionRequiresTransaction() {
	_, err := s.recorder.RecordInteraction(s.ctx, builder.Input{
		EntityType: models.EntityClient, EntityID: uuid.New(), Kind: models.KindCreated, SchemaVersion: 1,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *RecorderSuite) TestConcurrentUpdatesAreSerialized() {
	id := uuid.New()
	_, err := s.create(id, "v0", nil)
	s.Require().NoError(err)

	const writers = 16
	var wg sync.WaitGroup
	for i := 1; i <= writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			actor := requestcontext.WithUserID(context.Background(), s.actorID)
			_, err := s.rename(actor, id, "writer-"+string(rune('a'+n)))
			assert.NoError(s.T(), err)
		}(i)
	}
	wg.Wait()

	chain, err := s.store.Chain(s.ctx, models.EntityClient, id)
	s.Require().NoError(err)
	s.Require().Len(chain, writers+1)
	s.NoError(store.VerifyChain(chain))

	sort.Slice(chain, func(i, j int) bool { return chain[i].ID < chain[j].ID })
	for i := 1; i < len(chain); i++ {
		prevAfter := chain[i-1].Changes[0].After
		s.Equal(prevAfter, chain[i].Changes[0].Before, "record %d must start where record %d ended", chain[i].ID, chain[i-1].ID)
		s.True(*chain[i].Changes[0].Changed)
	}

	history, visible, err := s.recorder.History(s.ctx, models.EntityClient, id, domain.RoleAdmin)
	s.Require().NoError(err)
	s.Require().True(visible)
	s.Require().Len(history, len(chain))
	for i := range history {
		s.Equal(chain[len(chain)-1-i].ID, history[i].ID, "history is the serialized order reversed")
		if i > 0 {
			s.True(history[i].CreatedAt.Before(history[i-1].CreatedAt), "createdAt strictly decreasing at %d", i)
		}
	}
	current, _ := s.rows.get(id)
	s.Equal(current.Name, history[0].Changes[0].After)
}

func (s *RecorderSuite) TestLaterCommitIsNewestWhateverTheRequestTime() {
	id := uuid.New()
	_, err := s.create(id, "v0", nil)
	s.Require().NoError(err)

	t0 := time.Now()
	_, err = s.rename(requestcontext.WithTime(s.ctx, t0.Add(time.Second)), id, "first")
	s.Require().NoError(err)
	_, err = s.rename(requestcontext.WithTime(s.ctx, t0), id, "second")
	s.Require().NoError(err)

	history, _, err := s.recorder.History(s.ctx, models.EntityClient, id, domain.RoleAdmin)
	s.Require().NoError(err)
	s.Require().Len(history, 3)
	s.Equal("second", history[0].Changes[0].After)
	s.Equal("first", history[1].Changes[0].After)
	s.Equal("v0", history[2].Changes[0].After)
	s.True(history[0].CreatedAt.After(history[1].CreatedAt))
}

func (s *RecorderSuite) TestHistoryHiddenForRolesWithoutAccess() {
	id := uuid.New()
	_, err := s.create(id, "Acme", nil)
	s.Require().NoError(err)

	records, visible, err := s.recorder.History(s.ctx, models.EntityClient, id, domain.RoleEmployee)
	s.Require().NoError(err)
	s.False(visible)
	s.Nil(records)
}

func (s *RecorderSuite) TestVerify() {
	id := uuid.New()
	_, err := s.create(id, "Acme", nil)
	s.Require().NoError(err)
	_, err = s.rename(s.ctx, id, "Acme Inc")
	s.Require().NoError(err)

	res, err := s.recorder.Verify(s.ctx, models.EntityClient, id)
	s.Require().NoError(err)
	s.True(res.Valid)
	s.Equal(2, res.Records)
}

func newMockedRecorder(t *testing.T) (*Recorder, *mocks.MockStore, *mocks.MockHistoryCache) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	cache := mocks.NewMockHistoryCache(ctrl)
	r := New(st, NewShardedTx(time.Second), builder.New(nil),
		visibility.NewFilter(visibility.DefaultPolicy(), nil),
		WithCache(cache),
		WithLogger(discardLogger()),
	)
	return r, st, cache
}

func TestAppendFailureRollsBackEntityWrite(t *testing.T) {
	r, st, cache := newMockedRecorder(t)
	rows := newClientRows()
	id := uuid.New()

	st.EXPECT().Append(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("disk full"))
	cache.EXPECT().Invalidate(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := Track(context.Background(), r, clientSet, Mutation[client]{
		EntityID: id,
		Kind:     models.KindCreated,
		Apply: func(ctx context.Context, _ *client) (*client, error) {
			row := client{ID: id, Name: "Acme"}
			rows.put(ctx, row)
			return &row, nil
		},
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePersistence))

	_, exists := rows.get(id)
	assert.False(t, exists, "entity write must roll back with the record")
}

func TestSuccessfulMutationInvalidatesCache(t *testing.T) {
	r, st, cache := newMockedRecorder(t)
	id := uuid.New()

	st.EXPECT().Append(gomock.Any(), gomock.Any()).Return(int64(1), nil)
	cache.EXPECT().Invalidate(gomock.Any(), models.EntityClient, id).Return(nil)

	_, err := Track(context.Background(), r, clientSet, Mutation[client]{
		EntityID: id,
		Kind:     models.KindCreated,
		Apply: func(context.Context, *client) (*client, error) {
			return &client{ID: id, Name: "Acme"}, nil
		},
	})
	require.NoError(t, err)
}

func createClient(t *testing.T, r *Recorder, id uuid.UUID) {
	t.Helper()
	_, err := Track(context.Background(), r, clientSet, Mutation[client]{
		EntityID: id,
		Kind:     models.KindCreated,
		Apply: func(context.Context, *client) (*client, error) {
			return &client{ID: id, Name: "Acme"}, nil
		},
	})
	require.NoError(t, err)
}

func TestInvalidationIsRetriedAfterCommit(t *testing.T) {
	r, st, cache := newMockedRecorder(t)
	id := uuid.New()

	st.EXPECT().Append(gomock.Any(), gomock.Any()).Return(int64(1), nil)
	gomock.InOrder(
		cache.EXPECT().Invalidate(gomock.Any(), models.EntityClient, id).Return(errors.New("connection reset")),
		cache.EXPECT().Invalidate(gomock.Any(), models.EntityClient, id).Return(nil),
	)
	createClient(t, r, id)

	cache.EXPECT().Get(gomock.Any(), models.EntityClient, id).Return(nil, int64(1), false, nil)
	st.EXPECT().FindAllByEntityID(gomock.Any(), models.EntityClient, id).Return([]models.Record{}, nil)
	cache.EXPECT().Set(gomock.Any(), models.EntityClient, id, int64(1), gomock.Any()).Return(nil)
	_, _, err := r.History(context.Background(), models.EntityClient, id, domain.RoleAdmin)
	require.NoError(t, err)
}

func TestInvalidationIgnoresCallerCancellation(t *testing.T) {
	r, _, cache := newMockedRecorder(t)
	id := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cache.EXPECT().Invalidate(gomock.Any(), models.EntityClient, id).DoAndReturn(
		func(ctx context.Context, _ models.EntityType, _ uuid.UUID) error {
			return ctx.Err()
		})
	r.invalidate(ctx, models.EntityClient, id)
	assert.False(t, r.bypassed(models.EntityClient, id))
}

func TestFailedInvalidationBypassesCacheUntilNextSuccess(t *testing.T) {
	r, st, cache := newMockedRecorder(t)
	id := uuid.New()
	stored := []models.Record{{ID: 1, EntityType: models.EntityClient, EntityID: id, Kind: models.KindCreated}}

	cache.EXPECT().Invalidate(gomock.Any(), models.EntityClient, id).Return(errors.New("redis down")).Times(invalidateAttempts)
	r.invalidate(context.Background(), models.EntityClient, id)

	st.EXPECT().FindAllByEntityID(gomock.Any(), models.EntityClient, id).Return(stored, nil)
	got, _, err := r.History(context.Background(), models.EntityClient, id, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, stored, got, "read past the cache")

	cache.EXPECT().Invalidate(gomock.Any(), models.EntityClient, id).Return(nil)
	r.invalidate(context.Background(), models.EntityClient, id)

	cache.EXPECT().Get(gomock.Any(), models.EntityClient, id).Return(stored, int64(2), true, nil)
	got, _, err = r.History(context.Background(), models.EntityClient, id, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, stored, got)
}

func TestHistoryReadThroughCache(t *testing.T) {
	id := uuid.New()
	stored := []models.Record{{ID: 1, EntityType: models.EntityClient, EntityID: id, Kind: models.KindCreated}}

	t.Run("hit skips the store", func(t *testing.T) {
		r, _, cache := newMockedRecorder(t)
		cache.EXPECT().Get(gomock.Any(), models.EntityClient, id).Return(stored, int64(4), true, nil)

		got, visible, err := r.History(context.Background(), models.EntityClient, id, domain.RoleAdmin)
		require.NoError(t, err)
		assert.True(t, visible)
		assert.Equal(t, stored, got)
	})

	t.Run("miss loads and fills the observed generation", func(t *testing.T) {
		r, st, cache := newMockedRecorder(t)
		gomock.InOrder(
			cache.EXPECT().Get(gomock.Any(), models.EntityClient, id).Return(nil, int64(7), false, nil),
			st.EXPECT().FindAllByEntityID(gomock.Any(), models.EntityClient, id).Return(stored, nil),
			cache.EXPECT().Set(gomock.Any(), models.EntityClient, id, int64(7), stored).Return(nil),
		)

		got, _, err := r.History(context.Background(), models.EntityClient, id, domain.RoleManager)
		require.NoError(t, err)
		assert.Equal(t, stored, got)
	})

	t.Run("cache errors fall back to the store without filling", func(t *testing.T) {
		r, st, cache := newMockedRecorder(t)
		cache.EXPECT().Get(gomock.Any(), models.EntityClient, id).Return(nil, int64(0), false, errors.New("redis down"))
		st.EXPECT().FindAllByEntityID(gomock.Any(), models.EntityClient, id).Return(stored, nil)

		got, _, err := r.History(context.Background(), models.EntityClient, id, domain.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, stored, got)
	})

	t.Run("hidden history never touches storage", func(t *testing.T) {
		r, _, _ := newMockedRecorder(t)
		got, visible, err := r.History(context.Background(), models.EntityClient, id, domain.RoleEmployee)
		require.NoError(t, err)
		assert.False(t, visible)
		assert.Nil(t, got)
	})

	t.Run("store failure is a persistence error", func(t *testing.T) {
		r, st, cache := newMockedRecorder(t)
		cache.EXPECT().Get(gomock.Any(), models.EntityClient, id).Return(nil, int64(0), false, nil)
		st.EXPECT().FindAllByEntityID(gomock.Any(), models.EntityClient, id).Return(nil, errors.New("timeout"))

		_, _, err := r.History(context.Background(), models.EntityClient, id, domain.RoleAdmin)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePersistence))
	})
}

func TestVerifyReportsBrokenChain(t *testing.T) {
	r, st, _ := newMockedRecorder(t)
	id := uuid.New()
	forged := []models.Record{{ID: 1, EntityType: models.EntityClient, EntityID: id, Hash: []byte("nope")}}
	st.EXPECT().Chain(gomock.Any(), models.EntityClient, id).Return(forged, nil)

	res, err := r.Verify(context.Background(), models.EntityClient, id)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Problem, "interaction 1")
}
