package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/handler/mocks"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/service"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	"github.com/ItsLhuis/mxt-sub001/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks Service

type HandlerSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	svc    *mocks.MockService
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.svc = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) TestHistory() {
	id := uuid.New()
	path := "/clients/" + id.String() + "/interactions-history"
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []models.Record{
		{
			ID: 2, EntityType: models.EntityClient, EntityID: id, Kind: models.KindUpdated,
			Actor: &models.Actor{ID: uuid.New(), Username: "ana", Role: domain.RoleManager},
			Changes: []models.FieldChange{
				{Field: "Nome", Before: "Acme", HasBefore: true, After: "Acme Inc", HasAfter: true, Changed: boolPtr(true)},
			},
			CreatedAt: created.Add(time.Minute),
		},
		{ID: 1, EntityType: models.EntityClient, EntityID: id, Kind: models.KindCreated, CreatedAt: created},
	}

	s.Run("returns entries newest first", func() {
		s.svc.EXPECT().History(gomock.Any(), models.EntityClient, id, domain.RoleAdmin).Return(records, true, nil)

		req := testutil.WithRole(testutil.NewRequest(s.T(), http.MethodGet, path), domain.RoleAdmin)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		entries := testutil.UnmarshalResponse[[]map[string]any](s.T(), rr)
		s.Require().Len(*entries, 2)
		s.Equal("CLIENT_UPDATED", (*entries)[0]["type"])
		s.Equal("CLIENT_CREATED", (*entries)[1]["type"])
		s.Nil((*entries)[1]["responsible_user"])
		s.Equal([]any{}, (*entries)[1]["changes"])
		s.Equal("2026-03-01T10:01:00Z", (*entries)[0]["created_at_datetime"])
	})

	s.Run("forbidden when role may not view history", func() {
		s.svc.EXPECT().History(gomock.Any(), models.EntityClient, id, domain.RoleEmployee).Return(nil, false, nil)

		req := testutil.WithRole(testutil.NewRequest(s.T(), http.MethodGet, path), domain.RoleEmployee)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.Run("empty history is an empty array", func() {
		s.svc.EXPECT().History(gomock.Any(), models.EntityClient, id, domain.RoleAdmin).Return(nil, true, nil)

		req := testutil.WithRole(testutil.NewRequest(s.T(), http.MethodGet, path), domain.RoleAdmin)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		s.JSONEq(`[]`, string(testutil.ReadBody(s.T(), rr)))
	})

	s.Run("unknown entity collection is not found", func() {
		req := testutil.WithRole(testutil.NewRequest(s.T(), http.MethodGet, "/invoices/"+id.String()+"/interactions-history"), domain.RoleAdmin)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})

	s.Run("malformed id is a bad request", func() {
		req := testutil.WithRole(testutil.NewRequest(s.T(), http.MethodGet, "/clients/nope/interactions-history"), domain.RoleAdmin)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("store failure hides details", func() {
		s.svc.EXPECT().History(gomock.Any(), models.EntityClient, id, domain.RoleAdmin).
			Return(nil, false, dErrors.Wrap(errors.New("pq: connection reset"), dErrors.CodePersistence, "failed to load interaction history"))

		req := testutil.WithRole(testutil.NewRequest(s.T(), http.MethodGet, path), domain.RoleAdmin)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodePersistence))
		s.NotContains(string(testutil.ReadBody(s.T(), rr)), "connection reset")
	})
}

func (s *HandlerSuite) TestVerify() {
	id := uuid.New()
	path := "/repairs/" + id.String() + "/interactions-history/verify"

	s.Run("reports the chain state", func() {
		s.svc.EXPECT().CanViewHistory(domain.RoleManager).Return(true)
		s.svc.EXPECT().Verify(gomock.Any(), models.EntityRepair, id).Return(&service.VerifyResult{
			EntityType: models.EntityRepair, EntityID: id, Records: 3, Valid: false, Problem: "interaction 2: hash mismatch",
		}, nil)

		req := testutil.WithRole(testutil.NewRequest(s.T(), http.MethodGet, path), domain.RoleManager)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		res := testutil.UnmarshalResponse[service.VerifyResult](s.T(), rr)
		s.False(res.Valid)
		s.Equal(3, res.Records)
	})

	s.Run("forbidden for roles without history access", func() {
		s.svc.EXPECT().CanViewHistory(domain.RoleEmployee).Return(false)

		req := testutil.WithRole(testutil.NewRequest(s.T(), http.MethodGet, path), domain.RoleEmployee)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})
}

type stubReader struct {
	visible bool
	err     error
	calls   int
}

func (r *stubReader) History(_ context.Context, et models.EntityType, id uuid.UUID, _ domain.Role) ([]models.Record, bool, error) {
	r.calls++
	if r.err != nil || !r.visible {
		return nil, false, r.err
	}
	return []models.Record{{ID: int64(r.calls), EntityType: et, EntityID: id, Kind: models.KindCreated}}, true, nil
}

func TestHistoryAttacher(t *testing.T) {
	ctx := context.Background()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	t.Run("visible history is attached per entity", func(t *testing.T) {
		a := NewHistoryAttacher(&stubReader{visible: true})
		got, err := a.AttachMany(ctx, models.EntityEquipment, ids)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.NotNil(t, got[1])
		assert.Equal(t, "EQUIPMENT_CREATED", (*got[1])[0].Type)
	})

	t.Run("hidden history is nil", func(t *testing.T) {
		reader := &stubReader{}
		a := NewHistoryAttacher(reader)
		one, err := a.Attach(ctx, models.EntityEquipment, ids[0])
		require.NoError(t, err)
		assert.Nil(t, one)

		many, err := a.AttachMany(ctx, models.EntityEquipment, ids)
		require.NoError(t, err)
		assert.Nil(t, many)
	})

	t.Run("errors propagate", func(t *testing.T) {
		a := NewHistoryAttacher(&stubReader{err: errors.New("down")})
		_, err := a.AttachMany(ctx, models.EntityEquipment, ids)
		assert.Error(t, err)
	})
}

func boolPtr(b bool) *bool { return &b }
