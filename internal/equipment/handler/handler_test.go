package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/ItsLhuis/mxt-sub001/internal/equipment/handler/mocks"
	"github.com/ItsLhuis/mxt-sub001/internal/equipment/models"
	interaction "github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	"github.com/ItsLhuis/mxt-sub001/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks Service

type EquipmentHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	svc     *mocks.MockService
	history *mocks.MockHistoryAttacher
	router  chi.Router
}

func TestEquipmentHandlerSuite(t *testing.T) {
	suite.Run(t, new(EquipmentHandlerSuite))
}

func (s *EquipmentHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.svc = mocks.NewMockService(s.ctrl)
	s.history = mocks.NewMockHistoryAttacher(s.ctrl)
	s.router = chi.NewRouter()
	New(s.svc, s.history, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *EquipmentHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *EquipmentHandlerSuite) TestGet() {
	e := &models.Equipment{ID: uuid.New(), ClientID: uuid.New(), ClientName: "Acme", Brand: "Lenovo", Model: "T14"}

	s.Run("embeds visible history", func() {
		entries := []interaction.Entry{{ID: 1, Type: "EQUIPMENT_CREATED", Changes: []interaction.FieldChange{}}}
		s.svc.EXPECT().Get(gomock.Any(), e.ID).Return(e, nil)
		s.history.EXPECT().Attach(gomock.Any(), interaction.EntityEquipment, e.ID).Return(&entries, nil)

		rr := testutil.DoRequest(s.router, testutil.WithRole(testutil.NewRequest(s.T(), http.MethodGet, "/equipment/"+e.ID.String()), domain.RoleAdmin))

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONHasKey(s.T(), rr, "interactions_history")
	})

	s.Run("omits hidden history", func() {
		s.svc.EXPECT().Get(gomock.Any(), e.ID).Return(e, nil)
		s.history.EXPECT().Attach(gomock.Any(), interaction.EntityEquipment, e.ID).Return(nil, nil)

		rr := testutil.DoRequest(s.router, testutil.WithRole(testutil.NewRequest(s.T(), http.MethodGet, "/equipment/"+e.ID.String()), domain.RoleEmployee))

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONLacksKey(s.T(), rr, "interactions_history")
	})
}

func (s *EquipmentHandlerSuite) TestList() {
	clientID := uuid.New()

	s.Run("filters by client_id query", func() {
		s.svc.EXPECT().List(gomock.Any(), &clientID).Return([]*models.Equipment{}, nil)
		s.history.EXPECT().AttachMany(gomock.Any(), interaction.EntityEquipment, []uuid.UUID{}).Return(nil, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/equipment?client_id="+clientID.String()))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("nested client route", func() {
		s.svc.EXPECT().List(gomock.Any(), &clientID).Return([]*models.Equipment{}, nil)
		s.history.EXPECT().AttachMany(gomock.Any(), interaction.EntityEquipment, []uuid.UUID{}).Return(nil, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/clients/"+clientID.String()+"/equipment"))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("bad client_id", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/equipment?client_id=x"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})
}

func (s *EquipmentHandlerSuite) TestCreateValidation() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/equipment", map[string]any{"brand": "Lenovo", "model": "T14"})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}

func (s *EquipmentHandlerSuite) TestDeleteConflict() {
	id := uuid.New()
	s.svc.EXPECT().Delete(gomock.Any(), id).Return(dErrors.New(dErrors.CodeConflict, "equipment still has repairs"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodDelete, "/equipment/"+id.String()))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(dErrors.CodeConflict))
}
