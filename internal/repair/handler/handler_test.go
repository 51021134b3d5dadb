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

	interaction "github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/internal/repair/handler/mocks"
	"github.com/ItsLhuis/mxt-sub001/internal/repair/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	"github.com/ItsLhuis/mxt-sub001/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks Service

type RepairHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	svc     *mocks.MockService
	history *mocks.MockHistoryAttacher
	router  chi.Router
}

func TestRepairHandlerSuite(t *testing.T) {
	suite.Run(t, new(RepairHandlerSuite))
}

func (s *RepairHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.svc = mocks.NewMockService(s.ctrl)
	s.history = mocks.NewMockHistoryAttacher(s.ctrl)
	s.router = chi.NewRouter()
	New(s.svc, s.history, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *RepairHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RepairHandlerSuite) TestCatalog() {
	s.svc.EXPECT().Statuses(gomock.Any()).Return(models.DefaultStatuses(), nil)
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/repair-statuses"))
	testutil.AssertStatusOK(s.T(), rr)
	got := testutil.UnmarshalResponse[[]models.Status](s.T(), rr)
	s.Len(*got, 5)

	s.svc.EXPECT().Accessories(gomock.Any()).Return(models.DefaultAccessories(), nil)
	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/accessories"))
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *RepairHandlerSuite) TestChangeStatus() {
	id := uuid.New()

	s.Run("moves the repair", func() {
		rep := &models.Repair{ID: id, StatusID: models.StatusCompleted, StatusName: "Concluída"}
		s.svc.EXPECT().ChangeStatus(gomock.Any(), id, &models.StatusRequest{StatusID: models.StatusCompleted}).Return(rep, nil)
		s.history.EXPECT().Attach(gomock.Any(), interaction.EntityRepair, id).Return(nil, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/repairs/"+id.String()+"/status",
			map[string]any{"status_id": models.StatusCompleted})
		rr := testutil.DoRequest(s.router, testutil.WithRole(req, domain.RoleEmployee))

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONLacksKey(s.T(), rr, "interactions_history")
	})

	s.Run("missing status_id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/repairs/"+id.String()+"/status", map[string]any{})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

func (s *RepairHandlerSuite) TestListForEquipment() {
	equipmentID := uuid.New()
	reps := []*models.Repair{{ID: uuid.New(), EquipmentID: equipmentID}}
	entries := []interaction.Entry{{ID: 3, Type: "REPAIR_CREATED", Changes: []interaction.FieldChange{}}}

	s.svc.EXPECT().List(gomock.Any(), &equipmentID).Return(reps, nil)
	s.history.EXPECT().AttachMany(gomock.Any(), interaction.EntityRepair, []uuid.UUID{reps[0].ID}).
		Return([]*[]interaction.Entry{&entries}, nil)

	rr := testutil.DoRequest(s.router, testutil.WithRole(
		testutil.NewRequest(s.T(), http.MethodGet, "/equipment/"+equipmentID.String()+"/repairs"), domain.RoleManager))

	testutil.AssertStatusOK(s.T(), rr)
	got := testutil.UnmarshalResponse[[]map[string]any](s.T(), rr)
	s.Require().Len(*got, 1)
	s.Contains((*got)[0], "interactions_history")
}

func (s *RepairHandlerSuite) TestCreateRejectsBadDate() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/repairs", map[string]any{
		"equipment_id": uuid.New(),
		"entry_date":   "14/03/2025",
	})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}
