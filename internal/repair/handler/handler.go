package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	interaction "github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/internal/repair/models"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/httputil"
	"github.com/ItsLhuis/mxt-sub001/pkg/requestcontext"
)

// Service defines the repair operations exposed over HTTP.
type Service interface {
	Statuses(ctx context.Context) ([]models.Status, error)
	Accessories(ctx context.Context) ([]models.Accessory, error)
	Create(ctx context.Context, req *models.Request) (*models.Repair, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Repair, error)
	List(ctx context.Context, equipmentID *uuid.UUID) ([]*models.Repair, error)
	Update(ctx context.Context, id uuid.UUID, req *models.Request) (*models.Repair, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, req *models.StatusRequest) (*models.Repair, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// HistoryAttacher loads the history embedded in read responses.
type HistoryAttacher interface {
	Attach(ctx context.Context, et interaction.EntityType, id uuid.UUID) (*[]interaction.Entry, error)
	AttachMany(ctx context.Context, et interaction.EntityType, ids []uuid.UUID) ([]*[]interaction.Entry, error)
}

// Handler handles repair and catalog endpoints.
type Handler struct {
	svc     Service
	history HistoryAttacher
	logger  *slog.Logger
}

// New creates a repair Handler.
func New(svc Service, history HistoryAttacher, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, history: history, logger: logger}
}

// Register registers the repair routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/repair-statuses", h.handleStatuses)
	r.Get("/accessories", h.handleAccessories)

	r.Post("/repairs", h.handleCreate)
	r.Get("/repairs", h.handleList)
	r.Get("/repairs/{id}", h.handleGet)
	r.Put("/repairs/{id}", h.handleUpdate)
	r.Patch("/repairs/{id}/status", h.handleChangeStatus)
	r.Delete("/repairs/{id}", h.handleDelete)
	r.Get("/equipment/{id}/repairs", h.handleListForEquipment)
}

type repairResponse struct {
	*models.Repair
	InteractionsHistory *[]interaction.Entry `json:"interactions_history,omitempty"`
}

func (h *Handler) handleStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.svc.Statuses(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "failed to list repair statuses", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statuses)
}

func (h *Handler) handleAccessories(w http.ResponseWriter, r *http.Request) {
	accessories, err := h.svc.Accessories(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "failed to list accessories", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, accessories)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.Request](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rep, err := h.svc.Create(ctx, req)
	if err != nil {
		h.fail(ctx, w, "failed to create repair", err)
		return
	}
	h.writeOne(ctx, w, http.StatusCreated, rep)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var equipmentID *uuid.UUID
	if raw := r.URL.Query().Get("equipment_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid equipment_id"))
			return
		}
		equipmentID = &id
	}
	h.list(w, r, equipmentID)
}

func (h *Handler) handleListForEquipment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.URLParamUUID(w, r, "id")
	if !ok {
		return
	}
	h.list(w, r, &id)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, equipmentID *uuid.UUID) {
	ctx := r.Context()
	repairs, err := h.svc.List(ctx, equipmentID)
	if err != nil {
		h.fail(ctx, w, "failed to list repairs", err)
		return
	}
	ids := make([]uuid.UUID, len(repairs))
	for i, rep := range repairs {
		ids[i] = rep.ID
	}
	histories, err := h.history.AttachMany(ctx, interaction.EntityRepair, ids)
	if err != nil {
		h.fail(ctx, w, "failed to load repair histories", err)
		return
	}
	out := make([]*repairResponse, len(repairs))
	for i, rep := range repairs {
		out[i] = &repairResponse{Repair: rep}
		if histories != nil {
			out[i].InteractionsHistory = histories[i]
		}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := httputil.URLParamUUID(w, r, "id")
	if !ok {
		return
	}
	rep, err := h.svc.Get(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get repair", err)
		return
	}
	h.writeOne(ctx, w, http.StatusOK, rep)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := httputil.URLParamUUID(w, r, "id")
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.Request](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rep, err := h.svc.Update(ctx, id, req)
	if err != nil {
		h.fail(ctx, w, "failed to update repair", err)
		return
	}
	h.writeOne(ctx, w, http.StatusOK, rep)
}

func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := httputil.URLParamUUID(w, r, "id")
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.StatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rep, err := h.svc.ChangeStatus(ctx, id, req)
	if err != nil {
		h.fail(ctx, w, "failed to change repair status", err)
		return
	}
	h.writeOne(ctx, w, http.StatusOK, rep)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := httputil.URLParamUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(ctx, id); err != nil {
		h.fail(ctx, w, "failed to delete repair", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeOne(ctx context.Context, w http.ResponseWriter, status int, rep *models.Repair) {
	history, err := h.history.Attach(ctx, interaction.EntityRepair, rep.ID)
	if err != nil {
		h.fail(ctx, w, "failed to load repair history", err)
		return
	}
	httputil.WriteJSON(w, status, &repairResponse{Repair: rep, InteractionsHistory: history})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelInfo
	if code, ok := dErrors.CodeOf(err); !ok || code == dErrors.CodeInternal || code == dErrors.CodePersistence {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
