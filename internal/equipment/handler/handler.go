package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/internal/equipment/models"
	interaction "github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/httputil"
	"github.com/ItsLhuis/mxt-sub001/pkg/requestcontext"
)

// Service defines the equipment operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, req *models.Request) (*models.Equipment, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Equipment, error)
	List(ctx context.Context, clientID *uuid.UUID) ([]*models.Equipment, error)
	Update(ctx context.Context, id uuid.UUID, req *models.Request) (*models.Equipment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// HistoryAttacher loads the history embedded in read responses.
type HistoryAttacher interface {
	Attach(ctx context.Context, et interaction.EntityType, id uuid.UUID) (*[]interaction.Entry, error)
	AttachMany(ctx context.Context, et interaction.EntityType, ids []uuid.UUID) ([]*[]interaction.Entry, error)
}

// Handler handles equipment endpoints.
type Handler struct {
	svc     Service
	history HistoryAttacher
	logger  *slog.Logger
}

// New creates an equipment Handler.
func New(svc Service, history HistoryAttacher, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, history: history, logger: logger}
}

// Register registers the equipment routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/equipment", h.handleCreate)
	r.Get("/equipment", h.handleList)
	r.Get("/equipment/{id}", h.handleGet)
	r.Put("/equipment/{id}", h.handleUpdate)
	r.Delete("/equipment/{id}", h.handleDelete)
	r.Get("/clients/{id}/equipment", h.handleListForClient)
}

type equipmentResponse struct {
	*models.Equipment
	InteractionsHistory *[]interaction.Entry `json:"interactions_history,omitempty"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.Request](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	e, err := h.svc.Create(ctx, req)
	if err != nil {
		h.fail(ctx, w, "failed to create equipment", err)
		return
	}
	h.writeOne(ctx, w, http.StatusCreated, e)
}

// handleList serves GET /equipment, optionally filtered by ?client_id=.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var clientID *uuid.UUID
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid client_id"))
			return
		}
		clientID = &id
	}
	h.list(w, r, clientID)
}

func (h *Handler) handleListForClient(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.URLParamUUID(w, r, "id")
	if !ok {
		return
	}
	h.list(w, r, &id)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, clientID *uuid.UUID) {
	ctx := r.Context()
	items, err := h.svc.List(ctx, clientID)
	if err != nil {
		h.fail(ctx, w, "failed to list equipment", err)
		return
	}
	ids := make([]uuid.UUID, len(items))
	for i, e := range items {
		ids[i] = e.ID
	}
	histories, err := h.history.AttachMany(ctx, interaction.EntityEquipment, ids)
	if err != nil {
		h.fail(ctx, w, "failed to load equipment histories", err)
		return
	}
	out := make([]*equipmentResponse, len(items))
	for i, e := range items {
		out[i] = &equipmentResponse{Equipment: e}
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
	e, err := h.svc.Get(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get equipment", err)
		return
	}
	h.writeOne(ctx, w, http.StatusOK, e)
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
	e, err := h.svc.Update(ctx, id, req)
	if err != nil {
		h.fail(ctx, w, "failed to update equipment", err)
		return
	}
	h.writeOne(ctx, w, http.StatusOK, e)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := httputil.URLParamUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(ctx, id); err != nil {
		h.fail(ctx, w, "failed to delete equipment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeOne(ctx context.Context, w http.ResponseWriter, status int, e *models.Equipment) {
	history, err := h.history.Attach(ctx, interaction.EntityEquipment, e.ID)
	if err != nil {
		h.fail(ctx, w, "failed to load equipment history", err)
		return
	}
	httputil.WriteJSON(w, status, &equipmentResponse{Equipment: e, InteractionsHistory: history})
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
