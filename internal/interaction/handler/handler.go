// Package handler serves interaction history over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/service"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/httputil"
	"github.com/ItsLhuis/mxt-sub001/pkg/requestcontext"
)

// Service defines the history operations exposed over HTTP.
type Service interface {
	History(ctx context.Context, et models.EntityType, id uuid.UUID, role domain.Role) ([]models.Record, bool, error)
	Verify(ctx context.Context, et models.EntityType, id uuid.UUID) (*service.VerifyResult, error)
	CanViewHistory(role domain.Role) bool
}

// Handler handles interaction history endpoints.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

// New creates a history Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register registers the history routes of every tracked entity type. The
// router is expected to carry the auth middleware.
func (h *Handler) Register(r chi.Router) {
	for _, et := range models.EntityTypes() {
		base := "/" + et.PathSegment() + "/{entityId}/interactions-history"
		r.Get(base, h.handleHistory(et))
		r.Get(base+"/verify", h.handleVerify(et))
	}
}

func (h *Handler) handleHistory(et models.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		id, ok := httputil.URLParamUUID(w, r, "entityId")
		if !ok {
			return
		}
		role := requestcontext.Role(ctx)
		records, visible, err := h.svc.History(ctx, et, id, role)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to load interaction history",
				"request_id", requestID,
				"entity_type", et,
				"entity_id", id,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		if !visible {
			h.logger.InfoContext(ctx, "interaction history denied",
				"request_id", requestID,
				"entity_type", et,
				"role", role,
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "role may not view interaction history"))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, models.NewEntries(records))
	}
}

func (h *Handler) handleVerify(et models.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, ok := httputil.URLParamUUID(w, r, "entityId")
		if !ok {
			return
		}
		if !h.svc.CanViewHistory(requestcontext.Role(ctx)) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "role may not view interaction history"))
			return
		}
		res, err := h.svc.Verify(ctx, et, id)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to verify interaction chain",
				"request_id", requestcontext.RequestID(ctx),
				"entity_type", et,
				"entity_id", id,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, res)
	}
}
