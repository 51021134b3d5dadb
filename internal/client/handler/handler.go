package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/internal/client/models"
	interaction "github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/httputil"
	"github.com/ItsLhuis/mxt-sub001/pkg/requestcontext"
)

// Service defines the client operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, req *models.ClientRequest) (*models.Client, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Client, error)
	List(ctx context.Context) ([]*models.Client, error)
	Update(ctx context.Context, id uuid.UUID, req *models.ClientRequest) (*models.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddContact(ctx context.Context, clientID uuid.UUID, req *models.ContactRequest) (*models.Contact, error)
	GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	ListContacts(ctx context.Context, clientID uuid.UUID) ([]*models.Contact, error)
	UpdateContact(ctx context.Context, id uuid.UUID, req *models.ContactRequest) (*models.Contact, error)
	DeleteContact(ctx context.Context, id uuid.UUID) error
}

// HistoryAttacher loads the history embedded in read responses. A nil
// result means the caller may not see history.
type HistoryAttacher interface {
	Attach(ctx context.Context, et interaction.EntityType, id uuid.UUID) (*[]interaction.Entry, error)
	AttachMany(ctx context.Context, et interaction.EntityType, ids []uuid.UUID) ([]*[]interaction.Entry, error)
}

// Handler handles client and contact endpoints.
type Handler struct {
	svc     Service
	history HistoryAttacher
	logger  *slog.Logger
}

// New creates a client Handler.
func New(svc Service, history HistoryAttacher, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, history: history, logger: logger}
}

// Register registers the client and contact routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/clients", h.handleCreate)
	r.Get("/clients", h.handleList)
	r.Get("/clients/{id}", h.handleGet)
	r.Put("/clients/{id}", h.handleUpdate)
	r.Delete("/clients/{id}", h.handleDelete)

	r.Get("/clients/{id}/contacts", h.handleListContacts)
	r.Post("/clients/{id}/contacts", h.handleAddContact)
	r.Get("/client-contacts/{id}", h.handleGetContact)
	r.Put("/client-contacts/{id}", h.handleUpdateContact)
	r.Delete("/client-contacts/{id}", h.handleDeleteContact)
}

type clientResponse struct {
	*models.Client
	Contacts            []*contactResponse   `json:"contacts,omitempty"`
	InteractionsHistory *[]interaction.Entry `json:"interactions_history,omitempty"`
}

type contactResponse struct {
	*models.Contact
	InteractionsHistory *[]interaction.Entry `json:"interactions_history,omitempty"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.ClientRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.svc.Create(ctx, req)
	if err != nil {
		h.fail(ctx, w, "failed to create client", err)
		return
	}
	h.writeClient(ctx, w, http.StatusCreated, c, nil)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clients, err := h.svc.List(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list clients", err)
		return
	}
	ids := make([]uuid.UUID, len(clients))
	for i, c := range clients {
		ids[i] = c.ID
	}
	histories, err := h.history.AttachMany(ctx, interaction.EntityClient, ids)
	if err != nil {
		h.fail(ctx, w, "failed to load client histories", err)
		return
	}
	out := make([]*clientResponse, len(clients))
	for i, c := range clients {
		out[i] = &clientResponse{Client: c}
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
	c, err := h.svc.Get(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get client", err)
		return
	}
	contacts, err := h.svc.ListContacts(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to list contacts", err)
		return
	}
	h.writeClient(ctx, w, http.StatusOK, c, contacts)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := httputil.URLParamUUID(w, r, "id")
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.ClientRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	c, err := h.svc.Update(ctx, id, req)
	if err != nil {
		h.fail(ctx, w, "failed to update client", err)
		return
	}
	h.writeClient(ctx, w, http.StatusOK, c, nil)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := httputil.URLParamUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(ctx, id); err != nil {
		h.fail(ctx, w, "failed to delete client", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := httputil.URLParamUUID(w, r, "id")
	if !ok {
		return
	}
	contacts, err := h.svc.ListContacts(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to list contacts", err)
		return
	}
	out, err := h.contactResponses(ctx, contacts)
	if err != nil {
		h.fail(ctx, w, "failed to load contact histories", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleAddContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := httputil.URLParamUUID(w, r, "id")
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.ContactRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	ct, err := h.svc.AddContact(ctx, clientID, req)
	if err != nil {
		h.fail(ctx, w, "failed to add contact", err)
		return
	}
	h.writeContact(ctx, w, http.StatusCreated, ct)
}

func (h *Handler) handleGetContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := httputil.URLParamUUID(w, r, "id")
	if !ok {
		return
	}
	ct, err := h.svc.GetContact(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get contact", err)
		return
	}
	h.writeContact(ctx, w, http.StatusOK, ct)
}

func (h *Handler) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := httputil.URLParamUUID(w, r, "id")
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.ContactRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	ct, err := h.svc.UpdateContact(ctx, id, req)
	if err != nil {
		h.fail(ctx, w, "failed to update contact", err)
		return
	}
	h.writeContact(ctx, w, http.StatusOK, ct)
}

func (h *Handler) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := httputil.URLParamUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteContact(ctx, id); err != nil {
		h.fail(ctx, w, "failed to delete contact", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeClient(ctx context.Context, w http.ResponseWriter, status int, c *models.Client, contacts []*models.Contact) {
	history, err := h.history.Attach(ctx, interaction.EntityClient, c.ID)
	if err != nil {
		h.fail(ctx, w, "failed to load client history", err)
		return
	}
	resp := &clientResponse{Client: c, InteractionsHistory: history}
	if contacts != nil {
		resp.Contacts = make([]*contactResponse, len(contacts))
		for i, ct := range contacts {
			resp.Contacts[i] = &contactResponse{Contact: ct}
		}
	}
	httputil.WriteJSON(w, status, resp)
}

func (h *Handler) writeContact(ctx context.Context, w http.ResponseWriter, status int, ct *models.Contact) {
	history, err := h.history.Attach(ctx, interaction.EntityClientContact, ct.ID)
	if err != nil {
		h.fail(ctx, w, "failed to load contact history", err)
		return
	}
	httputil.WriteJSON(w, status, &contactResponse{Contact: ct, InteractionsHistory: history})
}

func (h *Handler) contactResponses(ctx context.Context, contacts []*models.Contact) ([]*contactResponse, error) {
	ids := make([]uuid.UUID, len(contacts))
	for i, ct := range contacts {
		ids[i] = ct.ID
	}
	histories, err := h.history.AttachMany(ctx, interaction.EntityClientContact, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*contactResponse, len(contacts))
	for i, ct := range contacts {
		out[i] = &contactResponse{Contact: ct}
		if histories != nil {
			out[i].InteractionsHistory = histories[i]
		}
	}
	return out, nil
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if code, ok := dErrors.CodeOf(err); !ok || code == dErrors.CodeInternal || code == dErrors.CodePersistence {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.InfoContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
