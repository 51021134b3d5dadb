// Package service implements repair operations. Writes are tracked in the
// repair's interaction history; equipment, status and accessory names are
// resolved at write time so the history shows what the user saw.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	equipmentModels "github.com/ItsLhuis/mxt-sub001/internal/equipment/models"
	interaction "github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	tracking "github.com/ItsLhuis/mxt-sub001/internal/interaction/service"
	"github.com/ItsLhuis/mxt-sub001/internal/repair/models"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
	"github.com/ItsLhuis/mxt-sub001/pkg/requestcontext"
)

// Store persists repairs and serves the catalog.
type Store interface {
	Statuses(ctx context.Context) ([]models.Status, error)
	Accessories(ctx context.Context) ([]models.Accessory, error)

	Create(ctx context.Context, r *models.Repair) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Repair, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Repair, error)
	List(ctx context.Context, equipmentID *uuid.UUID) ([]*models.Repair, error)
	Update(ctx context.Context, r *models.Repair) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Equipment looks up repaired equipment. It returns sentinel.ErrNotFound
// for unknown ids.
type Equipment interface {
	FindByID(ctx context.Context, id uuid.UUID) (*equipmentModels.Equipment, error)
}

// Service manages repairs.
type Service struct {
	store     Store
	equipment Equipment
	recorder  *tracking.Recorder
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates a repair Service.
func New(store Store, equipment Equipment, recorder *tracking.Recorder, opts ...Option) *Service {
	s := &Service{store: store, equipment: equipment, recorder: recorder, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC().Truncate(time.Microsecond)
}

// Statuses returns the repair workflow in order.
func (s *Service) Statuses(ctx context.Context) ([]models.Status, error) {
	statuses, err := s.store.Statuses(ctx)
	if err != nil {
		return nil, storeError(err, "", "")
	}
	return statuses, nil
}

// Accessories returns the accessory catalog.
func (s *Service) Accessories(ctx context.Context) ([]models.Accessory, error) {
	accessories, err := s.store.Accessories(ctx)
	if err != nil {
		return nil, storeError(err, "", "")
	}
	return accessories, nil
}

// Create opens a repair for existing equipment.
func (s *Service) Create(ctx context.Context, req *models.Request) (*models.Repair, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	id := uuid.New()
	res, err := tracking.Track(ctx, s.recorder, models.Fields, tracking.Mutation[models.Repair]{
		EntityID: id,
		Kind:     interaction.KindCreated,
		Locks:    []string{tracking.LockKey(interaction.EntityEquipment, req.EquipmentID)},
		Apply: func(ctx context.Context, _ *models.Repair) (*models.Repair, error) {
			at := now(ctx)
			r := &models.Repair{ID: id, CreatedAt: at}
			if err := s.fill(ctx, r, req, at); err != nil {
				return nil, err
			}
			if err := s.store.Create(ctx, r); err != nil {
				return nil, storeError(err, "equipment not found", "repair already exists")
			}
			return r, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return res.After, nil
}

// Get returns one repair.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Repair, error) {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "repair not found", "")
	}
	if err := s.hydrate(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns all repairs, or only one equipment's when equipmentID is
// set, newest entry first.
func (s *Service) List(ctx context.Context, equipmentID *uuid.UUID) ([]*models.Repair, error) {
	if equipmentID != nil {
		if _, err := s.lookupEquipment(ctx, *equipmentID); err != nil {
			return nil, err
		}
	}
	repairs, err := s.store.List(ctx, equipmentID)
	if err != nil {
		return nil, storeError(err, "", "")
	}
	for _, r := range repairs {
		if err := s.hydrate(ctx, r); err != nil {
			return nil, err
		}
	}
	return repairs, nil
}

// Update replaces every field of a repair.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *models.Request) (*models.Repair, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	locks := []string{tracking.LockKey(interaction.EntityEquipment, req.EquipmentID)}
	return s.update(ctx, id, locks, func(ctx context.Context, r *models.Repair) error {
		return s.fill(ctx, r, req, now(ctx))
	})
}

// ChangeStatus moves a repair to another status. The record still carries
// every field.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, req *models.StatusRequest) (*models.Repair, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.update(ctx, id, nil, func(ctx context.Context, r *models.Repair) error {
		status, err := s.status(ctx, &req.StatusID)
		if err != nil {
			return err
		}
		r.StatusID = status.ID
		r.StatusName = status.Name
		return nil
	})
}

func (s *Service) update(ctx context.Context, id uuid.UUID, locks []string, change func(ctx context.Context, r *models.Repair) error) (*models.Repair, error) {
	res, err := tracking.Track(ctx, s.recorder, models.Fields, tracking.Mutation[models.Repair]{
		EntityID: id,
		Kind:     interaction.KindUpdated,
		Locks:    locks,
		Load:     s.load(id),
		Apply: func(ctx context.Context, before *models.Repair) (*models.Repair, error) {
			after := before.Clone()
			if err := change(ctx, &after); err != nil {
				return nil, err
			}
			after.UpdatedAt = now(ctx)
			if err := s.store.Update(ctx, &after); err != nil {
				return nil, storeError(err, "repair not found", "")
			}
			return &after, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return res.After, nil
}

// Delete removes a repair.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := tracking.Track(ctx, s.recorder, models.Fields, tracking.Mutation[models.Repair]{
		EntityID: id,
		Kind:     interaction.KindDeleted,
		Load:     s.load(id),
		Apply: func(ctx context.Context, _ *models.Repair) (*models.Repair, error) {
			if err := s.store.Delete(ctx, id); err != nil {
				return nil, storeError(err, "repair not found", "")
			}
			return nil, nil
		},
	})
	return err
}

func (s *Service) load(id uuid.UUID) func(ctx context.Context) (*models.Repair, error) {
	return func(ctx context.Context) (*models.Repair, error) {
		r, err := s.store.FindForUpdate(ctx, id)
		if err != nil {
			return nil, storeError(err, "repair not found", "")
		}
		if err := s.hydrate(ctx, r); err != nil {
			return nil, err
		}
		return r, nil
	}
}

// fill copies req onto r, resolving every reference.
func (s *Service) fill(ctx context.Context, r *models.Repair, req *models.Request, at time.Time) error {
	eq, err := s.lookupEquipment(ctx, req.EquipmentID)
	if err != nil {
		return err
	}
	status, err := s.status(ctx, req.StatusID)
	if err != nil {
		return err
	}
	accessories, err := s.accessories(ctx, req.AccessoryIDs)
	if err != nil {
		return err
	}
	entry, err := req.Entry(at)
	if err != nil {
		return err
	}
	r.EquipmentID = eq.ID
	r.EquipmentName = eq.DisplayName()
	r.StatusID = status.ID
	r.StatusName = status.Name
	r.Accessories = accessories
	r.ReportedIssues = req.ReportedIssues
	if r.ReportedIssues == nil {
		r.ReportedIssues = []string{}
	}
	r.Diagnosis = req.Diagnosis
	r.EstimatedCost = req.EstimatedCost
	r.Urgent = req.Urgent
	r.EntryDate = entry
	return nil
}

func (s *Service) lookupEquipment(ctx context.Context, id uuid.UUID) (*equipmentModels.Equipment, error) {
	eq, err := s.equipment.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "equipment not found", "")
	}
	return eq, nil
}

// status resolves id, or the first status of the workflow when id is nil.
func (s *Service) status(ctx context.Context, id *uuid.UUID) (*models.Status, error) {
	statuses, err := s.store.Statuses(ctx)
	if err != nil {
		return nil, storeError(err, "", "")
	}
	for i := range statuses {
		if (id == nil && statuses[i].Position == 1) || (id != nil && statuses[i].ID == *id) {
			return &statuses[i], nil
		}
	}
	if id == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "repair status catalog is empty")
	}
	return nil, dErrors.New(dErrors.CodeValidation, "unknown status_id "+id.String())
}

func (s *Service) accessories(ctx context.Context, ids []uuid.UUID) ([]models.Accessory, error) {
	catalog, err := s.accessoryNames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Accessory, 0, len(ids))
	for _, id := range ids {
		name, ok := catalog[id]
		if !ok {
			return nil, dErrors.New(dErrors.CodeValidation, "unknown accessory "+id.String())
		}
		out = append(out, models.Accessory{ID: id, Name: name})
	}
	return out, nil
}

func (s *Service) accessoryNames(ctx context.Context) (map[uuid.UUID]string, error) {
	accessories, err := s.store.Accessories(ctx)
	if err != nil {
		return nil, storeError(err, "", "")
	}
	names := make(map[uuid.UUID]string, len(accessories))
	for _, a := range accessories {
		names[a.ID] = a.Name
	}
	return names, nil
}

// hydrate sets the current names of everything r references.
func (s *Service) hydrate(ctx context.Context, r *models.Repair) error {
	eq, err := s.equipment.FindByID(ctx, r.EquipmentID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		s.logger.WarnContext(ctx, "repair references missing equipment",
			"repair_id", r.ID,
			"equipment_id", r.EquipmentID,
		)
	case err != nil:
		return storeError(err, "", "")
	default:
		r.EquipmentName = eq.DisplayName()
	}

	statuses, err := s.store.Statuses(ctx)
	if err != nil {
		return storeError(err, "", "")
	}
	for _, st := range statuses {
		if st.ID == r.StatusID {
			r.StatusName = st.Name
		}
	}

	names, err := s.accessoryNames(ctx)
	if err != nil {
		return err
	}
	for i := range r.Accessories {
		r.Accessories[i].Name = names[r.Accessories[i].ID]
	}
	if r.Accessories == nil {
		r.Accessories = []models.Accessory{}
	}
	return nil
}

func storeError(err error, notFound, conflict string) error {
	if _, ok := dErrors.CodeOf(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound) && notFound != "":
		return dErrors.New(dErrors.CodeNotFound, notFound)
	case errors.Is(err, sentinel.ErrConflict) && conflict != "":
		return dErrors.Wrap(err, dErrors.CodeConflict, conflict)
	default:
		return dErrors.Wrap(err, dErrors.CodePersistence, "repair store failure")
	}
}
