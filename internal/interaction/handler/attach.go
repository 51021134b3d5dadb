package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	"github.com/ItsLhuis/mxt-sub001/pkg/requestcontext"
)

// HistoryReader is the read side of the recorder.
type HistoryReader interface {
	History(ctx context.Context, et models.EntityType, id uuid.UUID, role domain.Role) ([]models.Record, bool, error)
}

// HistoryAttacher loads the history embedded in entity read responses.
// A nil result means the caller's role may not see history and the
// interactions_history key must be left out.
type HistoryAttacher struct {
	reader HistoryReader
}

// NewHistoryAttacher creates a HistoryAttacher.
func NewHistoryAttacher(reader HistoryReader) *HistoryAttacher {
	return &HistoryAttacher{reader: reader}
}

// Attach returns the history of one entity for the role in ctx.
func (a *HistoryAttacher) Attach(ctx context.Context, et models.EntityType, id uuid.UUID) (*[]models.Entry, error) {
	records, visible, err := a.reader.History(ctx, et, id, requestcontext.Role(ctx))
	if err != nil || !visible {
		return nil, err
	}
	entries := models.NewEntries(records)
	return &entries, nil
}

// AttachMany returns histories aligned with ids. The whole slice is nil when
// history is hidden from the role in ctx.
func (a *HistoryAttacher) AttachMany(ctx context.Context, et models.EntityType, ids []uuid.UUID) ([]*[]models.Entry, error) {
	out := make([]*[]models.Entry, len(ids))
	for i, id := range ids {
		entries, err := a.Attach(ctx, et, id)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			return nil, nil
		}
		out[i] = entries
	}
	return out, nil
}
