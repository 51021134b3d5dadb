package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/builder"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/descriptor"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/diff"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	"github.com/ItsLhuis/mxt-sub001/pkg/requestcontext"
)

// Mutation describes one tracked write of an entity of type T.
//
// Load reads the current state under a row lock and is required for
// updates and deletes. Apply performs the write given that state and
// returns the new state, or nil for deletes. Both run inside the
// transaction and may run again if the transaction is retried.
//
// Locks names other entities the write must serialize with, such as the
// parent it attaches to; see LockKey.
type Mutation[T any] struct {
	EntityID uuid.UUID
	Kind     models.Kind
	Locks    []string
	Load     func(ctx context.Context) (*T, error)
	Apply    func(ctx context.Context, before *T) (*T, error)
}

// Result is what a committed mutation produced.
type Result[T any] struct {
	Before *T
	After  *T
	Record *models.Record
}

// Track runs m and records its interaction in one transaction: the before
// state is loaded under lock, the write applied, the diff computed against
// set and the record appended. Any error rolls back both the write and the
// record. The acting user is taken from the request context.
func Track[T any](ctx context.Context, r *Recorder, set *descriptor.Set[T], m Mutation[T]) (*Result[T], error) {
	et := set.EntityType()
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "interaction.Track", trace.WithAttributes(
		attribute.String("entity_type", string(et)),
		attribute.String("entity_id", m.EntityID.String()),
		attribute.String("kind", string(m.Kind)),
	))
	defer span.End()

	res, err := track(ctx, r, set, m)
	if err != nil {
		code, ok := dErrors.CodeOf(err)
		if !ok {
			code = dErrors.CodeInternal
		}
		r.metrics.IncrementFailed(string(et), string(code))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		return nil, err
	}

	r.invalidate(ctx, et, m.EntityID)
	r.metrics.IncrementAppended(string(et), string(m.Kind))
	r.metrics.ObserveMutation(string(et), string(m.Kind), time.Since(start))
	span.SetAttributes(attribute.Int64("interaction_id", res.Record.ID))
	r.logger.InfoContext(ctx, "interaction recorded",
		"request_id", requestcontext.RequestID(ctx),
		"entity_type", et,
		"entity_id", m.EntityID,
		"kind", m.Kind,
		"interaction_id", res.Record.ID,
	)
	return res, nil
}

func track[T any](ctx context.Context, r *Recorder, set *descriptor.Set[T], m Mutation[T]) (*Result[T], error) {
	et := set.EntityType()
	switch {
	case m.EntityID == uuid.Nil:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tracked mutation requires an entity id")
	case !m.Kind.IsValid():
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown interaction kind "+string(m.Kind))
	case m.Apply == nil:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tracked mutation requires an apply step")
	case m.Kind != models.KindCreated && m.Load == nil:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tracked update or delete requires a load step")
	}

	var res *Result[T]
	ctx = WithLockKey(ctx, append([]string{LockKey(et, m.EntityID)}, m.Locks...)...)
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		res = nil
		var before *T
		if m.Kind != models.KindCreated {
			loaded, err := m.Load(ctx)
			if err != nil {
				return err
			}
			if loaded == nil {
				return dErrors.New(dErrors.CodeNotFound, string(et)+" not found")
			}
			before = loaded
		}

		after, err := m.Apply(ctx, before)
		if err != nil {
			return err
		}
		if (m.Kind == models.KindDeleted) != (after == nil) {
			return dErrors.New(dErrors.CodeInvariantViolation, "apply result does not match "+string(m.Kind))
		}

		rec, err := r.RecordInteraction(ctx, builder.Input{
			EntityType:    et,
			EntityID:      m.EntityID,
			Kind:          m.Kind,
			Changes:       diff.Compute(before, after, set),
			ActorID:       requestcontext.UserID(ctx),
			SchemaVersion: set.Version(),
		})
		if err != nil {
			return err
		}
		res = &Result[T]{Before: before, After: after, Record: rec}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
