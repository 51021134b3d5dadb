// Package builder assembles immutable interaction records.
package builder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
)

// ActorDirectory resolves the display snapshot of an actor. It returns
// sentinel.ErrNotFound when the actor does not exist.
type ActorDirectory interface {
	Actor(ctx context.Context, id uuid.UUID) (*models.Actor, error)
}

// Input is everything a record is built from.
type Input struct {
	EntityType    models.EntityType
	EntityID      uuid.UUID
	Kind          models.Kind
	Changes       []models.FieldChange
	ActorID       uuid.UUID
	SchemaVersion int
}

// Builder turns an Input into a Record ready to append.
type Builder struct {
	actors ActorDirectory
	logger *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// New creates a Builder that snapshots actors from actors.
func New(actors ActorDirectory, opts ...Option) *Builder {
	b := &Builder{actors: actors, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build validates in and returns a new record. The actor's username and
// role are copied onto the record; a nil actor id, or an id the directory
// does not know, yields a record without an actor. ID, CreatedAt and hashes
// are set by the store when the record is appended.
func (b *Builder) Build(ctx context.Context, in Input) (*models.Record, error) {
	switch {
	case !in.EntityType.IsValid():
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown entity type "+string(in.EntityType))
	case in.EntityID == uuid.Nil:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "interaction requires an entity id")
	case !in.Kind.IsValid():
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown interaction kind "+string(in.Kind))
	case in.SchemaVersion < 1:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "interaction requires a schema version")
	}

	changes := make([]models.FieldChange, len(in.Changes))
	for i, c := range in.Changes {
		if err := checkText(c.Field, c.Before, c.After); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, "field "+strings.ToValidUTF8(c.Field, "?")+" has invalid text")
		}
		changes[i] = c.Clone()
	}
	if _, err := json.Marshal(changes); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeSerialization, "interaction changes cannot be serialized")
	}

	actor, err := b.snapshot(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}

	return &models.Record{
		EntityType:    in.EntityType,
		EntityID:      in.EntityID,
		Kind:          in.Kind,
		Actor:         actor,
		Changes:       changes,
		SchemaVersion: in.SchemaVersion,
	}, nil
}

func (b *Builder) snapshot(ctx context.Context, actorID uuid.UUID) (*models.Actor, error) {
	if actorID == uuid.Nil || b.actors == nil {
		return nil, nil
	}
	actor, err := b.actors.Actor(ctx, actorID)
	if errors.Is(err, sentinel.ErrNotFound) {
		b.logger.WarnContext(ctx, "actor not found, recording without snapshot",
			"actor_id", actorID,
		)
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to resolve actor")
	}
	snap := *actor
	snap.ID = actorID
	return &snap, nil
}

var (
	errInvalidUTF8 = errors.New("text is not valid UTF-8")
	errNUL         = errors.New("text contains a NUL character")
)

// checkText rejects strings, at any depth, that would not survive storage
// unchanged: invalid UTF-8 is rewritten by JSON encoding and NUL is refused
// by jsonb.
func checkText(values ...any) error {
	for _, v := range values {
		switch t := v.(type) {
		case string:
			if !utf8.ValidString(t) {
				return errInvalidUTF8
			}
			if strings.IndexByte(t, 0) >= 0 {
				return errNUL
			}
		case map[string]any:
			for k, val := range t {
				if err := checkText(k, val); err != nil {
					return err
				}
			}
		case []any:
			if err := checkText(t...); err != nil {
				return err
			}
		}
	}
	return nil
}
