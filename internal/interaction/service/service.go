// Package service records interactions alongside entity mutations and
// serves history reads.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/builder"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/metrics"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/store"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/visibility"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
	txcontext "github.com/ItsLhuis/mxt-sub001/pkg/platform/tx"
)

const (
	invalidateAttempts = 3
	invalidateBackoff  = 25 * time.Millisecond
	invalidateTimeout  = 2 * time.Second
)

//go:generate mockgen -source=service.go -destination=mocks/service-mocks.go -package=mocks Store HistoryCache

// Store is the append-only record store.
type Store interface {
	Append(ctx context.Context, rec *models.Record) (int64, error)
	FindAllByEntityID(ctx context.Context, entityType models.EntityType, entityID uuid.UUID) ([]models.Record, error)
	Chain(ctx context.Context, entityType models.EntityType, entityID uuid.UUID) ([]models.Record, error)
}

// RecordBuilder turns a mutation's diff into a record.
type RecordBuilder interface {
	Build(ctx context.Context, in builder.Input) (*models.Record, error)
}

// HistoryCache is an optional read-through cache of histories.
type HistoryCache interface {
	Get(ctx context.Context, et models.EntityType, id uuid.UUID) ([]models.Record, int64, bool, error)
	Set(ctx context.Context, et models.EntityType, id uuid.UUID, gen int64, records []models.Record) error
	Invalidate(ctx context.Context, et models.EntityType, id uuid.UUID) error
}

// Recorder couples interaction records to entity mutations.
type Recorder struct {
	store   Store
	tx      TxRunner
	builder RecordBuilder
	filter  *visibility.Filter
	cache   HistoryCache
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer

	// bypass holds entities whose cache generation could not be bumped;
	// their reads go to the store until a later bump succeeds.
	bypass sync.Map
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithCache enables the history cache.
func WithCache(cache HistoryCache) Option {
	return func(r *Recorder) { r.cache = cache }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

// WithTracer sets the tracer. Defaults to the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Recorder) { r.tracer = tracer }
}

// New creates a Recorder.
func New(st Store, tx TxRunner, b RecordBuilder, filter *visibility.Filter, opts ...Option) *Recorder {
	r := &Recorder{
		store:   st,
		tx:      tx,
		builder: b,
		filter:  filter,
		logger:  slog.Default(),
		tracer:  otel.Tracer("github.com/ItsLhuis/mxt-sub001/internal/interaction"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// RecordInteraction builds and appends one record. It must be called
// inside the transaction of the entity write it describes; outside one it
// fails with CodeInvariantViolation.
func (r *Recorder) RecordInteraction(ctx context.Context, in builder.Input) (*models.Record, error) {
	if !txcontext.Active(ctx) {
		return nil, dErrors.Wrap(sentinel.ErrNoTransaction, dErrors.CodeInvariantViolation,
			"interaction must be recorded inside the entity transaction")
	}
	rec, err := r.builder.Build(ctx, in)
	if err != nil {
		return nil, err
	}
	if _, err := r.store.Append(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to append interaction")
	}
	return rec, nil
}

// History returns the entity's records newest first as role may see them.
// visible is false when role may not view history; records is then nil and
// the caller must omit history from its response.
func (r *Recorder) History(ctx context.Context, et models.EntityType, id uuid.UUID, role domain.Role) (records []models.Record, visible bool, err error) {
	ctx, span := r.tracer.Start(ctx, "interaction.History", trace.WithAttributes(
		attribute.String("entity_type", string(et)),
		attribute.String("entity_id", id.String()),
	))
	defer span.End()

	if !r.filter.CanViewHistory(role) {
		r.metrics.IncrementHistoryRead(string(et), false)
		return nil, false, nil
	}
	all, err := r.load(ctx, et, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load history")
		return nil, false, err
	}
	records, visible = r.filter.Apply(role, all)
	r.metrics.IncrementHistoryRead(string(et), visible)
	return records, visible, nil
}

func (r *Recorder) load(ctx context.Context, et models.EntityType, id uuid.UUID) ([]models.Record, error) {
	var (
		gen       int64
		cacheable bool
	)
	if r.cache != nil && r.bypassed(et, id) {
		r.metrics.IncrementCacheLookup("bypass")
	} else if r.cache != nil {
		cached, g, hit, err := r.cache.Get(ctx, et, id)
		switch {
		case err != nil:
			r.metrics.IncrementCacheLookup("error")
			r.logger.WarnContext(ctx, "history cache read failed",
				"entity_type", et,
				"entity_id", id,
				"error", err,
			)
		case hit:
			r.metrics.IncrementCacheLookup("hit")
			return cached, nil
		default:
			r.metrics.IncrementCacheLookup("miss")
			gen, cacheable = g, true
		}
	}

	records, err := r.store.FindAllByEntityID(ctx, et, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to load interaction history")
	}
	if cacheable {
		if err := r.cache.Set(ctx, et, id, gen, records); err != nil {
			r.logger.WarnContext(ctx, "history cache write failed",
				"entity_type", et,
				"entity_id", id,
				"error", err,
			)
		}
	}
	return records, nil
}

func bypassKey(et models.EntityType, id uuid.UUID) string {
	return string(et) + ":" + id.String()
}

func (r *Recorder) bypassed(et models.EntityType, id uuid.UUID) bool {
	_, ok := r.bypass.Load(bypassKey(et, id))
	return ok
}

// invalidate runs after commit so the next read sees the new record. It is
// detached from the caller's cancellation and retried; if every attempt
// fails the entity is read past the cache from then on.
func (r *Recorder) invalidate(ctx context.Context, et models.EntityType, id uuid.UUID) {
	if r.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
	defer cancel()

	key := bypassKey(et, id)
	var err error
retry:
	for attempt := 1; attempt <= invalidateAttempts; attempt++ {
		if err = r.cache.Invalidate(ctx, et, id); err == nil {
			r.bypass.Delete(key)
			return
		}
		if attempt == invalidateAttempts {
			break
		}
		select {
		case <-ctx.Done():
			break retry
		case <-time.After(invalidateBackoff * time.Duration(attempt)):
		}
	}
	r.bypass.Store(key, struct{}{})
	r.logger.ErrorContext(ctx, "history cache invalidation failed, bypassing cache for entity",
		"entity_type", et,
		"entity_id", id,
		"error", err,
	)
}

// VerifyResult reports the outcome of a chain verification.
type VerifyResult struct {
	EntityType models.EntityType `json:"entity_type"`
	EntityID   uuid.UUID         `json:"entity_id"`
	Records    int               `json:"records"`
	Valid      bool              `json:"valid"`
	Problem    string            `json:"problem,omitempty"`
}

// Verify recomputes the entity's hash chain from the store, bypassing the
// cache.
func (r *Recorder) Verify(ctx context.Context, et models.EntityType, id uuid.UUID) (*VerifyResult, error) {
	chain, err := r.store.Chain(ctx, et, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to load interaction chain")
	}
	res := &VerifyResult{EntityType: et, EntityID: id, Records: len(chain), Valid: true}
	if err := store.VerifyChain(chain); err != nil {
		if !errors.Is(err, sentinel.ErrChainBroken) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify interaction chain")
		}
		res.Valid = false
		res.Problem = err.Error()
		r.logger.ErrorContext(ctx, "interaction chain broken",
			"entity_type", et,
			"entity_id", id,
			"error", err,
		)
	}
	return res, nil
}

// CanViewHistory reports whether role may read history at all.
func (r *Recorder) CanViewHistory(role domain.Role) bool {
	return r.filter.CanViewHistory(role)
}
