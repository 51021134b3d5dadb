package outbox

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/metrics"
	"github.com/ItsLhuis/mxt-sub001/internal/platform/kafka"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/circuit"
)

const (
	defaultBatchSize    = 100
	defaultPollInterval = 2 * time.Second
)

// Store reads and acknowledges pending events inside a transaction.
type Store interface {
	FetchPending(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, ids []int64) error
}

// Publisher delivers a batch of messages.
type Publisher interface {
	Publish(ctx context.Context, msgs []kafka.Message) error
}

// TxRunner runs fn in one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Worker polls the outbox and publishes events in id order. A batch is
// marked published only after the broker acknowledged it; a failed publish
// leaves the rows pending, so delivery is at least once.
type Worker struct {
	store     Store
	publisher Publisher
	tx        TxRunner
	interval  time.Duration
	batchSize int
	metrics   *metrics.Metrics
	breaker   *circuit.Breaker
	logger    *slog.Logger
}

// Option configures a Worker.
type Option func(*Worker)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithBatchSize caps the rows published per transaction.
func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) { w.metrics = m }
}

// WithBreaker skips ticks while the broker keeps failing. Nil disables it.
func WithBreaker(b *circuit.Breaker) Option {
	return func(w *Worker) { w.breaker = b }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

// NewWorker creates an outbox Worker.
func NewWorker(store Store, publisher Publisher, tx TxRunner, opts ...Option) *Worker {
	w := &Worker{
		store:     store,
		publisher: publisher,
		tx:        tx,
		interval:  defaultPollInterval,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run drains the outbox every interval until ctx is cancelled. Publish
// failures are logged and retried on the next tick the breaker allows.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if w.breaker != nil && !w.breaker.Allow() {
				continue
			}
			if err := w.drainAll(ctx); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// drainAll publishes batches until one comes back short. Only cancellation
// is returned; publish failures are recorded and end the tick.
func (w *Worker) drainAll(ctx context.Context) error {
	for {
		n, err := w.Drain(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.metrics.IncrementOutboxFailure()
			w.logger.ErrorContext(ctx, "outbox publish failed", "error", err)
			if w.breaker != nil {
				if _, change := w.breaker.RecordFailure(); change.Opened {
					w.logger.WarnContext(ctx, "outbox publishing paused", "breaker", w.breaker.Name())
				}
			}
			return nil
		}
		if w.breaker != nil {
			if _, change := w.breaker.RecordSuccess(); change.Closed {
				w.logger.InfoContext(ctx, "outbox publishing resumed", "breaker", w.breaker.Name())
			}
		}
		if n < w.batchSize {
			return nil
		}
	}
}

// Drain publishes one batch and returns how many events it published.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	var published int
	err := w.tx.RunInTx(ctx, func(ctx context.Context) error {
		published = 0
		events, err := w.store.FetchPending(ctx, w.batchSize)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		msgs := make([]kafka.Message, 0, len(events))
		ids := make([]int64, 0, len(events))
		for _, e := range events {
			msgs = append(msgs, toMessage(e))
			ids = append(ids, e.ID)
		}
		if err := w.publisher.Publish(ctx, msgs); err != nil {
			return err
		}
		if err := w.store.MarkPublished(ctx, ids); err != nil {
			return err
		}
		published = len(events)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if published > 0 {
		w.metrics.AddOutboxPublished(published)
		w.logger.DebugContext(ctx, "outbox batch published", "count", published)
	}
	return published, nil
}

func toMessage(e Event) kafka.Message {
	return kafka.Message{
		Key:   []byte(e.EntityID.String()),
		Value: e.Payload,
		Headers: map[string]string{
			"event_type":     e.EventType,
			"entity_type":    e.EntityType,
			"interaction_id": strconv.FormatInt(e.InteractionID, 10),
		},
	}
}
