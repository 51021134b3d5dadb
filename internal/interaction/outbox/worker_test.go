package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/metrics"
	"github.com/ItsLhuis/mxt-sub001/internal/platform/kafka"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/circuit"
)

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeStore struct {
	mu        sync.Mutex
	pending   []Event
	published []int64
	markErr   error
}

func (s *fakeStore) FetchPending(_ context.Context, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.pending) {
		limit = len(s.pending)
	}
	return append([]Event(nil), s.pending[:limit]...), nil
}

func (s *fakeStore) MarkPublished(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	s.published = append(s.published, ids...)
	s.pending = s.pending[len(ids):]
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs  []kafka.Message
	err   error
	calls int
}

func (p *fakePublisher) Publish(_ context.Context, msgs []kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func pendingEvents(n int) []Event {
	entity := uuid.New()
	events := make([]Event, n)
	for i := range events {
		events[i] = Event{
			ID:            int64(i + 1),
			InteractionID: int64(100 + i),
			EntityType:    "client",
			EntityID:      entity,
			EventType:     "CLIENT_UPDATED",
			Payload:       json.RawMessage(`{"id":1}`),
		}
	}
	return events
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDrain(t *testing.T) {
	t.Run("publishes in id order and marks the batch", func(t *testing.T) {
		store := &fakeStore{pending: pendingEvents(3)}
		pub := &fakePublisher{}
		m := metrics.NewWithRegisterer(prometheus.NewRegistry())
		w := NewWorker(store, pub, passthroughTx{}, WithBatchSize(2), WithMetrics(m), WithLogger(quietLogger()))

		n, err := w.Drain(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []int64{1, 2}, store.published)

		require.Len(t, pub.msgs, 2)
		msg := pub.msgs[0]
		assert.Equal(t, store.pending[0].EntityID.String(), string(msg.Key))
		assert.Equal(t, "CLIENT_UPDATED", msg.Headers["event_type"])
		assert.Equal(t, "100", msg.Headers["interaction_id"])
		assert.Equal(t, float64(2), testutil.ToFloat64(m.OutboxPublished))
	})

	t.Run("empty outbox publishes nothing", func(t *testing.T) {
		pub := &fakePublisher{}
		w := NewWorker(&fakeStore{}, pub, passthroughTx{}, WithLogger(quietLogger()))

		n, err := w.Drain(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, pub.msgs)
	})

	t.Run("publish failure leaves rows pending", func(t *testing.T) {
		store := &fakeStore{pending: pendingEvents(2)}
		w := NewWorker(store, &fakePublisher{err: errors.New("broker down")}, passthroughTx{}, WithLogger(quietLogger()))

		_, err := w.Drain(context.Background())
		require.Error(t, err)
		assert.Empty(t, store.published)
		assert.Len(t, store.pending, 2)
	})

	t.Run("mark failure is reported", func(t *testing.T) {
		store := &fakeStore{pending: pendingEvents(1), markErr: errors.New("conn reset")}
		w := NewWorker(store, &fakePublisher{}, passthroughTx{}, WithLogger(quietLogger()))

		_, err := w.Drain(context.Background())
		assert.Error(t, err)
	})
}

func TestRunDrainsUntilCancelled(t *testing.T) {
	store := &fakeStore{pending: pendingEvents(5)}
	pub := &fakePublisher{}
	w := NewWorker(store, pub, passthroughTx{},
		WithInterval(5*time.Millisecond),
		WithBatchSize(2),
		WithLogger(quietLogger()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.msgs) == 5
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestOpenBreakerStopsPublishAttempts(t *testing.T) {
	store := &fakeStore{pending: pendingEvents(1)}
	pub := &fakePublisher{err: errors.New("broker down")}
	breaker := circuit.New("kafka", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	w := NewWorker(store, pub, passthroughTx{},
		WithInterval(2*time.Millisecond),
		WithBreaker(breaker),
		WithLogger(quietLogger()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	calls := func() int {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return pub.calls
	}
	require.Eventually(t, breaker.IsOpen, time.Second, 2*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, calls())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Len(t, store.pending, 1)
}
