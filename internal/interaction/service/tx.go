package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	txcontext "github.com/ItsLhuis/mxt-sub001/pkg/platform/tx"
)

// TxRunner runs a unit of work atomically. Stores join the unit through
// the context it passes to fn.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// numTxShards spreads in-memory units of work over independent locks keyed
// by entity.
const numTxShards = 128

const defaultTxTimeout = 5 * time.Second

type lockKeys struct{}

// WithLockKey names the entities a unit of work serializes on.
func WithLockKey(ctx context.Context, keys ...string) context.Context {
	return context.WithValue(ctx, lockKeys{}, keys)
}

// LockKey is the key units of work on one entity serialize on.
func LockKey(et models.EntityType, id uuid.UUID) string {
	return string(et) + ":" + id.String()
}

// ShardedTx is the in-memory TxRunner. Units of work sharing a lock key
// run one at a time; writes are undone through a journal if fn fails or
// panics.
type ShardedTx struct {
	shards  [numTxShards]sync.Mutex
	timeout time.Duration
}

// NewShardedTx creates an in-memory TxRunner.
func NewShardedTx(timeout time.Duration) *ShardedTx {
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	return &ShardedTx{timeout: timeout}
}

// RunInTx executes fn holding the shard locks of the context's lock keys,
// taken in ascending shard order.
func (t *ShardedTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	shards := t.selectShards(ctx)
	for _, i := range shards {
		t.shards[i].Lock()
	}
	defer func() {
		for i := len(shards) - 1; i >= 0; i-- {
			t.shards[shards[i]].Unlock()
		}
	}()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	journal := &txcontext.Journal{}
	defer func() {
		if p := recover(); p != nil {
			journal.Rollback()
			err = dErrors.New(dErrors.CodeInternal, fmt.Sprintf("transaction panicked: %v", p))
			return
		}
		if err != nil {
			journal.Rollback()
			return
		}
		journal.Commit()
	}()
	if err := fn(txcontext.WithJournal(ctx, journal)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: deadline exceeded")
	}
	return nil
}

func (t *ShardedTx) selectShards(ctx context.Context) []int {
	keys, _ := ctx.Value(lockKeys{}).([]string)
	shards := make([]int, 0, len(keys))
	for _, key := range keys {
		if key != "" {
			shards = append(shards, shardOf(key))
		}
	}
	if len(shards) == 0 {
		return []int{0}
	}
	slices.Sort(shards)
	return slices.Compact(shards)
}

func shardOf(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % numTxShards)
}
