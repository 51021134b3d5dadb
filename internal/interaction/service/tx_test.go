package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	txcontext "github.com/ItsLhuis/mxt-sub001/pkg/platform/tx"
)

func TestShardedTx(t *testing.T) {
	t.Run("commits when fn succeeds", func(t *testing.T) {
		tx := NewShardedTx(time.Second)
		undone := false
		err := tx.RunInTx(context.Background(), func(ctx context.Context) error {
			require.True(t, txcontext.Active(ctx))
			txcontext.OnRollback(ctx, func() { undone = true })
			return nil
		})
		require.NoError(t, err)
		assert.False(t, undone)
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		tx := NewShardedTx(time.Second)
		var order []int
		boom := errors.New("boom")
		err := tx.RunInTx(context.Background(), func(ctx context.Context) error {
			txcontext.OnRollback(ctx, func() { order = append(order, 1) })
			txcontext.OnRollback(ctx, func() { order = append(order, 2) })
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, []int{2, 1}, order, "undo runs in reverse")
	})

	t.Run("converts a panic into an internal error", func(t *testing.T) {
		tx := NewShardedTx(time.Second)
		undone := false
		err := tx.RunInTx(context.Background(), func(ctx context.Context) error {
			txcontext.OnRollback(ctx, func() { undone = true })
			panic("nil map")
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
		assert.True(t, undone)
	})

	t.Run("rejects an already cancelled context", func(t *testing.T) {
		tx := NewShardedTx(time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false
		err := tx.RunInTx(ctx, func(context.Context) error {
			called = true
			return nil
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
		assert.False(t, called)
	})

	t.Run("rolls back work that outlives the timeout", func(t *testing.T) {
		tx := NewShardedTx(10 * time.Millisecond)
		undone := false
		err := tx.RunInTx(context.Background(), func(ctx context.Context) error {
			txcontext.OnRollback(ctx, func() { undone = true })
			<-ctx.Done()
			return nil
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
		assert.True(t, undone)
	})

	t.Run("serializes units on the same key", func(t *testing.T) {
		tx := NewShardedTx(time.Second)
		ctx := WithLockKey(context.Background(), "client:1")
		var inside, overlaps int32
		done := make(chan struct{})
		for range 8 {
			go func() {
				defer func() { done <- struct{}{} }()
				_ = tx.RunInTx(ctx, func(context.Context) error {
					if atomic.AddInt32(&inside, 1) > 1 {
						atomic.AddInt32(&overlaps, 1)
					}
					time.Sleep(time.Millisecond)
					atomic.AddInt32(&inside, -1)
					return nil
				})
			}()
		}
		for range 8 {
			<-done
		}
		assert.Zero(t, atomic.LoadInt32(&overlaps))
	})

	t.Run("serializes units sharing any key", func(t *testing.T) {
		tx := NewShardedTx(time.Second)
		parent := LockKey("client", uuid.New())
		held := make(chan struct{})
		release := make(chan struct{})
		go func() {
			_ = tx.RunInTx(WithLockKey(context.Background(), parent), func(context.Context) error {
				close(held)
				<-release
				return nil
			})
		}()
		<-held

		entered := make(chan struct{})
		go func() {
			ctx := WithLockKey(context.Background(), LockKey("equipment", uuid.New()), parent)
			_ = tx.RunInTx(ctx, func(context.Context) error {
				close(entered)
				return nil
			})
		}()
		select {
		case <-entered:
			t.Fatal("unit entered while its parent key was held")
		case <-time.After(20 * time.Millisecond):
		}
		close(release)
		<-entered
	})

	t.Run("opposite key orders do not deadlock", func(t *testing.T) {
		tx := NewShardedTx(time.Second)
		a, b := "client:a", "equipment:b"
		done := make(chan error, 2)
		for i := range 2 {
			keys := []string{a, b}
			if i == 1 {
				keys = []string{b, a}
			}
			go func() {
				var err error
				for range 50 {
					if err = tx.RunInTx(WithLockKey(context.Background(), keys...), func(context.Context) error {
						return nil
					}); err != nil {
						break
					}
				}
				done <- err
			}()
		}
		for range 2 {
			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(2 * time.Second):
				t.Fatal("deadlock")
			}
		}
	})
}
