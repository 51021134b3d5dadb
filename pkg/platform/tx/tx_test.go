package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJournalRollbackRunsNewestFirst(t *testing.T) {
	j := &Journal{}
	var order []int
	j.OnRollback(func() { order = append(order, 1) })
	j.OnRollback(func() { order = append(order, 2) })
	j.OnRollback(func() { order = append(order, 3) })

	j.Rollback()

	assert.Equal(t, []int{3, 2, 1}, order)

	// A second rollback is a no-op.
	j.Rollback()
	assert.Len(t, order, 3)
}

func TestJournalCommitDropsUndos(t *testing.T) {
	j := &Journal{}
	called := false
	j.OnRollback(func() { called = true })

	j.Commit()
	j.Rollback()

	assert.False(t, called)
}

func TestActive(t *testing.T) {
	ctx := context.Background()
	assert.False(t, Active(ctx))

	assert.True(t, Active(WithJournal(ctx, &Journal{})))
	assert.True(t, Active(WithTx(ctx, &sql.Tx{})))
	assert.False(t, Active(WithTx(ctx, nil)))
}

func TestOnRollbackWithoutJournalIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		OnRollback(context.Background(), func() {})
	})
}
