// Package tx carries the active transaction through context so stores can
// join it without their signatures knowing about transactions.
//
// Two kinds of transaction travel this way: a *sql.Tx for Postgres-backed
// stores, and a Journal for in-memory stores. A Journal records undo actions
// that are replayed in reverse if the unit of work fails.
package tx

import (
	"context"
	"database/sql"
	"sync"
)

type (
	sqlKey     struct{}
	journalKey struct{}
)

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, sqlKey{}, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(sqlKey{}).(*sql.Tx)
	return tx, ok
}

// Querier is the query surface shared by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// QuerierFrom returns the transaction in ctx, or db outside one.
func QuerierFrom(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := From(ctx); ok {
		return tx
	}
	return db
}

// Journal collects undo actions for an in-memory unit of work.
type Journal struct {
	mu    sync.Mutex
	undos []func()
}

// OnRollback registers fn to run if the unit of work is rolled back.
func (j *Journal) OnRollback(fn func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.undos = append(j.undos, fn)
}

// Rollback runs the registered undo actions newest first and clears them.
func (j *Journal) Rollback() {
	j.mu.Lock()
	undos := j.undos
	j.undos = nil
	j.mu.Unlock()
	for i := len(undos) - 1; i >= 0; i-- {
		undos[i]()
	}
}

// Commit discards the undo actions.
func (j *Journal) Commit() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.undos = nil
}

// WithJournal stores an in-memory journal in context.
func WithJournal(ctx context.Context, j *Journal) context.Context {
	if j == nil {
		return ctx
	}
	return context.WithValue(ctx, journalKey{}, j)
}

// JournalFrom extracts the in-memory journal from context if present.
func JournalFrom(ctx context.Context) (*Journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*Journal)
	return j, ok
}

// OnRollback registers an undo action with the journal in ctx, if any.
// Memory stores call it after every successful write.
func OnRollback(ctx context.Context, fn func()) {
	if j, ok := JournalFrom(ctx); ok {
		j.OnRollback(fn)
	}
}

// Active reports whether ctx carries either kind of transaction.
func Active(ctx context.Context) bool {
	if _, ok := From(ctx); ok {
		return true
	}
	_, ok := JournalFrom(ctx)
	return ok
}
