package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	dErrors "github.com/ItsLhuis/mxt-sub001/pkg/domain-errors"
	txcontext "github.com/ItsLhuis/mxt-sub001/pkg/platform/tx"
)

const (
	defaultTxTimeout     = 5 * time.Second
	defaultTxMaxAttempts = 3
	retryBackoff         = 20 * time.Millisecond
)

// TxRunner runs a unit of work inside one database transaction, published
// to stores through the context. Serialization failures and deadlocks retry
// the whole unit.
type TxRunner struct {
	db          *sql.DB
	timeout     time.Duration
	maxAttempts int
	logger      *slog.Logger
	onRetry     func()
}

// TxOption configures a TxRunner.
type TxOption func(*TxRunner)

// WithTimeout bounds each unit of work when the caller set no deadline.
func WithTimeout(d time.Duration) TxOption {
	return func(t *TxRunner) { t.timeout = d }
}

// WithMaxAttempts caps how often a retryable unit is attempted.
func WithMaxAttempts(n int) TxOption {
	return func(t *TxRunner) { t.maxAttempts = n }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *slog.Logger) TxOption {
	return func(t *TxRunner) { t.logger = logger }
}

// WithRetryHook is called before every retried attempt.
func WithRetryHook(fn func()) TxOption {
	return func(t *TxRunner) { t.onRetry = fn }
}

// NewTxRunner builds a TxRunner over db.
func NewTxRunner(db *sql.DB, opts ...TxOption) *TxRunner {
	t := &TxRunner{
		db:          db,
		timeout:     defaultTxTimeout,
		maxAttempts: defaultTxMaxAttempts,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	if t.maxAttempts < 1 {
		t.maxAttempts = 1
	}
	return t
}

// RunInTx executes fn in a transaction. fn must be safe to re-run: every
// attempt starts from a fresh transaction.
func (t *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	var err error
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		err = t.attempt(ctx, fn)
		if err == nil || !IsRetryable(err) || attempt == t.maxAttempts {
			break
		}
		t.logger.WarnContext(ctx, "retrying transaction",
			"attempt", attempt,
			"error", err,
		)
		if t.onRetry != nil {
			t.onRetry()
		}
		select {
		case <-ctx.Done():
			return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "transaction aborted: context cancelled")
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}
	if err != nil && IsRetryable(err) {
		return dErrors.Wrap(err, dErrors.CodePersistence, "transaction retries exhausted")
	}
	return err
}

func (t *TxRunner) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "commit transaction")
	}
	return nil
}
