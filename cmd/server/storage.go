package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	clientService "github.com/ItsLhuis/mxt-sub001/internal/client/service"
	clientStore "github.com/ItsLhuis/mxt-sub001/internal/client/store"
	equipmentService "github.com/ItsLhuis/mxt-sub001/internal/equipment/service"
	equipmentStore "github.com/ItsLhuis/mxt-sub001/internal/equipment/store"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/metrics"
	tracking "github.com/ItsLhuis/mxt-sub001/internal/interaction/service"
	interactionStore "github.com/ItsLhuis/mxt-sub001/internal/interaction/store"
	"github.com/ItsLhuis/mxt-sub001/internal/platform/config"
	"github.com/ItsLhuis/mxt-sub001/internal/platform/postgres"
	repairService "github.com/ItsLhuis/mxt-sub001/internal/repair/service"
	repairStore "github.com/ItsLhuis/mxt-sub001/internal/repair/store"
	userService "github.com/ItsLhuis/mxt-sub001/internal/user/service"
	userStore "github.com/ItsLhuis/mxt-sub001/internal/user/store"
)

type equipmentBackend interface {
	equipmentService.Store
	clientService.Dependents
}

type repairBackend interface {
	repairService.Store
	equipmentService.Dependents
}

// storage is the set of stores for one backend plus the unit of work that
// makes their writes atomic with the interaction records.
type storage struct {
	db           *sql.DB
	tx           tracking.TxRunner
	users        userService.Store
	clients      clientService.Store
	equipment    equipmentBackend
	repairs      repairBackend
	interactions tracking.Store
}

func (s *storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// openStorage selects Postgres when a database URL is configured and the
// in-memory stores otherwise.
func openStorage(ctx context.Context, cfg config.Server, m *metrics.Metrics, logger *slog.Logger) (*storage, error) {
	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		return &storage{
			tx:           tracking.NewShardedTx(cfg.Tx.Timeout),
			users:        userStore.NewInMemory(),
			clients:      clientStore.NewInMemory(),
			equipment:    equipmentStore.NewInMemory(),
			repairs:      repairStore.NewInMemory(),
			interactions: interactionStore.NewInMemory(),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database ready", "max_open_conns", cfg.Database.MaxOpenConns)

	return &storage{
		db: db,
		tx: postgres.NewTxRunner(db,
			postgres.WithTimeout(cfg.Tx.Timeout),
			postgres.WithMaxAttempts(cfg.Tx.MaxAttempts),
			postgres.WithLogger(logger),
			postgres.WithRetryHook(m.IncrementTxRetry),
		),
		users:        userStore.NewPostgres(db),
		clients:      clientStore.NewPostgres(db),
		equipment:    equipmentStore.NewPostgres(db),
		repairs:      repairStore.NewPostgres(db),
		interactions: interactionStore.NewPostgres(db),
	}, nil
}
