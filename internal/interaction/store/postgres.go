package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
	txcontext "github.com/ItsLhuis/mxt-sub001/pkg/platform/tx"
)

// Postgres stores records in the interactions table and, in the same
// transaction, queues each one in interaction_outbox for publishing.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed record store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) querier(ctx context.Context) txcontext.Querier {
	return txcontext.QuerierFrom(ctx, s.db)
}

// Append inserts rec and its outbox row. It must run inside the caller's
// transaction, after the entity row lock is taken, so the record commits or
// rolls back with the entity write. CreatedAt comes from the database clock.
func (s *Postgres) Append(ctx context.Context, rec *models.Record) (int64, error) {
	tx, ok := txcontext.From(ctx)
	if !ok {
		return 0, sentinel.ErrNoTransaction
	}

	last, err := s.last(ctx, tx, rec.EntityType, rec.EntityID)
	if err != nil {
		return 0, err
	}
	var now time.Time
	if err := tx.QueryRowContext(ctx, `SELECT clock_timestamp()`).Scan(&now); err != nil {
		return 0, fmt.Errorf("read database clock: %w", err)
	}
	if err := seal(rec, last, now); err != nil {
		return 0, err
	}
	changes, err := json.Marshal(rec.Changes)
	if err != nil {
		return 0, fmt.Errorf("marshal changes: %w", err)
	}

	var actorID uuid.NullUUID
	var username, role sql.NullString
	if rec.Actor != nil {
		actorID = uuid.NullUUID{UUID: rec.Actor.ID, Valid: true}
		username = sql.NullString{String: rec.Actor.Username, Valid: true}
		role = sql.NullString{String: string(rec.Actor.Role), Valid: true}
	}

	query := `
		INSERT INTO interactions (
			entity_type, entity_id, kind, actor_id, actor_username, actor_role,
			changes, schema_version, prev_hash, hash, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query,
		string(rec.EntityType),
		rec.EntityID,
		string(rec.Kind),
		actorID,
		username,
		role,
		changes,
		rec.SchemaVersion,
		rec.PrevHash,
		rec.Hash,
		rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return 0, fmt.Errorf("insert interaction: %w", err)
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("marshal outbox payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO interaction_outbox (interaction_id, entity_type, entity_id, event_type, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID, string(rec.EntityType), rec.EntityID, rec.Type(), payload)
	if err != nil {
		return 0, fmt.Errorf("insert outbox entry: %w", err)
	}
	return rec.ID, nil
}

func (s *Postgres) last(ctx context.Context, tx txcontext.Querier, entityType models.EntityType, entityID uuid.UUID) (*models.Record, error) {
	query := selectColumns + `
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY id DESC
		LIMIT 1
	`
	rec, err := scanRecord(tx.QueryRowContext(ctx, query, string(entityType), entityID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find last interaction: %w", err)
	}
	return rec, nil
}

// FindAllByEntityID returns the entity's records newest first, ties by
// ascending id. Append never produces ties within one entity.
func (s *Postgres) FindAllByEntityID(ctx context.Context, entityType models.EntityType, entityID uuid.UUID) ([]models.Record, error) {
	return s.list(ctx, entityType, entityID, "created_at DESC, id ASC")
}

// Chain returns the entity's records in insertion order.
func (s *Postgres) Chain(ctx context.Context, entityType models.EntityType, entityID uuid.UUID) ([]models.Record, error) {
	return s.list(ctx, entityType, entityID, "id ASC")
}

func (s *Postgres) list(ctx context.Context, entityType models.EntityType, entityID uuid.UUID, order string) ([]models.Record, error) {
	query := selectColumns + `
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY ` + order
	rows, err := s.querier(ctx).QueryContext(ctx, query, string(entityType), entityID)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	records := make([]models.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return records, nil
}

const selectColumns = `
	SELECT id, entity_type, entity_id, kind, actor_id, actor_username, actor_role,
		changes, schema_version, prev_hash, hash, created_at
	FROM interactions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		rec        models.Record
		entityType string
		kind       string
		actorID    uuid.NullUUID
		username   sql.NullString
		role       sql.NullString
		changes    []byte
	)
	if err := row.Scan(
		&rec.ID,
		&entityType,
		&rec.EntityID,
		&kind,
		&actorID,
		&username,
		&role,
		&changes,
		&rec.SchemaVersion,
		&rec.PrevHash,
		&rec.Hash,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	rec.EntityType = models.EntityType(entityType)
	rec.Kind = models.Kind(kind)
	rec.CreatedAt = rec.CreatedAt.UTC()
	if actorID.Valid {
		rec.Actor = &models.Actor{
			ID:       actorID.UUID,
			Username: username.String,
			Role:     domain.Role(role.String),
		}
	}
	if err := json.Unmarshal(changes, &rec.Changes); err != nil {
		return nil, fmt.Errorf("decode changes: %w", err)
	}
	return &rec, nil
}
