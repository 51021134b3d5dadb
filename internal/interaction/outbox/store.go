// Package outbox drains committed interaction events from the outbox table
// to Kafka.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
	txcontext "github.com/ItsLhuis/mxt-sub001/pkg/platform/tx"
)

// Event is one pending outbox row.
type Event struct {
	ID            int64
	InteractionID int64
	EntityType    string
	EntityID      uuid.UUID
	EventType     string
	Payload       json.RawMessage
}

// PostgresStore reads and acknowledges outbox rows. Both calls must run in
// the transaction that publishes the batch, so rows stay locked until they
// are marked.
type PostgresStore struct{}

// NewPostgresStore creates an outbox store. Queries run on the transaction
// carried by the context.
func NewPostgresStore() *PostgresStore {
	return &PostgresStore{}
}

// FetchPending locks up to limit unpublished rows in id order, skipping rows
// another worker holds.
func (s *PostgresStore) FetchPending(ctx context.Context, limit int) ([]Event, error) {
	tx, ok := txcontext.From(ctx)
	if !ok {
		return nil, sentinel.ErrNoTransaction
	}
	query := `
		SELECT id, interaction_id, entity_type, entity_id, event_type, payload
		FROM interaction_outbox
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := tx.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch pending outbox rows: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var payload []byte
		if err := rows.Scan(&e.ID, &e.InteractionID, &e.EntityType, &e.EntityID, &e.EventType, &payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		e.Payload = payload
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox rows: %w", err)
	}
	return events, nil
}

// MarkPublished stamps ids as published.
func (s *PostgresStore) MarkPublished(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tx, ok := txcontext.From(ctx)
	if !ok {
		return sentinel.ErrNoTransaction
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE interaction_outbox SET published_at = NOW() WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("mark outbox rows published: %w", err)
	}
	return nil
}
