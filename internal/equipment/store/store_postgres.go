package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/internal/equipment/models"
	"github.com/ItsLhuis/mxt-sub001/internal/platform/postgres"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
	txcontext "github.com/ItsLhuis/mxt-sub001/pkg/platform/tx"
)

// PostgresStore persists equipment. Reads join the owning client for its
// current name.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) q(ctx context.Context) txcontext.Querier {
	return txcontext.QuerierFrom(ctx, s.db)
}

func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return sentinel.ErrNotFound
	case postgres.IsUniqueViolation(err), postgres.IsForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", op, errors.Join(sentinel.ErrConflict, err))
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

const selectEquipment = `
	SELECT e.id, e.client_id, c.name, e.brand, e.model, e.serial_number, e.description, e.created_at, e.updated_at
	FROM equipment e JOIN clients c ON c.id = e.client_id`

func scanEquipment(row interface{ Scan(...any) error }) (*models.Equipment, error) {
	var e models.Equipment
	var serial, desc sql.NullString
	if err := row.Scan(&e.ID, &e.ClientID, &e.ClientName, &e.Brand, &e.Model, &serial, &desc, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if serial.Valid {
		e.SerialNumber = &serial.String
	}
	if desc.Valid {
		e.Description = &desc.String
	}
	return &e, nil
}

// Create inserts equipment. A missing client is reported as not found.
func (s *PostgresStore) Create(ctx context.Context, e *models.Equipment) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO equipment (id, client_id, brand, model, serial_number, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.ClientID, e.Brand, e.Model, e.SerialNumber, e.Description, e.CreatedAt, e.UpdatedAt,
	)
	if postgres.IsForeignKeyViolation(err) {
		return sentinel.ErrNotFound
	}
	return translate(err, "insert equipment")
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	e, err := scanEquipment(s.q(ctx).QueryRowContext(ctx, selectEquipment+` WHERE e.id = $1`, id))
	if err != nil {
		return nil, translate(err, "find equipment")
	}
	return e, nil
}

// FindForUpdate reads equipment and locks its row until the transaction
// ends. The client row is not locked.
func (s *PostgresStore) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	tx, ok := txcontext.From(ctx)
	if !ok {
		return nil, sentinel.ErrNoTransaction
	}
	e, err := scanEquipment(tx.QueryRowContext(ctx, selectEquipment+` WHERE e.id = $1 FOR UPDATE OF e`, id))
	if err != nil {
		return nil, translate(err, "lock equipment")
	}
	return e, nil
}

func (s *PostgresStore) List(ctx context.Context, clientID *uuid.UUID) ([]*models.Equipment, error) {
	query := selectEquipment
	var args []any
	if clientID != nil {
		query += ` WHERE e.client_id = $1`
		args = append(args, *clientID)
	}
	rows, err := s.q(ctx).QueryContext(ctx, query+` ORDER BY e.brand, e.model, e.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Equipment, 0)
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equipment: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, e *models.Equipment) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE equipment
		SET client_id = $2, brand = $3, model = $4, serial_number = $5, description = $6, updated_at = $7
		WHERE id = $1`,
		e.ID, e.ClientID, e.Brand, e.Model, e.SerialNumber, e.Description, e.UpdatedAt,
	)
	if postgres.IsForeignKeyViolation(err) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return translate(err, "update equipment")
	}
	return requireRow(res, "update equipment")
}

// Delete removes equipment. Equipment still referenced by repairs is
// rejected with a conflict.
func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete equipment")
	}
	return requireRow(res, "delete equipment")
}

func (s *PostgresStore) ClientInUse(ctx context.Context, clientID uuid.UUID) (bool, error) {
	var inUse bool
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM equipment WHERE client_id = $1)`, clientID).Scan(&inUse)
	if err != nil {
		return false, fmt.Errorf("check client equipment: %w", err)
	}
	return inUse, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
