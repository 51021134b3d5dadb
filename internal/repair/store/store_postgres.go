package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ItsLhuis/mxt-sub001/internal/platform/postgres"
	"github.com/ItsLhuis/mxt-sub001/internal/repair/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
	txcontext "github.com/ItsLhuis/mxt-sub001/pkg/platform/tx"
)

// PostgresStore persists repairs and reads the status and accessory
// catalog. Accessories are stored as an id array; names come from the
// catalog.
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

func (s *PostgresStore) Statuses(ctx context.Context) ([]models.Status, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT id, name, position FROM repair_statuses ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()
	var out []models.Status
	for rows.Next() {
		var st models.Status
		if err := rows.Scan(&st.ID, &st.Name, &st.Position); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Accessories(ctx context.Context) ([]models.Accessory, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT id, name FROM accessories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list accessories: %w", err)
	}
	defer rows.Close()
	var out []models.Accessory
	for rows.Next() {
		var a models.Accessory
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("scan accessory: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const repairColumns = `id, equipment_id, status_id, accessory_ids, reported_issues, diagnosis,
	estimated_cost, urgent, entry_date, created_at, updated_at`

func scanRepair(row interface{ Scan(...any) error }) (*models.Repair, error) {
	var (
		r           models.Repair
		accessories []string
		issues      []string
		diagnosis   sql.NullString
		cost        sql.NullFloat64
	)
	err := row.Scan(&r.ID, &r.EquipmentID, &r.StatusID, pq.Array(&accessories), pq.Array(&issues),
		&diagnosis, &cost, &r.Urgent, &r.EntryDate, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Accessories = make([]models.Accessory, 0, len(accessories))
	for _, raw := range accessories {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse accessory id: %w", err)
		}
		r.Accessories = append(r.Accessories, models.Accessory{ID: id})
	}
	r.ReportedIssues = issues
	if r.ReportedIssues == nil {
		r.ReportedIssues = []string{}
	}
	if diagnosis.Valid {
		r.Diagnosis = &diagnosis.String
	}
	if cost.Valid {
		r.EstimatedCost = &cost.Float64
	}
	r.EntryDate = r.EntryDate.UTC()
	return &r, nil
}

func accessoryArray(r *models.Repair) any {
	ids := make([]string, len(r.Accessories))
	for i, a := range r.Accessories {
		ids[i] = a.ID.String()
	}
	return pq.Array(ids)
}

func issuesArray(r *models.Repair) any {
	issues := r.ReportedIssues
	if issues == nil {
		issues = []string{}
	}
	return pq.Array(issues)
}

// Create inserts a repair. Unknown equipment is reported as not found.
func (s *PostgresStore) Create(ctx context.Context, r *models.Repair) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO repairs (`+repairColumns+`)
		VALUES ($1, $2, $3, $4::uuid[], $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.EquipmentID, r.StatusID, accessoryArray(r), issuesArray(r), r.Diagnosis,
		r.EstimatedCost, r.Urgent, r.EntryDate, r.CreatedAt, r.UpdatedAt,
	)
	if postgres.IsForeignKeyViolation(err) {
		return sentinel.ErrNotFound
	}
	return translate(err, "insert repair")
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Repair, error) {
	r, err := scanRepair(s.q(ctx).QueryRowContext(ctx,
		`SELECT `+repairColumns+` FROM repairs WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "find repair")
	}
	return r, nil
}

// FindForUpdate reads a repair and locks its row until the transaction
// ends.
func (s *PostgresStore) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Repair, error) {
	tx, ok := txcontext.From(ctx)
	if !ok {
		return nil, sentinel.ErrNoTransaction
	}
	r, err := scanRepair(tx.QueryRowContext(ctx,
		`SELECT `+repairColumns+` FROM repairs WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, translate(err, "lock repair")
	}
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context, equipmentID *uuid.UUID) ([]*models.Repair, error) {
	query := `SELECT ` + repairColumns + ` FROM repairs`
	var args []any
	if equipmentID != nil {
		query += ` WHERE equipment_id = $1`
		args = append(args, *equipmentID)
	}
	rows, err := s.q(ctx).QueryContext(ctx, query+` ORDER BY entry_date DESC, created_at DESC, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list repairs: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Repair, 0)
	for rows.Next() {
		r, err := scanRepair(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repair: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repairs: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, r *models.Repair) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE repairs
		SET equipment_id = $2, status_id = $3, accessory_ids = $4::uuid[], reported_issues = $5,
			diagnosis = $6, estimated_cost = $7, urgent = $8, entry_date = $9, updated_at = $10
		WHERE id = $1`,
		r.ID, r.EquipmentID, r.StatusID, accessoryArray(r), issuesArray(r),
		r.Diagnosis, r.EstimatedCost, r.Urgent, r.EntryDate, r.UpdatedAt,
	)
	if postgres.IsForeignKeyViolation(err) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return translate(err, "update repair")
	}
	return requireRow(res, "update repair")
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM repairs WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete repair")
	}
	return requireRow(res, "delete repair")
}

func (s *PostgresStore) EquipmentInUse(ctx context.Context, equipmentID uuid.UUID) (bool, error) {
	var inUse bool
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM repairs WHERE equipment_id = $1)`, equipmentID).Scan(&inUse)
	if err != nil {
		return false, fmt.Errorf("check equipment repairs: %w", err)
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
