package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/internal/client/models"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/descriptor"
	"github.com/ItsLhuis/mxt-sub001/internal/platform/postgres"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
	txcontext "github.com/ItsLhuis/mxt-sub001/pkg/platform/tx"
)

// PostgresStore persists clients and contacts. Queries join the
// transaction carried by the context when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) q(ctx context.Context) txcontext.Querier {
	return txcontext.QuerierFrom(ctx, s.db)
}

// translate maps constraint violations to sentinel errors.
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

const clientColumns = `id, name, description, created_at, updated_at`

func scanClient(row interface{ Scan(...any) error }) (*models.Client, error) {
	var c models.Client
	var desc sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &desc, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		c.Description = &desc.String
	}
	return &c, nil
}

func (s *PostgresStore) Create(ctx context.Context, c *models.Client) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO clients (`+clientColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt,
	)
	return translate(err, "insert client")
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	c, err := scanClient(s.q(ctx).QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "find client")
	}
	return c, nil
}

// FindForUpdate reads the client and locks its row until the transaction
// ends.
func (s *PostgresStore) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	tx, ok := txcontext.From(ctx)
	if !ok {
		return nil, sentinel.ErrNoTransaction
	}
	c, err := scanClient(tx.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, translate(err, "lock client")
	}
	return c, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Client, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, c *models.Client) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE clients SET name = $2, description = $3, updated_at = $4 WHERE id = $1`,
		c.ID, c.Name, c.Description, c.UpdatedAt,
	)
	if err != nil {
		return translate(err, "update client")
	}
	return requireRow(res, "update client")
}

// Delete removes a client. Clients still referenced by contacts or
// equipment are rejected with a conflict.
func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete client")
	}
	return requireRow(res, "delete client")
}

const contactColumns = `id, client_id, kind, value, created_at, updated_at`

func scanContact(row interface{ Scan(...any) error }) (*models.Contact, error) {
	var ct models.Contact
	var kind string
	if err := row.Scan(&ct.ID, &ct.ClientID, &kind, &ct.Value, &ct.CreatedAt, &ct.UpdatedAt); err != nil {
		return nil, err
	}
	ct.Kind = models.ContactKind(kind)
	return &ct, nil
}

func (s *PostgresStore) CreateContact(ctx context.Context, ct *models.Contact) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO client_contacts (id, client_id, kind, value, normalized_value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ct.ID, ct.ClientID, string(ct.Kind), ct.Value, descriptor.NormalizeContact(ct.Value), ct.CreatedAt, ct.UpdatedAt,
	)
	if postgres.IsForeignKeyViolation(err) {
		return sentinel.ErrNotFound
	}
	return translate(err, "insert contact")
}

func (s *PostgresStore) FindContact(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	ct, err := scanContact(s.q(ctx).QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM client_contacts WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "find contact")
	}
	return ct, nil
}

func (s *PostgresStore) FindContactForUpdate(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	tx, ok := txcontext.From(ctx)
	if !ok {
		return nil, sentinel.ErrNoTransaction
	}
	ct, err := scanContact(tx.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM client_contacts WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, translate(err, "lock contact")
	}
	return ct, nil
}

func (s *PostgresStore) ListContacts(ctx context.Context, clientID uuid.UUID) ([]*models.Contact, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+contactColumns+` FROM client_contacts WHERE client_id = $1 ORDER BY created_at, id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Contact, 0)
	for rows.Next() {
		ct, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateContact(ctx context.Context, ct *models.Contact) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE client_contacts
		SET kind = $2, value = $3, normalized_value = $4, updated_at = $5
		WHERE id = $1`,
		ct.ID, string(ct.Kind), ct.Value, descriptor.NormalizeContact(ct.Value), ct.UpdatedAt,
	)
	if err != nil {
		return translate(err, "update contact")
	}
	return requireRow(res, "update contact")
}

func (s *PostgresStore) DeleteContact(ctx context.Context, id uuid.UUID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM client_contacts WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete contact")
	}
	return requireRow(res, "delete contact")
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
