package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores clients in the relational database.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("clients: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const clientColumns = `id, org_id, COALESCE(name, ''), COALESCE(email, ''), COALESCE(phone, ''), COALESCE(company, ''), created_at`

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// FindByEmail returns the oldest client with the normalized email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, orgID, email string) (*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE org_id = $1 AND email = $2 ORDER BY created_at LIMIT 1`
	return r.scanOne(r.db.QueryRow(ctx, query, orgID, email))
}

// FindByPhone returns the oldest client with the normalized phone.
func (r *PostgresRepository) FindByPhone(ctx context.Context, orgID, phone string) (*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE org_id = $1 AND phone = $2 ORDER BY created_at LIMIT 1`
	return r.scanOne(r.db.QueryRow(ctx, query, orgID, phone))
}

// Create inserts a new row. A clash on (org_id, email) surfaces as ErrDuplicateClient.
func (r *PostgresRepository) Create(ctx context.Context, client *Client) (*Client, error) {
	if client.OrgID == "" {
		return nil, ErrMissingOrgID
	}
	query := `
		INSERT INTO clients (id, org_id, name, email, phone, company)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + clientColumns
	row := r.db.QueryRow(ctx, query,
		uuid.New(),
		client.OrgID,
		nullable(client.Name),
		nullable(client.Email),
		nullable(client.Phone),
		nullable(client.Company),
	)
	out, err := r.scanOne(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateClient
		}
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, filter ListFilter) ([]*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE org_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, orgID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("clients: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Client{}
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("clients: scan failed: %w", err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clients: list failed: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) CountByOrg(ctx context.Context, orgID string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE org_id = $1`, orgID).Scan(&n); err != nil {
		return 0, fmt.Errorf("clients: count failed: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) scanOne(row pgx.Row) (*Client, error) {
	var c Client
	if err := row.Scan(&c.ID, &c.OrgID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, fmt.Errorf("clients: query failed: %w", err)
		}
		return nil, fmt.Errorf("clients: select failed: %w", err)
	}
	return &c, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
