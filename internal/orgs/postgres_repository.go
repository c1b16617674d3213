package orgs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores organizations in the relational database.
type PostgresRepository struct {
	db rowQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("orgs: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db rowQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Organization, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrOrgNotFound
	}
	return scanOrg(r.db.QueryRow(ctx, `SELECT id, name, slug, created_at FROM organizations WHERE id = $1`, id))
}

func (r *PostgresRepository) First(ctx context.Context) (*Organization, error) {
	return scanOrg(r.db.QueryRow(ctx, `SELECT id, name, slug, created_at FROM organizations ORDER BY created_at LIMIT 1`))
}

func (r *PostgresRepository) Create(ctx context.Context, req *CreateRequest) (*Organization, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	query := `
		INSERT INTO organizations (id, name, slug)
		VALUES ($1, $2, $3)
		RETURNING id, name, slug, created_at
	`
	org, err := scanOrg(r.db.QueryRow(ctx, query, uuid.New(), req.Name, req.Slug))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("orgs: insert failed: %w", err)
	}
	return org, nil
}

func scanOrg(row pgx.Row) (*Organization, error) {
	var org Organization
	if err := row.Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("orgs: scan failed: %w", err)
	}
	return &org, nil
}
