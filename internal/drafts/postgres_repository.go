package drafts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores drafts with a jsonb content column.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("drafts: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new draft row; existing drafts are never updated.
func (r *PostgresRepository) Create(ctx context.Context, draft *Draft) (*Draft, error) {
	if draft.LeadID == "" {
		return nil, ErrMissingLead
	}
	typ := draft.Type
	if typ == "" {
		typ = TypeReply
	}
	content, err := json.Marshal(draft.Content)
	if err != nil {
		return nil, fmt.Errorf("drafts: marshal content: %w", err)
	}

	query := `
		INSERT INTO drafts (id, org_id, lead_id, type, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, org_id, lead_id, type, content, created_at
	`
	out, err := scanDraft(r.db.QueryRow(ctx, query, uuid.New(), draft.OrgID, draft.LeadID, typ, content))
	if err != nil {
		return nil, fmt.Errorf("drafts: insert failed: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ListByLead(ctx context.Context, orgID, leadID string, filter ListFilter) ([]*Draft, error) {
	query := `
		SELECT id, org_id, lead_id, type, content, created_at
		FROM drafts
		WHERE org_id = $1 AND lead_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, orgID, leadID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("drafts: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Draft{}
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("drafts: list failed: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDraft(row pgx.Row) (*Draft, error) {
	var d Draft
	var content []byte
	if err := row.Scan(&d.ID, &d.OrgID, &d.LeadID, &d.Type, &content, &d.CreatedAt); err != nil {
		return nil, err
	}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &d.Content); err != nil {
			return nil, fmt.Errorf("decode content: %w", err)
		}
	}
	return &d, nil
}
