package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const leadColumns = `
	id, org_id, COALESCE(client_id::text, ''), source, COALESCE(external_id, ''),
	COALESCE(subject, ''), raw_text, COALESCE(intent, ''), COALESCE(urgency, ''),
	COALESCE(urgency_score, 0), COALESCE(urgency_reasons, '{}'), COALESCE(sentiment, ''),
	created_at, updated_at`

// GetByID fetches a lead by id. Ids that are not UUIDs cannot exist.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrLeadNotFound
	}
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	return scanLead(r.db.QueryRow(ctx, query, id))
}

// FindByExternalID looks up the lead for an upstream delivery id.
func (r *PostgresRepository) FindByExternalID(ctx context.Context, orgID, source, externalID string) (*Lead, error) {
	query := `SELECT ` + leadColumns + `
		FROM leads
		WHERE org_id = $1 AND source = $2 AND external_id = $3`
	return scanLead(r.db.QueryRow(ctx, query, orgID, source, externalID))
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, lead *Lead) (*Lead, error) {
	if lead.OrgID == "" {
		return nil, ErrMissingOrgID
	}

	query := `
		INSERT INTO leads (id, org_id, client_id, source, external_id, subject, raw_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + leadColumns
	out, err := scanLead(r.db.QueryRow(ctx, query,
		uuid.New(),
		lead.OrgID,
		nullable(lead.ClientID),
		lead.Source,
		nullable(lead.ExternalID),
		nullable(lead.Subject),
		lead.RawText,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateExternalID
		}
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}
	return out, nil
}

// UpdateContent overwrites subject and raw text. A blank client id keeps the existing link.
func (r *PostgresRepository) UpdateContent(ctx context.Context, id string, in ResolveInput) (*Lead, error) {
	query := `
		UPDATE leads
		SET subject = $2, raw_text = $3, client_id = COALESCE($4::uuid, client_id), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + leadColumns
	out, err := scanLead(r.db.QueryRow(ctx, query, id, nullable(in.Subject), in.RawText, nullable(in.ClientID)))
	if err != nil && !errors.Is(err, ErrLeadNotFound) {
		return nil, fmt.Errorf("leads: update failed: %w", err)
	}
	return out, err
}

// UpdateClassification writes every tag in a single statement.
func (r *PostgresRepository) UpdateClassification(ctx context.Context, id string, c Classification) error {
	if c.UrgencyScore < 0 || c.UrgencyScore > 100 {
		return ErrScoreOutOfRange
	}
	reasons := c.UrgencyReasons
	if reasons == nil {
		reasons = []string{}
	}
	query := `
		UPDATE leads
		SET intent = $2, urgency = $3, urgency_score = $4, urgency_reasons = $5, sentiment = $6, updated_at = NOW()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, c.Intent, c.Urgency, c.UrgencyScore, reasons, c.Sentiment)
	if err != nil {
		return fmt.Errorf("leads: classify update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func (r *PostgresRepository) LinkClient(ctx context.Context, id, clientID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE leads SET client_id = $2, updated_at = NOW() WHERE id = $1`, id, clientID)
	if err != nil {
		return fmt.Errorf("leads: link client failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// ListByOrg returns the newest leads first.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, filter ListFilter) ([]*Lead, error) {
	query := `SELECT ` + leadColumns + `
		FROM leads
		WHERE org_id = $1 AND ($2 = '' OR intent = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.db.Query(ctx, query, orgID, filter.Intent, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	return out, nil
}

// Stats counts leads for the dashboard.
func (r *PostgresRepository) Stats(ctx context.Context, orgID string, since time.Time) (*Stats, error) {
	stats := &Stats{ByIntent: map[string]int{}, ByUrgency: map[string]int{}}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE created_at >= $2)
		FROM leads
		WHERE org_id = $1`, orgID, since).Scan(&stats.Total, &stats.Recent)
	if err != nil {
		return nil, fmt.Errorf("leads: count failed: %w", err)
	}

	if err := r.countBy(ctx, "intent", orgID, stats.ByIntent); err != nil {
		return nil, err
	}
	if err := r.countBy(ctx, "urgency", orgID, stats.ByUrgency); err != nil {
		return nil, err
	}
	return stats, nil
}

// countBy groups on a fixed column name; never pass user input as column.
func (r *PostgresRepository) countBy(ctx context.Context, column, orgID string, into map[string]int) error {
	query := fmt.Sprintf(`
		SELECT %[1]s, COUNT(*)
		FROM leads
		WHERE org_id = $1 AND %[1]s IS NOT NULL
		GROUP BY %[1]s`, column)
	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return fmt.Errorf("leads: count by %s failed: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("leads: count by %s failed: %w", column, err)
		}
		into[key] = n
	}
	return rows.Err()
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	if err := row.Scan(
		&lead.ID,
		&lead.OrgID,
		&lead.ClientID,
		&lead.Source,
		&lead.ExternalID,
		&lead.Subject,
		&lead.RawText,
		&lead.Intent,
		&lead.Urgency,
		&lead.UrgencyScore,
		&lead.UrgencyReasons,
		&lead.Sentiment,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: scan failed: %w", err)
	}
	return &lead, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
