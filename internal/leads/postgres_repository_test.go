package leads

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var leadRowColumns = []string{
	"id", "org_id", "client_id", "source", "external_id", "subject", "raw_text",
	"intent", "urgency", "urgency_score", "urgency_reasons", "sentiment", "created_at", "updated_at",
}

func TestPostgresFindByExternalID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .* FROM leads").
		WithArgs("org-1", "email", "msg-1").
		WillReturnRows(pgxmock.NewRows(leadRowColumns).AddRow(
			"lead-1", "org-1", "", "email", "msg-1", "Hello", "body",
			"sales", "high", 70, []string{"urgent_keyword"}, "neutral", now, now,
		))

	lead, err := repo.FindByExternalID(context.Background(), "org-1", "email", "msg-1")
	require.NoError(t, err)
	assert.Equal(t, "lead-1", lead.ID)
	assert.Equal(t, []string{"urgent_keyword"}, lead.UrgencyReasons)

	mock.ExpectQuery("SELECT .* FROM leads").
		WithArgs("org-1", "email", "missing").
		WillReturnRows(pgxmock.NewRows(leadRowColumns))

	_, err = repo.FindByExternalID(context.Background(), "org-1", "email", "missing")
	assert.ErrorIs(t, err, ErrLeadNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)
	now := time.Now().UTC()
	leadID := "5f0b7c1e-2d3a-4e8f-9b6c-1a2b3c4d5e6f"

	mock.ExpectQuery("SELECT .* FROM leads WHERE id").
		WithArgs(leadID).
		WillReturnRows(pgxmock.NewRows(leadRowColumns).AddRow(
			leadID, "org-1", "", "web", "", "", "body",
			"support", "low", 10, []string{}, "neutral", now, now,
		))
	lead, err := repo.GetByID(context.Background(), leadID)
	require.NoError(t, err)
	assert.Equal(t, leadID, lead.ID)

	// Not a UUID: reported as missing without reaching Postgres.
	_, err = repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrLeadNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateMapsUniqueViolation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)

	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), "org-1", pgxmock.AnyArg(), "email", pgxmock.AnyArg(), pgxmock.AnyArg(), "body").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err = repo.Create(context.Background(), &Lead{OrgID: "org-1", Source: "email", ExternalID: "m", RawText: "body"})
	assert.ErrorIs(t, err, ErrDuplicateExternalID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateClassification(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)
	reasons := []string{"urgent_keyword", "week_deadline"}

	mock.ExpectExec("UPDATE leads").
		WithArgs("lead-1", "sales", "high", 80, reasons, "negative").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.UpdateClassification(context.Background(), "lead-1", Classification{
		Intent: "sales", Urgency: "high", UrgencyScore: 80, UrgencyReasons: reasons, Sentiment: "negative",
	})
	require.NoError(t, err)

	mock.ExpectExec("UPDATE leads").
		WithArgs("lead-2", "spam", "low", 10, []string{}, "positive").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdateClassification(context.Background(), "lead-2", Classification{
		Intent: "spam", Urgency: "low", UrgencyScore: 10, Sentiment: "positive",
	})
	assert.ErrorIs(t, err, ErrLeadNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)
	since := time.Now().Add(-30 * 24 * time.Hour)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\), COUNT\\(\\*\\) FILTER").
		WithArgs("org-1", since).
		WillReturnRows(pgxmock.NewRows([]string{"total", "recent"}).AddRow(5, 2))
	mock.ExpectQuery("SELECT intent, COUNT\\(\\*\\)").
		WithArgs("org-1").
		WillReturnRows(pgxmock.NewRows([]string{"intent", "count"}).AddRow("sales", 3).AddRow("spam", 2))
	mock.ExpectQuery("SELECT urgency, COUNT\\(\\*\\)").
		WithArgs("org-1").
		WillReturnRows(pgxmock.NewRows([]string{"urgency", "count"}).AddRow("high", 1))

	stats, err := repo.Stats(context.Background(), "org-1", since)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.Recent)
	assert.Equal(t, map[string]int{"sales": 3, "spam": 2}, stats.ByIntent)
	assert.Equal(t, map[string]int{"high": 1}, stats.ByUrgency)

	require.NoError(t, mock.ExpectationsWereMet())
}
