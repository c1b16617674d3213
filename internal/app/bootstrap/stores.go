package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/crm-lead-fusion/internal/archive"
	"github.com/wolfman30/crm-lead-fusion/internal/clients"
	appconfig "github.com/wolfman30/crm-lead-fusion/internal/config"
	"github.com/wolfman30/crm-lead-fusion/internal/drafts"
	"github.com/wolfman30/crm-lead-fusion/internal/leads"
	"github.com/wolfman30/crm-lead-fusion/internal/notify"
	"github.com/wolfman30/crm-lead-fusion/internal/orgs"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

// Stores groups the repositories shared by the API and the worker.
type Stores struct {
	Orgs    orgs.Repository
	Leads   leads.Repository
	Clients clients.Repository
	Drafts  drafts.Repository
	// Archive is nil unless ARCHIVE_BUCKET is set.
	Archive *archive.Store
	// Alerts is nil unless ALERT_EMAIL_TO is set.
	Alerts *notify.Alerter
}

// BuildStores returns Postgres repositories when a pool is available and
// process-local ones otherwise.
func BuildStores(pool *pgxpool.Pool, logger *logging.Logger) Stores {
	if pool == nil {
		if logger != nil {
			logger.Warn("DATABASE_URL not set; using in-memory stores")
		}
		return Stores{
			Orgs:    orgs.NewInMemoryRepository(),
			Leads:   leads.NewInMemoryRepository(),
			Clients: clients.NewInMemoryRepository(),
			Drafts:  drafts.NewInMemoryRepository(),
		}
	}
	return Stores{
		Orgs:    orgs.NewPostgresRepository(pool),
		Leads:   leads.NewPostgresRepository(pool),
		Clients: clients.NewPostgresRepository(pool),
		Drafts:  drafts.NewPostgresRepository(pool),
	}
}

// BuildArchive returns the S3 lead archive, or nil when no bucket is configured.
func BuildArchive(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) *archive.Store {
	bucket := strings.TrimSpace(cfg.ArchiveBucket)
	if bucket == "" {
		return nil
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.AWSEndpointOverride != ""
	})
	if logger != nil {
		logger.Info("lead archive enabled", "bucket", bucket)
	}
	return archive.NewStore(client, bucket, logger)
}
