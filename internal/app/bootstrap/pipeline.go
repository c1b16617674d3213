package bootstrap

import (
	"github.com/wolfman30/crm-lead-fusion/internal/clients"
	appconfig "github.com/wolfman30/crm-lead-fusion/internal/config"
	"github.com/wolfman30/crm-lead-fusion/internal/drafts"
	"github.com/wolfman30/crm-lead-fusion/internal/intent"
	"github.com/wolfman30/crm-lead-fusion/internal/leads"
	"github.com/wolfman30/crm-lead-fusion/internal/observability/metrics"
	"github.com/wolfman30/crm-lead-fusion/internal/pipeline"
	"github.com/wolfman30/crm-lead-fusion/internal/urgency"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

// Pipeline is the wired orchestrator plus the draft generator it uses.
type Pipeline struct {
	Orchestrator *pipeline.Orchestrator
	Drafts       *drafts.Generator
}

// BuildPipeline assembles resolvers, classifiers and the draft generator.
// pm may be nil to disable metrics.
func BuildPipeline(cfg *appconfig.Config, stores Stores, models *Models, pm *metrics.PipelineMetrics, logger *logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Default()
	}

	generatorCfg := drafts.GeneratorConfig{
		Leads:   stores.Leads,
		Orgs:    stores.Orgs,
		Clients: stores.Clients,
		LLM:     models.Generator,
		Repo:    stores.Drafts,
		Model:   models.GenerationModel,
		Logger:  logger,
	}
	pipelineCfg := pipeline.Config{
		Leads:        leads.NewResolver(stores.Leads, logger),
		Tagger:       stores.Leads,
		Clients:      clients.NewResolver(stores.Clients, logger),
		Orgs:         stores.Orgs,
		DefaultOrgID: cfg.DefaultOrgID,
		AutoDraft:    cfg.AutoDraft,
		Logger:       logger,
	}
	if stores.Archive.Enabled() {
		pipelineCfg.Archive = stores.Archive
	}
	if stores.Alerts != nil {
		pipelineCfg.Alerts = stores.Alerts
	}

	// Assigning a nil *PipelineMetrics to the interfaces would make them non-nil.
	var intentFallback intent.FallbackRecorder
	var urgencyFallback urgency.FallbackRecorder
	if pm != nil {
		intentFallback, urgencyFallback = pm, pm
		generatorCfg.Metrics = pm
		pipelineCfg.Metrics = pm
	}

	generator := drafts.NewGenerator(generatorCfg)
	pipelineCfg.Drafts = generator
	pipelineCfg.Intent = intent.NewClassifier(models.ZeroShot, cfg.IntentModelID, logger, intentFallback)
	pipelineCfg.Urgency = urgency.NewEngine(models.Sentiment, cfg.SentimentModelID, logger, urgencyFallback)

	return &Pipeline{
		Orchestrator: pipeline.NewOrchestrator(pipelineCfg),
		Drafts:       generator,
	}
}
