package drafts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/crm-lead-fusion/internal/clients"
	"github.com/wolfman30/crm-lead-fusion/internal/inference"
	"github.com/wolfman30/crm-lead-fusion/internal/intent"
	"github.com/wolfman30/crm-lead-fusion/internal/leads"
	"github.com/wolfman30/crm-lead-fusion/internal/orgs"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

var tracer = otel.Tracer("crm/reply-drafts")

// Draft outcomes reported to the recorder.
const (
	OutcomeGenerated = "generated"
	OutcomeSpam      = "spam"
	OutcomeFailed    = "failed"
)

// LeadReader loads the lead a draft is written for.
type LeadReader interface {
	GetByID(ctx context.Context, id string) (*leads.Lead, error)
}

// OrgReader loads the lead's organization.
type OrgReader interface {
	GetByID(ctx context.Context, id string) (*orgs.Organization, error)
}

// ClientReader loads the linked client for its name.
type ClientReader interface {
	GetByID(ctx context.Context, id string) (*clients.Client, error)
}

// Recorder receives one outcome per generation attempt.
type Recorder interface {
	ObserveDraft(outcome string)
}

// Generator builds grounded reply drafts for leads.
type Generator struct {
	leads   LeadReader
	orgs    OrgReader
	clients ClientReader
	llm     inference.TextGenerator
	repo    Repository
	model   string
	logger  *logging.Logger
	metrics Recorder
}

// GeneratorConfig bundles the generator's collaborators.
type GeneratorConfig struct {
	Leads   LeadReader
	Orgs    OrgReader
	Clients ClientReader
	LLM     inference.TextGenerator
	Repo    Repository
	Model   string
	Logger  *logging.Logger
	Metrics Recorder
}

// NewGenerator validates the wiring and returns a Generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.Leads == nil || cfg.Orgs == nil {
		panic("drafts: lead and org readers required")
	}
	if cfg.LLM == nil {
		panic("drafts: text generator required")
	}
	if cfg.Repo == nil {
		panic("drafts: repository required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Generator{
		leads:   cfg.Leads,
		orgs:    cfg.Orgs,
		clients: cfg.Clients,
		llm:     cfg.LLM,
		repo:    cfg.Repo,
		model:   cfg.Model,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

type leadContext struct {
	lead       *leads.Lead
	orgName    string
	clientName string
}

// ReplyBody returns the reply body for a lead without persisting it.
func (g *Generator) ReplyBody(ctx context.Context, leadID string) (string, error) {
	lc, err := g.fetchContext(ctx, leadID)
	if err != nil {
		return "", err
	}
	return g.body(ctx, lc)
}

// GenerateReply produces a reply for the lead and stores it as a new draft.
// Spam leads get the NoReplySpam sentinel without a model call.
func (g *Generator) GenerateReply(ctx context.Context, leadID string) (*Draft, error) {
	ctx, span := tracer.Start(ctx, "drafts.GenerateReply")
	defer span.End()
	span.SetAttributes(attribute.String("lead_id", leadID))

	lc, err := g.fetchContext(ctx, leadID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "context")
		return nil, err
	}

	body, err := g.body(ctx, lc)
	if err != nil {
		g.observe(OutcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation")
		g.logger.Warn("reply generation failed", "lead_id", leadID, "error", err)
		return nil, err
	}

	draft, err := g.repo.Create(ctx, &Draft{
		OrgID:   lc.lead.OrgID,
		LeadID:  lc.lead.ID,
		Type:    TypeReply,
		Content: Content{Body: body},
	})
	if err != nil {
		g.observe(OutcomeFailed)
		span.RecordError(err)
		return nil, fmt.Errorf("drafts: persist: %w", err)
	}

	if draft.IsSpam() {
		g.observe(OutcomeSpam)
	} else {
		g.observe(OutcomeGenerated)
	}
	span.SetAttributes(attribute.Bool("spam", draft.IsSpam()))
	g.logger.Info("reply draft created", "lead_id", lc.lead.ID, "org_id", lc.lead.OrgID, "draft_id", draft.ID)
	return draft, nil
}

func (g *Generator) body(ctx context.Context, lc *leadContext) (string, error) {
	if lc.lead.Intent == string(intent.Spam) {
		return NoReplySpam, nil
	}

	prompt := BuildUserPrompt(PromptContext{
		Intent:     lc.lead.Intent,
		Urgency:    lc.lead.Urgency,
		Sentiment:  lc.lead.Sentiment,
		OrgName:    lc.orgName,
		ClientName: lc.clientName,
		RawText:    lc.lead.RawText,
	})

	raw, err := g.llm.Generate(ctx, inference.GenerationRequest{
		Model:  g.model,
		System: SystemPrompt(),
		Prompt: prompt,
		Params: replyParams,
	})
	if err != nil {
		return "", fmt.Errorf("drafts: generate: %w", err)
	}

	body := inference.CleanGeneration(raw)
	if body == "" {
		return "", fmt.Errorf("drafts: model %q: %w", g.model, ErrEmptyGeneration)
	}
	if strings.Contains(strings.ToUpper(body), NoReplySpam) {
		return NoReplySpam, nil
	}
	return body, nil
}

func (g *Generator) fetchContext(ctx context.Context, leadID string) (*leadContext, error) {
	lead, err := g.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("drafts: load lead: %w", err)
	}
	org, err := g.orgs.GetByID(ctx, lead.OrgID)
	if err != nil {
		return nil, fmt.Errorf("drafts: load organization: %w", err)
	}

	lc := &leadContext{lead: lead, orgName: org.Name}
	if lead.ClientID != "" && g.clients != nil {
		client, err := g.clients.GetByID(ctx, lead.ClientID)
		switch {
		case err == nil:
			lc.clientName = client.Name
		case !errors.Is(err, clients.ErrClientNotFound):
			return nil, fmt.Errorf("drafts: load client: %w", err)
		}
	}
	return lc, nil
}

func (g *Generator) observe(outcome string) {
	if g.metrics != nil {
		g.metrics.ObserveDraft(outcome)
	}
}
