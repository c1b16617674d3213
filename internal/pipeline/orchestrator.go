package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/crm-lead-fusion/internal/archive"
	"github.com/wolfman30/crm-lead-fusion/internal/clients"
	"github.com/wolfman30/crm-lead-fusion/internal/drafts"
	"github.com/wolfman30/crm-lead-fusion/internal/inference"
	"github.com/wolfman30/crm-lead-fusion/internal/intent"
	"github.com/wolfman30/crm-lead-fusion/internal/leads"
	"github.com/wolfman30/crm-lead-fusion/internal/notify"
	"github.com/wolfman30/crm-lead-fusion/internal/orgs"
	"github.com/wolfman30/crm-lead-fusion/internal/urgency"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

// previewLength bounds the message text echoed back in a Result.
const previewLength = 500

// IntentClassifier labels a message; it never fails.
type IntentClassifier interface {
	Classify(ctx context.Context, text string) intent.Label
}

// UrgencyAssessor scores a message; it never fails.
type UrgencyAssessor interface {
	Assess(ctx context.Context, text string) urgency.Assessment
}

// LeadResolver finds or creates the lead for a delivery.
type LeadResolver interface {
	Resolve(ctx context.Context, in leads.ResolveInput) (*leads.Lead, error)
}

// LeadTagger writes classification results and client links onto a lead.
type LeadTagger interface {
	UpdateClassification(ctx context.Context, id string, c leads.Classification) error
	LinkClient(ctx context.Context, id, clientID string) error
}

// ClientResolver deduplicates a contact into a client id.
type ClientResolver interface {
	Resolve(ctx context.Context, orgID string, contact clients.Contact) (string, error)
}

// DraftGenerator writes a reply draft for a lead.
type DraftGenerator interface {
	GenerateReply(ctx context.Context, leadID string) (*drafts.Draft, error)
}

// OrgLocator supplies the fallback organization when a message names none.
type OrgLocator interface {
	First(ctx context.Context) (*orgs.Organization, error)
}

// LeadArchiver stores a scrubbed snapshot of a tagged lead.
type LeadArchiver interface {
	ArchiveLead(ctx context.Context, rec *archive.LeadRecord) error
}

// UrgentNotifier alerts a human about a high urgency lead.
type UrgentNotifier interface {
	NotifyUrgentLead(ctx context.Context, alert notify.LeadAlert) error
}

// Recorder receives pipeline observations.
type Recorder interface {
	ObserveInbound(source, intent, urgency string)
	ObserveStage(stage string, d time.Duration)
}

// Result is the composite outcome of one inbound message.
type Result struct {
	OK             bool              `json:"ok"`
	LeadID         string            `json:"leadId"`
	ClientID       string            `json:"clientId,omitempty"`
	Intent         intent.Label      `json:"intent"`
	Urgency        urgency.Band      `json:"urgency"`
	UrgencyScore   int               `json:"urgency_score"`
	UrgencyReasons []string          `json:"urgency_reasons"`
	Sentiment      urgency.Sentiment `json:"sentiment"`
	Subject        string            `json:"subject,omitempty"`
	Text           string            `json:"text"`
	Draft          *drafts.Draft     `json:"draft,omitempty"`
	DraftError     string            `json:"draft_error,omitempty"`
}

// Config bundles the orchestrator's collaborators.
type Config struct {
	Leads        LeadResolver
	Tagger       LeadTagger
	Clients      ClientResolver
	Intent       IntentClassifier
	Urgency      UrgencyAssessor
	Drafts       DraftGenerator
	Orgs         OrgLocator
	DefaultOrgID string
	AutoDraft    bool
	Archive      LeadArchiver
	Alerts       UrgentNotifier
	Logger       *logging.Logger
	Metrics      Recorder
}

// Orchestrator runs one inbound message through resolution, classification
// and optional drafting.
type Orchestrator struct {
	leads        LeadResolver
	tagger       LeadTagger
	clients      ClientResolver
	intent       IntentClassifier
	urgency      UrgencyAssessor
	drafts       DraftGenerator
	orgs         OrgLocator
	defaultOrgID string
	autoDraft    bool
	archive      LeadArchiver
	alerts       UrgentNotifier
	logger       *logging.Logger
	metrics      Recorder
}

// NewOrchestrator validates the wiring and returns an Orchestrator.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.Leads == nil || cfg.Tagger == nil {
		panic("pipeline: lead resolver and tagger required")
	}
	if cfg.Intent == nil || cfg.Urgency == nil {
		panic("pipeline: intent classifier and urgency assessor required")
	}
	if cfg.Clients == nil {
		panic("pipeline: client resolver required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Orchestrator{
		leads:        cfg.Leads,
		tagger:       cfg.Tagger,
		clients:      cfg.Clients,
		intent:       cfg.Intent,
		urgency:      cfg.Urgency,
		drafts:       cfg.Drafts,
		orgs:         cfg.Orgs,
		defaultOrgID: strings.TrimSpace(cfg.DefaultOrgID),
		autoDraft:    cfg.AutoDraft,
		archive:      cfg.Archive,
		alerts:       cfg.Alerts,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

// Prepare normalizes and validates msg and fills in the organization.
func (o *Orchestrator) Prepare(ctx context.Context, msg *Message) error {
	msg.Normalize()
	if err := msg.Validate(); err != nil {
		return err
	}
	if msg.OrgID != "" {
		return nil
	}
	if o.defaultOrgID != "" {
		msg.OrgID = o.defaultOrgID
		return nil
	}
	if o.orgs != nil {
		org, err := o.orgs.First(ctx)
		switch {
		case err == nil:
			msg.OrgID = org.ID
			return nil
		case !errors.Is(err, orgs.ErrOrgNotFound):
			return fmt.Errorf("pipeline: default organization: %w", err)
		}
	}
	return ErrMissingOrgID
}

// HandleInbound resolves the lead, classifies the text with both classifiers
// in parallel, persists the tags in one update, links the contact and drafts
// a reply when requested. Only resolution and tag persistence abort the run.
func (o *Orchestrator) HandleInbound(ctx context.Context, msg Message) (*Result, error) {
	if err := o.Prepare(ctx, &msg); err != nil {
		return nil, err
	}

	start := time.Now()
	lead, err := o.leads.Resolve(ctx, leads.ResolveInput{
		OrgID:      msg.OrgID,
		Source:     string(msg.Source),
		ExternalID: msg.ExternalID,
		Subject:    msg.Subject,
		RawText:    msg.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: resolve lead: %w", err)
	}
	o.observeStage("resolve_lead", start)

	start = time.Now()
	var (
		label      intent.Label
		assessment urgency.Assessment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		label = o.intent.Classify(gctx, msg.Text)
		return nil
	})
	g.Go(func() error {
		assessment = o.urgency.Assess(gctx, msg.Text)
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: classify: %w", err)
	}
	o.observeStage("classify", start)

	reasons := assessment.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	start = time.Now()
	err = o.tagger.UpdateClassification(ctx, lead.ID, leads.Classification{
		Intent:         string(label),
		Urgency:        string(assessment.Urgency),
		UrgencyScore:   assessment.Score,
		UrgencyReasons: reasons,
		Sentiment:      string(assessment.Sentiment),
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: persist tags: %w", err)
	}
	o.observeStage("persist_tags", start)

	result := &Result{
		OK:             true,
		LeadID:         lead.ID,
		ClientID:       lead.ClientID,
		Intent:         label,
		Urgency:        assessment.Urgency,
		UrgencyScore:   assessment.Score,
		UrgencyReasons: reasons,
		Sentiment:      assessment.Sentiment,
		Subject:        msg.Subject,
		Text:           inference.Truncate(msg.Text, previewLength),
	}

	if msg.HasContact() {
		if clientID, ok := o.linkContact(ctx, lead.ID, msg); ok {
			result.ClientID = clientID
		}
	}

	if o.drafts != nil && (o.autoDraft || msg.Draft) {
		start = time.Now()
		draft, err := o.drafts.GenerateReply(ctx, lead.ID)
		if err != nil {
			o.logger.Warn("auto draft failed", "lead_id", lead.ID, "error", err)
			result.DraftError = err.Error()
		} else {
			result.Draft = draft
		}
		o.observeStage("draft", start)
	}

	if o.archive != nil {
		o.archiveLead(ctx, msg, result)
	}

	if o.alerts != nil && result.Urgency == urgency.High && result.Intent != intent.Spam {
		o.alertUrgent(ctx, msg, result)
	}

	if o.metrics != nil {
		o.metrics.ObserveInbound(string(msg.Source), string(label), string(assessment.Urgency))
	}
	o.logger.Info("inbound processed",
		"lead_id", lead.ID,
		"org_id", msg.OrgID,
		"source", msg.Source,
		"intent", label,
		"urgency", assessment.Urgency,
		"urgency_score", assessment.Score,
	)
	return result, nil
}

// linkContact resolves the contact and links it; failures are logged only.
func (o *Orchestrator) linkContact(ctx context.Context, leadID string, msg Message) (string, bool) {
	start := time.Now()
	defer o.observeStage("link_client", start)

	clientID, err := o.clients.Resolve(ctx, msg.OrgID, *msg.Contact)
	if err != nil {
		o.logger.Warn("contact resolution failed", "lead_id", leadID, "org_id", msg.OrgID, "error", err)
		return "", false
	}
	if clientID == "" {
		return "", false
	}
	if err := o.tagger.LinkClient(ctx, leadID, clientID); err != nil {
		o.logger.Warn("client link failed", "lead_id", leadID, "client_id", clientID, "error", err)
		return "", false
	}
	return clientID, true
}

// archiveLead writes the lead snapshot; failures are logged only.
func (o *Orchestrator) archiveLead(ctx context.Context, msg Message, result *Result) {
	start := time.Now()
	defer o.observeStage("archive", start)

	rec := &archive.LeadRecord{
		LeadID:         result.LeadID,
		OrgID:          msg.OrgID,
		ClientID:       result.ClientID,
		Source:         string(msg.Source),
		Subject:        msg.Subject,
		Text:           msg.Text,
		Intent:         string(result.Intent),
		Urgency:        string(result.Urgency),
		UrgencyScore:   result.UrgencyScore,
		UrgencyReasons: result.UrgencyReasons,
		Sentiment:      string(result.Sentiment),
	}
	if msg.Contact != nil {
		rec.ContactHash = archive.HashContact(msg.Contact.Email, msg.Contact.Phone)
	}
	if err := o.archive.ArchiveLead(ctx, rec); err != nil {
		o.logger.Warn("lead archive failed", "lead_id", result.LeadID, "error", err)
	}
}

// alertUrgent emails the lead to the on-call inbox; failures are logged only.
func (o *Orchestrator) alertUrgent(ctx context.Context, msg Message, result *Result) {
	start := time.Now()
	defer o.observeStage("alert", start)

	alert := notify.LeadAlert{
		LeadID:       result.LeadID,
		OrgID:        msg.OrgID,
		Source:       string(msg.Source),
		Intent:       string(result.Intent),
		Urgency:      string(result.Urgency),
		UrgencyScore: result.UrgencyScore,
		Reasons:      result.UrgencyReasons,
		Subject:      msg.Subject,
		Text:         msg.Text,
	}
	if msg.Contact != nil {
		alert.ContactName = msg.Contact.Name
		alert.ContactEmail = msg.Contact.Email
		alert.ContactPhone = msg.Contact.Phone
	}
	if err := o.alerts.NotifyUrgentLead(ctx, alert); err != nil {
		o.logger.Warn("urgent lead alert failed", "lead_id", result.LeadID, "error", err)
	}
}

func (o *Orchestrator) observeStage(stage string, start time.Time) {
	if o.metrics != nil {
		o.metrics.ObserveStage(stage, time.Since(start))
	}
}
