package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/crm-lead-fusion/internal/drafts"
	"github.com/wolfman30/crm-lead-fusion/internal/leads"
	"github.com/wolfman30/crm-lead-fusion/internal/pipeline"
	"github.com/wolfman30/crm-lead-fusion/internal/tenancy"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

// ReplyDrafter generates and stores a reply draft for a lead.
type ReplyDrafter interface {
	GenerateReply(ctx context.Context, leadID string) (*drafts.Draft, error)
}

// LeadGetter loads a lead by id.
type LeadGetter interface {
	GetByID(ctx context.Context, id string) (*leads.Lead, error)
}

// DraftsHandler exposes on-demand reply drafting.
type DraftsHandler struct {
	drafter ReplyDrafter
	leads   LeadGetter
	logger  *logging.Logger
}

// NewDraftsHandler creates a drafts handler.
func NewDraftsHandler(drafter ReplyDrafter, leadStore LeadGetter, logger *logging.Logger) *DraftsHandler {
	if drafter == nil || leadStore == nil {
		panic("handlers: drafter and lead store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DraftsHandler{drafter: drafter, leads: leadStore, logger: logger}
}

// Create generates a reply for a lead of the calling org.
// POST /leads/{leadID}/drafts
func (h *DraftsHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, pipeline.ErrMissingOrgID)
		return
	}
	leadID := chi.URLParam(r, "leadID")

	// Leads of other orgs are reported as missing.
	lead, err := h.leads.GetByID(r.Context(), leadID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if lead.OrgID != orgID {
		writeError(w, h.logger, leads.ErrLeadNotFound)
		return
	}

	draft, err := h.drafter.GenerateReply(r.Context(), lead.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}
