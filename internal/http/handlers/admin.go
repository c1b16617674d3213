package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/crm-lead-fusion/internal/clients"
	"github.com/wolfman30/crm-lead-fusion/internal/drafts"
	"github.com/wolfman30/crm-lead-fusion/internal/leads"
	"github.com/wolfman30/crm-lead-fusion/internal/orgs"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

// recentWindow is the look-back for the recentLeads dashboard counter.
const recentWindow = 30 * 24 * time.Hour

// AdminConfig wires the stores read by the admin API.
type AdminConfig struct {
	Orgs    orgs.Repository
	Leads   leads.Repository
	Clients clients.Repository
	Drafts  drafts.Repository
	Logger  *logging.Logger
}

// AdminHandler serves organization management, listings and dashboard stats.
type AdminHandler struct {
	orgs    orgs.Repository
	leads   leads.Repository
	clients clients.Repository
	drafts  drafts.Repository
	logger  *logging.Logger
	now     func() time.Time
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(cfg AdminConfig) *AdminHandler {
	if cfg.Orgs == nil || cfg.Leads == nil || cfg.Clients == nil || cfg.Drafts == nil {
		panic("handlers: admin handler requires org, lead, client and draft stores")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &AdminHandler{
		orgs:    cfg.Orgs,
		leads:   cfg.Leads,
		clients: cfg.Clients,
		drafts:  cfg.Drafts,
		logger:  cfg.Logger,
		now:     time.Now,
	}
}

// StatsResponse is the dashboard summary for one organization.
type StatsResponse struct {
	Clients int `json:"clients"`
	*leads.Stats
}

// CreateOrg registers an organization.
// POST /admin/orgs
func (h *AdminHandler) CreateOrg(w http.ResponseWriter, r *http.Request) {
	var req orgs.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	org, err := h.orgs.Create(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("organization created", "org_id", org.ID, "slug", org.Slug)
	writeJSON(w, http.StatusCreated, org)
}

// GetOrg returns one organization.
// GET /admin/orgs/{orgID}
func (h *AdminHandler) GetOrg(w http.ResponseWriter, r *http.Request) {
	org, err := h.orgs.GetByID(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

// ListLeads pages the leads of an organization, newest first.
// GET /admin/orgs/{orgID}/leads?intent=&limit=&offset=
func (h *AdminHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	rows, err := h.leads.ListByOrg(r.Context(), chi.URLParam(r, "orgID"), leads.ListFilter{
		Limit:  limit,
		Offset: offset,
		Intent: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("intent"))),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if rows == nil {
		rows = []*leads.Lead{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": rows, "limit": limit, "offset": offset})
}

// ListClients pages the clients of an organization.
// GET /admin/orgs/{orgID}/clients?limit=&offset=
func (h *AdminHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	rows, err := h.clients.ListByOrg(r.Context(), chi.URLParam(r, "orgID"), clients.ListFilter{Limit: limit, Offset: offset})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if rows == nil {
		rows = []*clients.Client{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": rows, "limit": limit, "offset": offset})
}

// ListDrafts returns the drafts stored for a lead.
// GET /admin/orgs/{orgID}/leads/{leadID}/drafts?limit=&offset=
func (h *AdminHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	lead, err := h.leads.GetByID(r.Context(), chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if lead.OrgID != orgID {
		writeError(w, h.logger, leads.ErrLeadNotFound)
		return
	}

	limit, offset := pageParams(r)
	rows, err := h.drafts.ListByLead(r.Context(), orgID, lead.ID, drafts.ListFilter{Limit: limit, Offset: offset})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if rows == nil {
		rows = []*drafts.Draft{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"drafts": rows, "limit": limit, "offset": offset})
}

// Stats returns client and lead counters for the dashboard.
// GET /admin/orgs/{orgID}/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	clientCount, err := h.clients.CountByOrg(r.Context(), orgID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	leadStats, err := h.leads.Stats(r.Context(), orgID, h.now().Add(-recentWindow))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Clients: clientCount, Stats: leadStats})
}
