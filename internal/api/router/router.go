package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/crm-lead-fusion/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/crm-lead-fusion/internal/http/middleware"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	InboundHandler     *handlers.InboundHandler
	DraftsHandler      *handlers.DraftsHandler
	AdminHandler       *handlers.AdminHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// RateLimiter throttles /inbound per client IP; nil disables limiting.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Inbound ingestion: the org comes from X-Org-Id, the body, or the default org.
	if cfg.InboundHandler != nil {
		r.Route("/inbound", func(in chi.Router) {
			in.Use(optionalOrgID)
			if cfg.RateLimiter != nil {
				in.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
			}
			in.Post("/", cfg.InboundHandler.Handle)
			if cfg.InboundHandler.AsyncEnabled() {
				in.Post("/async", cfg.InboundHandler.HandleAsync)
				in.Get("/jobs/{jobID}", cfg.InboundHandler.GetJob)
			}
		})
	}

	// Tenant-scoped API routes
	if cfg.DraftsHandler != nil {
		r.Group(func(tenant chi.Router) {
			tenant.Use(requireOrgID)
			tenant.Post("/leads/{leadID}/drafts", cfg.DraftsHandler.Create)
		})
	}

	// Admin routes (protected by JWT)
	if cfg.AdminHandler != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Post("/orgs", cfg.AdminHandler.CreateOrg)
			admin.Route("/orgs/{orgID}", func(org chi.Router) {
				org.Get("/", cfg.AdminHandler.GetOrg)
				org.Get("/leads", cfg.AdminHandler.ListLeads)
				org.Get("/leads/{leadID}/drafts", cfg.AdminHandler.ListDrafts)
				org.Get("/clients", cfg.AdminHandler.ListClients)
				org.Get("/stats", cfg.AdminHandler.Stats)
			})
		})
	}

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
