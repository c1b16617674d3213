package router

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wolfman30/crm-lead-fusion/internal/tenancy"
)

const orgHeader = "X-Org-Id"

// requireOrgID middleware enforces multi-tenancy headers for API requests.
func requireOrgID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID := strings.TrimSpace(r.Header.Get(orgHeader))
		if orgID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing X-Org-Id"})
			return
		}
		ctx := tenancy.WithOrgID(r.Context(), orgID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalOrgID stores X-Org-Id when sent; inbound messages may also name
// their org in the body or fall back to the default organization.
func optionalOrgID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if orgID := strings.TrimSpace(r.Header.Get(orgHeader)); orgID != "" {
			r = r.WithContext(tenancy.WithOrgID(r.Context(), orgID))
		}
		next.ServeHTTP(w, r)
	})
}

// orgIDFromRequest exposes the org id for local handlers.
func orgIDFromRequest(r *http.Request) (string, bool) {
	return tenancy.OrgIDFromContext(r.Context())
}
