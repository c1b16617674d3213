package tenancy

import (
	"context"
	"strings"
)

type ctxKey string

const orgKey ctxKey = "crm.org_id"

// WithOrgID stores the org id in context.
func WithOrgID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, orgKey, orgID)
}

// OrgIDFromContext extracts the org id if present.
func OrgIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(orgKey)
	if val == nil {
		return "", false
	}
	orgID, ok := val.(string)
	return orgID, ok && orgID != ""
}

// ResolveOrgID picks the first non-blank org id from the explicit value,
// the request context, and the configured fallback, in that order.
func ResolveOrgID(ctx context.Context, explicit, fallback string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	if orgID, ok := OrgIDFromContext(ctx); ok {
		return orgID
	}
	return strings.TrimSpace(fallback)
}
