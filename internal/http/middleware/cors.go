package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var (
	corsAllowedHeaders = []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Org-Id", "X-Request-Id"}
	corsAllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
)

// corsOrigins trims entries and trailing slashes and drops blanks.
func corsOrigins(allowedOrigins []string) []string {
	out := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
		if origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

// CORS admits allowlisted origins for browser clients posting web-form leads.
// "*" in allowedOrigins admits every Origin. Preflights from other origins
// get no CORS headers.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins(allowedOrigins),
		AllowedMethods: corsAllowedMethods,
		AllowedHeaders: corsAllowedHeaders,
		ExposedHeaders: []string{"Retry-After", "X-Request-Id"},
		MaxAge:         600,
	})
}
