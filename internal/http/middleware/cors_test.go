package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORSOrigins(t *testing.T) {
	got := corsOrigins([]string{" https://forms.example.com/ ", "", "*"})
	assert.Equal(t, []string{"https://forms.example.com", "*"}, got)
}

func TestCORS(t *testing.T) {
	cases := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		preflight   bool
		wantOrigin  string
		wantStatus  int
		wantHandler bool
	}{
		{"listed origin", []string{"https://forms.example.com/"}, http.MethodPost, "https://forms.example.com", false, "https://forms.example.com", http.StatusOK, true},
		{"unknown origin", []string{"https://forms.example.com"}, http.MethodPost, "https://evil.example", false, "", http.StatusOK, true},
		{"wildcard", []string{" * "}, http.MethodGet, "https://random.example", false, "*", http.StatusOK, true},
		{"no origin header", []string{"*"}, http.MethodGet, "", false, "", http.StatusOK, true},
		{"preflight allowed", []string{"https://forms.example.com"}, http.MethodOptions, "https://forms.example.com", true, "https://forms.example.com", http.StatusNoContent, false},
		{"preflight unknown origin", []string{"https://forms.example.com"}, http.MethodOptions, "https://evil.example", true, "", http.StatusNoContent, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := CORS(tc.allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tc.method, "/inbound", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if tc.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantHandler, called)
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			if tc.preflight && tc.wantOrigin != "" {
				assert.Equal(t, http.MethodPost, rec.Header().Get("Access-Control-Allow-Methods"))
			}
		})
	}
}
