package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func serveAdmin(t *testing.T, secret, header string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/orgs/org-1/stats", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	called := false
	AdminJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, ok := AdminClaimsFromContext(r.Context())
		if !ok || claims.Subject != "ops-user" {
			t.Fatalf("expected admin claims in context, got %#v", claims)
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec, called
}

func TestAdminJWT(t *testing.T) {
	cases := []struct {
		name   string
		secret string
		header string
		status int
	}{
		{"secret unset", "", "Bearer " + signedToken(t, "secret", RoleAdmin, jwt.SigningMethodHS256), http.StatusUnauthorized},
		{"missing header", "secret", "", http.StatusUnauthorized},
		{"not bearer", "secret", "Basic abc", http.StatusUnauthorized},
		{"wrong key", "secret", "Bearer " + signedToken(t, "wrong", RoleAdmin, jwt.SigningMethodHS256), http.StatusUnauthorized},
		{"garbage", "secret", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"non admin role", "secret", "Bearer " + signedToken(t, "secret", "viewer", jwt.SigningMethodHS256), http.StatusForbidden},
		{"valid", "secret", "Bearer " + signedToken(t, "secret", RoleAdmin, jwt.SigningMethodHS256), http.StatusOK},
		{"valid hs512", "secret", "Bearer " + signedToken(t, "secret", RoleAdmin, jwt.SigningMethodHS512), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, called := serveAdmin(t, tc.secret, tc.header)
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			if called != (tc.status == http.StatusOK) {
				t.Fatalf("handler called=%v for status %d", called, tc.status)
			}
		})
	}
}

func TestAdminJWTExpired(t *testing.T) {
	claims := AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops-user",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	rec, called := serveAdmin(t, "secret", "Bearer "+signed)
	if rec.Code != http.StatusUnauthorized || called {
		t.Fatalf("expected expired token to be rejected, got %d", rec.Code)
	}
}

func signedToken(t *testing.T, secret, role string, method jwt.SigningMethod) string {
	t.Helper()
	claims := AdminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops-user",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
