package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/crm-lead-fusion/internal/drafts"
	"github.com/wolfman30/crm-lead-fusion/internal/inbound"
	"github.com/wolfman30/crm-lead-fusion/internal/inference"
	"github.com/wolfman30/crm-lead-fusion/internal/leads"
	"github.com/wolfman30/crm-lead-fusion/internal/orgs"
	"github.com/wolfman30/crm-lead-fusion/internal/pipeline"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]string{"status": "ok"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content type application/json, got %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode json response: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body %#v", body)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"empty text", pipeline.ErrEmptyText, http.StatusBadRequest},
		{"missing org", fmt.Errorf("wrap: %w", pipeline.ErrMissingOrgID), http.StatusBadRequest},
		{"bad json", fmt.Errorf("%w: invalid JSON body", errBadRequest), http.StatusBadRequest},
		{"blank org name", orgs.ErrInvalidName, http.StatusBadRequest},
		{"lead missing", fmt.Errorf("drafts: load lead: %w", leads.ErrLeadNotFound), http.StatusNotFound},
		{"job missing", inbound.ErrJobNotFound, http.StatusNotFound},
		{"slug taken", orgs.ErrSlugTaken, http.StatusConflict},
		{"inference", fmt.Errorf("drafts: generate: %w", &inference.ServiceError{Op: "generate", StatusCode: 503}), http.StatusBadGateway},
		{"empty generation", fmt.Errorf("drafts: %w", drafts.ErrEmptyGeneration), http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := statusFor(tc.err); got != tc.want {
				t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestPageParamsClamps(t *testing.T) {
	cases := []struct {
		query      string
		limit, off int
	}{
		{"", defaultLimit, 0},
		{"?limit=5&offset=10", 5, 10},
		{"?limit=500", maxLimit, 0},
		{"?limit=-1&offset=-3", defaultLimit, 0},
		{"?limit=abc", defaultLimit, 0},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/x"+tc.query, nil)
		limit, offset := pageParams(req)
		if limit != tc.limit || offset != tc.off {
			t.Fatalf("%q: got limit=%d offset=%d, want %d/%d", tc.query, limit, offset, tc.limit, tc.off)
		}
	}
}

func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
