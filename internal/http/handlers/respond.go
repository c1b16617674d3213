package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/wolfman30/crm-lead-fusion/internal/clients"
	"github.com/wolfman30/crm-lead-fusion/internal/drafts"
	"github.com/wolfman30/crm-lead-fusion/internal/inbound"
	"github.com/wolfman30/crm-lead-fusion/internal/inference"
	"github.com/wolfman30/crm-lead-fusion/internal/leads"
	"github.com/wolfman30/crm-lead-fusion/internal/orgs"
	"github.com/wolfman30/crm-lead-fusion/internal/pipeline"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

const (
	maxBodyBytes = 1 << 20
	defaultLimit = 20
	maxLimit     = 100
)

// errBadRequest marks malformed requests that never reached the domain layer.
var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, logger *logging.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, pipeline.ErrValidation),
		errors.Is(err, orgs.ErrInvalidName),
		errors.Is(err, orgs.ErrInvalidSlug):
		return http.StatusBadRequest
	case errors.Is(err, leads.ErrLeadNotFound),
		errors.Is(err, orgs.ErrOrgNotFound),
		errors.Is(err, clients.ErrClientNotFound),
		errors.Is(err, inbound.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, orgs.ErrSlugTaken):
		return http.StatusConflict
	case errors.Is(err, inference.ErrService),
		errors.Is(err, drafts.ErrEmptyGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", errBadRequest)
	}
	return nil
}

// pageParams reads limit/offset, clamping limit to maxLimit.
func pageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
