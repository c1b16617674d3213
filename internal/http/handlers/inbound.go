package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/crm-lead-fusion/internal/inbound"
	"github.com/wolfman30/crm-lead-fusion/internal/pipeline"
	"github.com/wolfman30/crm-lead-fusion/internal/tenancy"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

// InboundProcessor runs the classification pipeline synchronously.
type InboundProcessor interface {
	Prepare(ctx context.Context, msg *pipeline.Message) error
	HandleInbound(ctx context.Context, msg pipeline.Message) (*pipeline.Result, error)
}

// InboundEnqueuer hands validated messages to the async worker.
type InboundEnqueuer interface {
	Enqueue(ctx context.Context, jobID string, msg pipeline.Message) (string, error)
	GetJob(ctx context.Context, jobID string) (*inbound.JobRecord, error)
}

// InboundHandler accepts inbound messages from any channel.
type InboundHandler struct {
	processor InboundProcessor
	enqueuer  InboundEnqueuer
	logger    *logging.Logger
}

// NewInboundHandler creates an inbound handler. enqueuer may be nil when async
// mode is not configured.
func NewInboundHandler(processor InboundProcessor, enqueuer InboundEnqueuer, logger *logging.Logger) *InboundHandler {
	if processor == nil {
		panic("handlers: inbound processor cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &InboundHandler{processor: processor, enqueuer: enqueuer, logger: logger}
}

// AsyncEnabled reports whether a queue is wired.
func (h *InboundHandler) AsyncEnabled() bool {
	return h.enqueuer != nil
}

// Handle processes a message and returns the classification result.
// POST /inbound
func (h *InboundHandler) Handle(w http.ResponseWriter, r *http.Request) {
	msg, err := h.readMessage(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.processor.HandleInbound(r.Context(), msg)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleAsync validates a message, enqueues it and returns the job id.
// POST /inbound/async
func (h *InboundHandler) HandleAsync(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "async processing is not configured"})
		return
	}
	msg, err := h.readMessage(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.processor.Prepare(r.Context(), &msg); err != nil {
		writeError(w, h.logger, err)
		return
	}

	jobID, err := h.enqueuer.Enqueue(r.Context(), strings.TrimSpace(r.Header.Get("Idempotency-Key")), msg)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"jobId":  jobID,
		"status": string(inbound.JobStatusPending),
	})
}

// GetJob returns the state of an async job.
// GET /inbound/jobs/{jobID}
func (h *InboundHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "async processing is not configured"})
		return
	}
	job, err := h.enqueuer.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *InboundHandler) readMessage(w http.ResponseWriter, r *http.Request) (pipeline.Message, error) {
	var msg pipeline.Message
	if err := decodeJSON(w, r, &msg); err != nil {
		return msg, err
	}
	msg.OrgID = tenancy.ResolveOrgID(r.Context(), msg.OrgID, "")
	return msg, nil
}
