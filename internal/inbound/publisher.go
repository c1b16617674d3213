package inbound

import (
	"context"
	"fmt"

	"github.com/wolfman30/crm-lead-fusion/internal/pipeline"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

// Publisher enqueues validated inbound messages for asynchronous processing.
type Publisher struct {
	queue  Queue
	jobs   JobRecorder
	logger *logging.Logger
}

// NewPublisher creates a queue-backed publisher. jobs may be nil to skip
// status tracking.
func NewPublisher(queue Queue, jobs JobRecorder, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("inbound: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, jobs: jobs, logger: logger}
}

// Enqueue records a pending job and publishes the message. The returned id
// identifies the job.
func (p *Publisher) Enqueue(ctx context.Context, jobID string, msg pipeline.Message) (string, error) {
	payload, body, err := encodePayload(queuePayload{
		ID:          jobID,
		Message:     msg,
		TrackStatus: p.jobs != nil,
	})
	if err != nil {
		return "", err
	}

	if p.jobs != nil {
		if err := p.jobs.PutPending(ctx, &JobRecord{
			JobID:  payload.ID,
			OrgID:  msg.OrgID,
			Source: string(msg.Source),
		}); err != nil {
			return "", fmt.Errorf("inbound: record job: %w", err)
		}
	}

	if err := p.queue.Send(ctx, body); err != nil {
		if p.jobs != nil {
			if updater, ok := p.jobs.(JobUpdater); ok {
				_ = updater.MarkFailed(ctx, payload.ID, "enqueue failed")
			}
		}
		return "", fmt.Errorf("inbound: failed to enqueue job: %w", err)
	}

	p.logger.Debug("inbound job enqueued", "job_id", payload.ID, "org_id", msg.OrgID, "source", msg.Source)
	return payload.ID, nil
}

// GetJob returns the tracked state of a job.
func (p *Publisher) GetJob(ctx context.Context, jobID string) (*JobRecord, error) {
	if p.jobs == nil {
		return nil, ErrJobNotFound
	}
	return p.jobs.GetJob(ctx, jobID)
}
