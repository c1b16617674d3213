package inbound

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/crm-lead-fusion/internal/pipeline"
)

// Queue is the transport between Publisher and Worker; SQSQueue or
// AMQPQueue in production, MemoryQueue locally.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// releaser is implemented by queues that must be told to redeliver a
// message. SQS redelivers on visibility timeout without it.
type releaser interface {
	Release(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

const jobKindInbound = "inbound.v1"

type queuePayload struct {
	ID          string           `json:"id"`
	Kind        string           `json:"kind"`
	Message     pipeline.Message `json:"message"`
	TrackStatus bool             `json:"track_status"`
	EnqueuedAt  time.Time        `json:"enqueued_at"`
}

func encodePayload(payload queuePayload) (queuePayload, string, error) {
	if payload.ID == "" {
		payload.ID = uuid.NewString()
	}
	if payload.Kind == "" {
		payload.Kind = jobKindInbound
	}
	if payload.EnqueuedAt.IsZero() {
		payload.EnqueuedAt = time.Now().UTC()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return queuePayload{}, "", fmt.Errorf("inbound: failed to encode payload: %w", err)
	}
	return payload, string(body), nil
}
