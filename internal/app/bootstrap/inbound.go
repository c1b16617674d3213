package bootstrap

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	amqp "github.com/rabbitmq/amqp091-go"

	appconfig "github.com/wolfman30/crm-lead-fusion/internal/config"
	"github.com/wolfman30/crm-lead-fusion/internal/inbound"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

const memoryQueueBuffer = 256

// Inbound is the async transport: a queue and an optional job store.
type Inbound struct {
	Queue inbound.Queue
	Jobs  inbound.JobStore
	// InProcess is true for the memory queue, whose consumer must run in
	// the same process as the publisher.
	InProcess bool

	closer func() error
}

// BuildInbound selects the memory, AMQP or SQS queue, in that order of
// precedence. It returns nil when async processing is not configured. Job status is tracked in DynamoDB when
// INBOUND_JOBS_TABLE is set, in memory for the memory queue, and not at all
// otherwise.
func BuildInbound(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (*Inbound, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	if cfg.UseMemoryQueue {
		logger.Info("using in-memory inbound queue")
		return &Inbound{
			Queue:     inbound.NewMemoryQueue(memoryQueueBuffer),
			Jobs:      inbound.NewMemoryJobStore(),
			InProcess: true,
		}, nil
	}

	if amqpURL := strings.TrimSpace(cfg.AMQPURL); amqpURL != "" {
		return buildAMQPInbound(cfg, awsCfg, amqpURL, logger)
	}

	queueURL := strings.TrimSpace(cfg.InboundQueueURL)
	if queueURL == "" {
		logger.Info("INBOUND_QUEUE_URL not set; async inbound disabled")
		return nil, nil
	}

	in := &Inbound{Queue: inbound.NewSQSQueue(sqs.NewFromConfig(awsCfg), queueURL)}
	in.Jobs = dynamoJobs(cfg, awsCfg, logger)
	logger.Info("using SQS inbound queue", "queue_url", queueURL, "jobs_table", cfg.InboundJobsTable)
	return in, nil
}

func buildAMQPInbound(cfg *appconfig.Config, awsCfg aws.Config, amqpURL string, logger *logging.Logger) (*Inbound, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("bootstrap: open AMQP channel: %w", err)
	}
	queue, err := inbound.NewAMQPQueue(ch, cfg.InboundQueueName, cfg.WorkerCount*2)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	logger.Info("using AMQP inbound queue", "queue", cfg.InboundQueueName, "jobs_table", cfg.InboundJobsTable)
	return &Inbound{
		Queue:  queue,
		Jobs:   dynamoJobs(cfg, awsCfg, logger),
		closer: conn.Close,
	}, nil
}

func dynamoJobs(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) inbound.JobStore {
	table := strings.TrimSpace(cfg.InboundJobsTable)
	if table == "" {
		return nil
	}
	return inbound.NewDynamoJobStore(dynamodb.NewFromConfig(awsCfg), table, logger)
}

// Close releases the broker connection, if any.
func (in *Inbound) Close() error {
	if in == nil || in.closer == nil {
		return nil
	}
	return in.closer()
}

// Publisher builds the enqueue side for the API.
func (in *Inbound) Publisher(logger *logging.Logger) *inbound.Publisher {
	var jobs inbound.JobRecorder
	if in.Jobs != nil {
		jobs = in.Jobs
	}
	return inbound.NewPublisher(in.Queue, jobs, logger)
}

// Worker builds the consumer side.
func (in *Inbound) Worker(processor inbound.Processor, workers int, logger *logging.Logger) *inbound.Worker {
	var jobs inbound.JobUpdater
	if in.Jobs != nil {
		jobs = in.Jobs
	}
	return inbound.NewWorker(processor, in.Queue, jobs, logger, inbound.WithWorkerCount(workers))
}
