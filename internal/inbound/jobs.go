package inbound

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/wolfman30/crm-lead-fusion/internal/pipeline"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

const jobTTL = 24 * time.Hour

// JobStatus is the lifecycle of an async inbound job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ErrJobNotFound indicates the requested job ID does not exist.
var ErrJobNotFound = errors.New("inbound: job not found")

// JobRecord is the persisted state of one async inbound message.
type JobRecord struct {
	JobID        string           `dynamodbav:"jobId" json:"jobId"`
	Status       JobStatus        `dynamodbav:"status" json:"status"`
	OrgID        string           `dynamodbav:"orgId,omitempty" json:"orgId,omitempty"`
	Source       string           `dynamodbav:"source,omitempty" json:"source,omitempty"`
	LeadID       string           `dynamodbav:"leadId,omitempty" json:"leadId,omitempty"`
	Result       *pipeline.Result `dynamodbav:"result,omitempty" json:"result,omitempty"`
	ErrorMessage string           `dynamodbav:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedAt    string           `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt    string           `dynamodbav:"updatedAt" json:"updatedAt"`
	ExpiresAt    int64            `dynamodbav:"expiresAt,omitempty" json:"-"`
}

// JobRecorder creates and reads job records.
type JobRecorder interface {
	PutPending(ctx context.Context, job *JobRecord) error
	GetJob(ctx context.Context, jobID string) (*JobRecord, error)
}

// JobUpdater moves a job to a terminal state.
type JobUpdater interface {
	MarkCompleted(ctx context.Context, jobID string, result *pipeline.Result) error
	MarkFailed(ctx context.Context, jobID string, errMsg string) error
}

// JobStore records and updates job state.
type JobStore interface {
	JobRecorder
	JobUpdater
}

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoJobStore persists job records to a DynamoDB table keyed by jobId.
type DynamoJobStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ JobStore = (*DynamoJobStore)(nil)
var _ JobStore = (*MemoryJobStore)(nil)

// NewDynamoJobStore builds a store backed by the provided DynamoDB client.
func NewDynamoJobStore(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoJobStore {
	if client == nil {
		panic("inbound: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("inbound: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoJobStore{client: client, tableName: tableName, logger: logger}
}

// PutPending inserts a new pending job record.
func (s *DynamoJobStore) PutPending(ctx context.Context, job *JobRecord) error {
	if job == nil {
		return errors.New("inbound: job cannot be nil")
	}
	stampPending(job)

	item, err := attributevalue.MarshalMap(job)
	if err != nil {
		return fmt.Errorf("inbound: failed to marshal job: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(jobId)"),
	})
	if err != nil {
		return fmt.Errorf("inbound: failed to persist job: %w", err)
	}
	return nil
}

// MarkCompleted stores the pipeline result on the job.
func (s *DynamoJobStore) MarkCompleted(ctx context.Context, jobID string, result *pipeline.Result) error {
	if jobID == "" {
		return errors.New("inbound: jobID required")
	}
	if result == nil {
		result = &pipeline.Result{}
	}
	resultAttr, err := attributevalue.Marshal(result)
	if err != nil {
		return fmt.Errorf("inbound: failed to marshal result: %w", err)
	}

	return s.updateJob(ctx, jobID,
		map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: string(JobStatusCompleted)},
			":result":  resultAttr,
			":lead":    &types.AttributeValueMemberS{Value: result.LeadID},
			":error":   &types.AttributeValueMemberS{Value: ""},
			":updated": &types.AttributeValueMemberS{Value: now()},
		},
		"SET #status = :status, #result = :result, leadId = :lead, #error = :error, #updated = :updated",
	)
}

// MarkFailed updates a job to the failed state.
func (s *DynamoJobStore) MarkFailed(ctx context.Context, jobID string, errMsg string) error {
	if jobID == "" {
		return errors.New("inbound: jobID required")
	}
	return s.updateJob(ctx, jobID,
		map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: string(JobStatusFailed)},
			":result":  &types.AttributeValueMemberNULL{Value: true},
			":error":   &types.AttributeValueMemberS{Value: errMsg},
			":updated": &types.AttributeValueMemberS{Value: now()},
		},
		"SET #status = :status, #result = :result, #error = :error, #updated = :updated",
	)
}

// GetJob fetches a job by ID.
func (s *DynamoJobStore) GetJob(ctx context.Context, jobID string) (*JobRecord, error) {
	if jobID == "" {
		return nil, errors.New("inbound: jobID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"jobId": &types.AttributeValueMemberS{Value: jobID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("inbound: failed to fetch job: %w", err)
	}
	if out.Item == nil {
		return nil, ErrJobNotFound
	}

	var job JobRecord
	if err := attributevalue.UnmarshalMap(out.Item, &job); err != nil {
		return nil, fmt.Errorf("inbound: failed to decode job: %w", err)
	}
	return &job, nil
}

// status, result, error and updatedAt are reserved words in DynamoDB expressions.
func (s *DynamoJobStore) updateJob(ctx context.Context, jobID string, values map[string]types.AttributeValue, expression string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"jobId": &types.AttributeValueMemberS{Value: jobID},
		},
		UpdateExpression: aws.String(expression),
		ExpressionAttributeNames: map[string]string{
			"#status":  "status",
			"#result":  "result",
			"#error":   "errorMessage",
			"#updated": "updatedAt",
		},
		ExpressionAttributeValues: values,
		ConditionExpression:       aws.String("attribute_exists(jobId)"),
	})
	if err != nil {
		return fmt.Errorf("inbound: failed to update job %s: %w", jobID, err)
	}
	return nil
}

// MemoryJobStore keeps job records in process, for local runs and tests.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*JobRecord
}

// NewMemoryJobStore creates an empty store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*JobRecord)}
}

func (s *MemoryJobStore) PutPending(ctx context.Context, job *JobRecord) error {
	if job == nil {
		return errors.New("inbound: job cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.JobID]; exists {
		return fmt.Errorf("inbound: job %s already exists", job.JobID)
	}
	stampPending(job)
	cp := *job
	s.jobs[job.JobID] = &cp
	return nil
}

func (s *MemoryJobStore) GetJob(ctx context.Context, jobID string) (*JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *MemoryJobStore) MarkCompleted(ctx context.Context, jobID string, result *pipeline.Result) error {
	return s.update(jobID, func(job *JobRecord) {
		job.Status = JobStatusCompleted
		job.Result = result
		job.ErrorMessage = ""
		if result != nil {
			job.LeadID = result.LeadID
		}
	})
}

func (s *MemoryJobStore) MarkFailed(ctx context.Context, jobID string, errMsg string) error {
	return s.update(jobID, func(job *JobRecord) {
		job.Status = JobStatusFailed
		job.Result = nil
		job.ErrorMessage = errMsg
	})
}

func (s *MemoryJobStore) update(jobID string, apply func(*JobRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	apply(job)
	job.UpdatedAt = now()
	return nil
}

func stampPending(job *JobRecord) {
	ts := time.Now().UTC()
	job.Status = JobStatusPending
	job.CreatedAt = ts.Format(time.RFC3339Nano)
	job.UpdatedAt = job.CreatedAt
	if job.ExpiresAt == 0 {
		job.ExpiresAt = ts.Add(jobTTL).Unix()
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
