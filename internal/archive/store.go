package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store writes scrubbed lead snapshots to S3.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time
}

// NewStore creates an archive Store. If bucket is empty, all operations are no-ops.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger, now: time.Now}
}

// Enabled returns true if archival is configured (bucket is set).
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// ObjectKey partitions snapshots by org and archive date.
func ObjectKey(rec *LeadRecord) string {
	at := rec.ArchivedAt.UTC()
	return fmt.Sprintf("leads/v1/org=%s/%d/%02d/%02d/%s.json",
		rec.OrgID, at.Year(), at.Month(), at.Day(), rec.LeadID)
}

// ArchiveLead scrubs rec and writes it as JSON. Redelivered leads overwrite
// the object for the same day.
func (s *Store) ArchiveLead(ctx context.Context, rec *LeadRecord) error {
	if !s.Enabled() {
		return nil
	}
	if rec == nil || rec.LeadID == "" || rec.OrgID == "" {
		return errors.New("archive: lead and org id required")
	}
	if rec.ArchivedAt.IsZero() {
		rec.ArchivedAt = s.now().UTC()
	}
	Scrub(rec)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("archive: marshal record: %w", err)
	}

	key := ObjectKey(rec)
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put %s: %w", key, err)
	}

	s.logger.Debug("archived lead to S3",
		"lead_id", rec.LeadID,
		"org_id", rec.OrgID,
		"s3_key", key,
		"intent", rec.Intent,
	)
	return nil
}
