package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3Client struct {
	putCalls []putCall
	err      error
}

type putCall struct {
	bucket string
	key    string
	body   []byte
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	body, _ := io.ReadAll(input.Body)
	m.putCalls = append(m.putCalls, putCall{bucket: *input.Bucket, key: *input.Key, body: body})
	return &s3.PutObjectOutput{}, nil
}

func TestStore_ArchiveLead(t *testing.T) {
	mock := &mockS3Client{}
	store := NewStore(mock, "lead-archive", nil)
	store.now = func() time.Time { return time.Date(2026, 3, 7, 22, 0, 0, 0, time.UTC) }

	rec := &LeadRecord{
		LeadID:         "lead-1",
		OrgID:          "org-1",
		Source:         "email",
		Text:           "Pricing please, I'm at dana@example.com",
		Intent:         "sales",
		Urgency:        "medium",
		UrgencyScore:   45,
		UrgencyReasons: []string{"budget_ready"},
		ContactHash:    HashContact("dana@example.com", ""),
	}
	require.NoError(t, store.ArchiveLead(context.Background(), rec))

	require.Len(t, mock.putCalls, 1)
	call := mock.putCalls[0]
	assert.Equal(t, "lead-archive", call.bucket)
	assert.Equal(t, "leads/v1/org=org-1/2026/03/07/lead-1.json", call.key)

	var got LeadRecord
	require.NoError(t, json.Unmarshal(call.body, &got))
	assert.Equal(t, "Pricing please, I'm at [EMAIL]", got.Text)
	assert.Equal(t, "sales", got.Intent)
	assert.Equal(t, []string{"budget_ready"}, got.UrgencyReasons)
	assert.NotContains(t, string(call.body), "dana@example.com")
}

func TestStore_DisabledIsNoop(t *testing.T) {
	mock := &mockS3Client{}
	store := NewStore(mock, "", nil)
	assert.False(t, store.Enabled())
	require.NoError(t, store.ArchiveLead(context.Background(), &LeadRecord{LeadID: "l", OrgID: "o"}))
	assert.Empty(t, mock.putCalls)

	var nilStore *Store
	assert.False(t, nilStore.Enabled())
}

func TestStore_RequiresIDs(t *testing.T) {
	store := NewStore(&mockS3Client{}, "bucket", nil)
	require.Error(t, store.ArchiveLead(context.Background(), &LeadRecord{OrgID: "o"}))
	require.Error(t, store.ArchiveLead(context.Background(), nil))
}

func TestStore_PropagatesPutError(t *testing.T) {
	boom := errors.New("access denied")
	store := NewStore(&mockS3Client{err: boom}, "bucket", nil)
	err := store.ArchiveLead(context.Background(), &LeadRecord{LeadID: "l", OrgID: "o"})
	require.ErrorIs(t, err, boom)
}
