package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/crm-lead-fusion/internal/pipeline"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	declareErr error
	qos        int
	consumes   int
	published  []amqp.Publishing
	keys       []string
	acked      []uint64
	nacked     []uint64
	deliveries chan amqp.Delivery
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{deliveries: make(chan amqp.Delivery, 10)}
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.declared = append(f.declared, name)
	return amqp.Queue{Name: name}, f.declareErr
}

func (f *fakeChannel) Qos(prefetchCount, prefetchSize int, global bool) error {
	f.qos = prefetchCount
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	f.consumes++
	return f.deliveries, nil
}

func (f *fakeChannel) Ack(tag uint64, multiple bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeChannel) Nack(tag uint64, multiple bool, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacked = append(f.nacked, tag)
	return nil
}

func (f *fakeChannel) ackCounts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.acked), len(f.nacked)
}

func TestAMQPQueueDeclaresDurableQueue(t *testing.T) {
	ch := newFakeChannel()
	_, err := NewAMQPQueue(ch, "crm.inbound", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"crm.inbound"}, ch.declared)
	assert.Zero(t, ch.consumes, "publishers must not consume")

	ch.declareErr = errors.New("access refused")
	_, err = NewAMQPQueue(ch, "crm.inbound", 0)
	require.Error(t, err)
}

func TestAMQPQueueSendPublishesPersistentJSON(t *testing.T) {
	ch := newFakeChannel()
	q, err := NewAMQPQueue(ch, "crm.inbound", 5)
	require.NoError(t, err)

	require.NoError(t, q.Send(context.Background(), `{"id":"job-1"}`))
	require.Len(t, ch.published, 1)
	pub := ch.published[0]
	assert.Equal(t, "crm.inbound", ch.keys[0])
	assert.Equal(t, amqp.Persistent, pub.DeliveryMode)
	assert.Equal(t, "application/json", pub.ContentType)
	assert.NotEmpty(t, pub.MessageId)
	assert.JSONEq(t, `{"id":"job-1"}`, string(pub.Body))
}

func TestAMQPQueueReceiveAckAndRelease(t *testing.T) {
	ch := newFakeChannel()
	q, err := NewAMQPQueue(ch, "crm.inbound", 5)
	require.NoError(t, err)

	ch.deliveries <- amqp.Delivery{MessageId: "m1", DeliveryTag: 1, Body: []byte("a")}
	ch.deliveries <- amqp.Delivery{MessageId: "m2", DeliveryTag: 2, Body: []byte("b")}

	msgs, err := q.Receive(context.Background(), 5, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, 5, ch.qos)
	assert.Equal(t, "1", msgs[0].ReceiptHandle)
	assert.Equal(t, "b", msgs[1].Body)

	require.NoError(t, q.Delete(context.Background(), msgs[0].ReceiptHandle))
	require.NoError(t, q.Release(context.Background(), msgs[1].ReceiptHandle))
	assert.Equal(t, []uint64{1}, ch.acked)
	assert.Equal(t, []uint64{2}, ch.nacked)

	require.Error(t, q.Delete(context.Background(), "not-a-tag"))
	require.NoError(t, q.Delete(context.Background(), ""))

	msgs, err = q.Receive(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Equal(t, 1, ch.consumes, "consume starts once")
}

func TestAMQPQueueReceiveTimeoutAndClose(t *testing.T) {
	ch := newFakeChannel()
	q, err := NewAMQPQueue(ch, "crm.inbound", 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = q.Receive(ctx, 1, 0)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(ch.deliveries)
	_, err = q.Receive(context.Background(), 1, 1)
	require.ErrorIs(t, err, ErrQueueClosed)
}

func TestWorkerRequeuesFailedAMQPDeliveries(t *testing.T) {
	ch := newFakeChannel()
	q, err := NewAMQPQueue(ch, "crm.inbound", 1)
	require.NoError(t, err)

	processor := &recordingProcessor{err: errors.New("store unavailable")}
	worker := NewWorker(processor, q, nil, logging.New("error"), WithWorkerCount(1), WithReceiveBatchSize(1), WithReceiveWaitSeconds(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	body, _ := json.Marshal(queuePayload{ID: "job-1", Message: pipeline.Message{OrgID: "org-1", Text: "hello"}})
	ch.deliveries <- amqp.Delivery{MessageId: "m1", DeliveryTag: 7, Body: body}

	waitFor(func() bool {
		_, nacked := ch.ackCounts()
		return nacked == 1
	}, 2*time.Second, t)

	cancel()
	worker.Wait()

	acked, _ := ch.ackCounts()
	assert.Zero(t, acked)
}
