package inbound

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrQueueClosed is returned by Receive once the broker closes the delivery stream.
var ErrQueueClosed = errors.New("inbound: queue closed")

const defaultAMQPPrefetch = 10

type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Ack(tag uint64, multiple bool) error
	Nack(tag uint64, multiple bool, requeue bool) error
}

// AMQPQueue carries inbound jobs over a durable RabbitMQ queue on the
// default exchange. Consumption starts on the first Receive so publishers
// never hold deliveries.
type AMQPQueue struct {
	ch       amqpChannel
	queue    string
	prefetch int

	consumeOnce sync.Once
	consumeErr  error
	deliveries  <-chan amqp.Delivery
}

// NewAMQPQueue declares the durable queue and returns a wrapper around ch.
func NewAMQPQueue(ch amqpChannel, queue string, prefetch int) (*AMQPQueue, error) {
	if ch == nil {
		panic("inbound: AMQP channel cannot be nil")
	}
	if queue == "" {
		panic("inbound: AMQP queue name cannot be empty")
	}
	if prefetch <= 0 {
		prefetch = defaultAMQPPrefetch
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("inbound: declare AMQP queue %s: %w", queue, err)
	}
	return &AMQPQueue{ch: ch, queue: queue, prefetch: prefetch}, nil
}

func (q *AMQPQueue) Send(ctx context.Context, body string) error {
	err := q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
		Body:         []byte(body),
	})
	if err != nil {
		return fmt.Errorf("inbound: failed to publish AMQP message: %w", err)
	}
	return nil
}

func (q *AMQPQueue) consume() error {
	q.consumeOnce.Do(func() {
		if err := q.ch.Qos(q.prefetch, 0, false); err != nil {
			q.consumeErr = fmt.Errorf("inbound: AMQP qos: %w", err)
			return
		}
		q.deliveries, q.consumeErr = q.ch.Consume(q.queue, "", false, false, false, false, nil)
		if q.consumeErr != nil {
			q.consumeErr = fmt.Errorf("inbound: AMQP consume: %w", q.consumeErr)
		}
	})
	return q.consumeErr
}

// Receive waits up to waitSeconds for one delivery, then drains whatever
// else is already buffered up to maxMessages.
func (q *AMQPQueue) Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error) {
	if err := q.consume(); err != nil {
		return nil, err
	}
	if maxMessages <= 0 {
		maxMessages = 1
	}

	var timeout <-chan time.Time
	if waitSeconds > 0 {
		timer := time.NewTimer(time.Duration(waitSeconds) * time.Second)
		defer timer.Stop()
		timeout = timer.C
	}

	var first amqp.Delivery
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		return nil, nil
	case d, ok := <-q.deliveries:
		if !ok {
			return nil, ErrQueueClosed
		}
		first = d
	}

	messages := []queueMessage{fromDelivery(first)}
	for len(messages) < maxMessages {
		select {
		case d, ok := <-q.deliveries:
			if !ok {
				return messages, nil
			}
			messages = append(messages, fromDelivery(d))
		default:
			return messages, nil
		}
	}
	return messages, nil
}

func fromDelivery(d amqp.Delivery) queueMessage {
	return queueMessage{
		ID:            d.MessageId,
		Body:          string(d.Body),
		ReceiptHandle: strconv.FormatUint(d.DeliveryTag, 10),
	}
}

// Delete acknowledges the delivery.
func (q *AMQPQueue) Delete(_ context.Context, receiptHandle string) error {
	tag, err := parseDeliveryTag(receiptHandle)
	if err != nil || tag == 0 {
		return err
	}
	if err := q.ch.Ack(tag, false); err != nil {
		return fmt.Errorf("inbound: failed to ack AMQP message: %w", err)
	}
	return nil
}

// Release requeues the delivery for another attempt.
func (q *AMQPQueue) Release(_ context.Context, receiptHandle string) error {
	tag, err := parseDeliveryTag(receiptHandle)
	if err != nil || tag == 0 {
		return err
	}
	if err := q.ch.Nack(tag, false, true); err != nil {
		return fmt.Errorf("inbound: failed to requeue AMQP message: %w", err)
	}
	return nil
}

func parseDeliveryTag(receiptHandle string) (uint64, error) {
	if receiptHandle == "" {
		return 0, nil
	}
	tag, err := strconv.ParseUint(receiptHandle, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("inbound: invalid AMQP receipt handle %q: %w", receiptHandle, err)
	}
	return tag, nil
}
