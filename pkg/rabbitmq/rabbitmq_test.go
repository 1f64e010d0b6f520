package rabbitmq

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokoadmin/pkg/logger"
)

type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	published  []amqp.Publishing
	routingKey string
	publishErr error
	deliveries chan amqp.Delivery
	closed     bool
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declared = append(f.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.routingKey = key
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type ackRecorder struct {
	mu     sync.Mutex
	acked  []uint64
	nacked []uint64
}

func (a *ackRecorder) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *ackRecorder) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error { return nil }

func (a *ackRecorder) counts() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.acked), len(a.nacked)
}

func TestPublishProductEvent(t *testing.T) {
	ch := &fakeChannel{}
	client, err := NewClientWithChannel(ch, "", logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{ProductEventsQueue}, ch.declared)

	require.NoError(t, client.PublishProductEvent(map[string]string{"action": "product.created", "product_id": "p1"}))
	require.Len(t, ch.published, 1)
	assert.Equal(t, ProductEventsQueue, ch.routingKey)
	assert.Equal(t, "application/json", ch.published[0].ContentType)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)

	var body map[string]string
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &body))
	assert.Equal(t, "p1", body["product_id"])

	require.NoError(t, client.Close())
	assert.True(t, ch.closed)
}

func TestPublishProductEvent_Error(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	client, err := NewClientWithChannel(ch, "custom", logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, "custom", client.Queue())
	assert.Error(t, client.PublishProductEvent(map[string]string{}))
}

func TestConsumeProductEvents_AckAndNack(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp.Delivery, 2)}
	client, err := NewClientWithChannel(ch, "", logger.Discard())
	require.NoError(t, err)

	rec := &ackRecorder{}
	require.NoError(t, client.ConsumeProductEvents(func(msg amqp.Delivery) error {
		if string(msg.Body) == "bad" {
			return errors.New("cannot handle")
		}
		return nil
	}))

	ch.deliveries <- amqp.Delivery{Acknowledger: rec, DeliveryTag: 1, Body: []byte("good")}
	ch.deliveries <- amqp.Delivery{Acknowledger: rec, DeliveryTag: 2, Body: []byte("bad")}
	close(ch.deliveries)

	assert.Eventually(t, func() bool {
		acked, nacked := rec.counts()
		return acked == 1 && nacked == 1
	}, time.Second, 10*time.Millisecond)
}
