package rabbitmq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"katalog/internal/events"
	"katalog/internal/models"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchangeKind string
	bound        [3]string // queue, key, exchange
	published    []amqp.Publishing
	keys         []string
	publishErr   error
	deliveries   chan amqp.Delivery
	closed       bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.exchangeKind = kind
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.bound = [3]string{name, key, exchange}
	return nil
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.keys = append(f.keys, key)
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

// fakeAcknowledger records how each delivery was settled.
type fakeAcknowledger struct {
	mu      sync.Mutex
	settled map[uint64]string
	done    chan struct{}
}

func (a *fakeAcknowledger) settle(tag uint64, how string) error {
	a.mu.Lock()
	a.settled[tag] = how
	a.mu.Unlock()
	a.done <- struct{}{}
	return nil
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error { return a.settle(tag, "ack") }

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	if requeue {
		return a.settle(tag, "nack-requeue")
	}
	return a.settle(tag, "nack")
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error { return a.settle(tag, "reject") }

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNewClient_DeclaresTopology(t *testing.T) {
	ch := &fakeChannel{}
	c, err := newClient(ch, Config{}, quiet)
	require.NoError(t, err)

	assert.Equal(t, amqp.ExchangeTopic, ch.exchangeKind)
	assert.Equal(t, [3]string{DefaultQueue, DefaultBinding, DefaultExchange}, ch.bound)

	require.NoError(t, c.Close())
	assert.True(t, ch.closed)
}

func TestPublishProductEvent(t *testing.T) {
	ch := &fakeChannel{}
	c, err := newClient(ch, Config{Exchange: "catalog-test"}, quiet)
	require.NoError(t, err)

	sku := "W-1"
	event := events.NewProductEvent(events.ProductCreated, &models.Product{ID: "p-1", Name: "Widget", SKU: &sku, Quantity: 5})
	require.NoError(t, c.PublishProductEvent(context.Background(), event))

	require.Len(t, ch.published, 1)
	assert.Equal(t, []string{"product.created"}, ch.keys)
	msg := ch.published[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

	decoded, err := events.Decode(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "p-1", decoded.ProductID)
	assert.Equal(t, "W-1", decoded.SKU)
	assert.Equal(t, 5, decoded.Quantity)
}

func TestPublishProductEvent_Errors(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	c, err := newClient(ch, Config{}, quiet)
	require.NoError(t, err)

	event := events.NewProductEvent(events.ProductDeleted, &models.Product{ID: "p-1"})
	err = c.PublishProductEvent(context.Background(), event)
	assert.ErrorContains(t, err, "channel closed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.PublishProductEvent(ctx, event), context.Canceled)
}

func TestConsumeProductEvents_SettlesDeliveries(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp.Delivery, 3)}
	c, err := newClient(ch, Config{}, quiet)
	require.NoError(t, err)

	ack := &fakeAcknowledger{settled: map[uint64]string{}, done: make(chan struct{}, 3)}
	good, err := events.NewProductEvent(events.ProductUpdated, &models.Product{ID: "good"}).Payload()
	require.NoError(t, err)
	bad, err := events.NewProductEvent(events.ProductUpdated, &models.Product{ID: "bad"}).Payload()
	require.NoError(t, err)

	ch.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: good}
	ch.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: bad}
	ch.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, Body: []byte("{not json")}
	close(ch.deliveries)

	err = c.ConsumeProductEvents(func(e events.ProductEvent) error {
		if e.ProductID == "bad" {
			return errors.New("cannot handle")
		}
		return nil
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		select {
		case <-ack.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for deliveries to be settled")
		}
	}

	ack.mu.Lock()
	defer ack.mu.Unlock()
	assert.Equal(t, map[uint64]string{1: "ack", 2: "nack-requeue", 3: "reject"}, ack.settled)
}
