package app

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"katalog/internal/config"
	"katalog/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsumer struct {
	handler func(events.ProductEvent) error
	calls   int
	err     error
}

func (f *fakeConsumer) ConsumeProductEvents(handler func(events.ProductEvent) error) error {
	f.calls++
	f.handler = handler
	return f.err
}

func newTestApp(consume bool) *App {
	return &App{
		cfg:    &config.Config{ConsumeEvents: consume},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestStartConsumer_DisabledByDefault(t *testing.T) {
	consumer := &fakeConsumer{}
	newTestApp(false).startConsumer(consumer)
	assert.Zero(t, consumer.calls)
}

func TestStartConsumer_Enabled(t *testing.T) {
	consumer := &fakeConsumer{}
	newTestApp(true).startConsumer(consumer)

	require.Equal(t, 1, consumer.calls)
	require.NotNil(t, consumer.handler)
	assert.NoError(t, consumer.handler(events.ProductEvent{Type: events.ProductCreated, ProductID: "p-1"}))
}

func TestStartConsumer_SubscribeErrorIsLogged(t *testing.T) {
	consumer := &fakeConsumer{err: errors.New("channel closed")}
	assert.NotPanics(t, func() { newTestApp(true).startConsumer(consumer) })
	assert.Equal(t, 1, consumer.calls)
}
