// Package rabbitmq publishes and consumes catalog events over AMQP.
package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"katalog/internal/events"

	amqp "github.com/streadway/amqp"
)

const (
	DefaultExchange = "catalog"
	DefaultQueue    = "catalog_events"
	// DefaultBinding routes every product event into the queue.
	DefaultBinding = "product.#"
)

// channel is the part of *amqp.Channel the client uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
	Queue    string
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn     *amqp.Connection
	mu       sync.Mutex // guards channel publishing
	channel  channel
	exchange string
	queue    string
	logger   *slog.Logger
}

// NewClient connects to RabbitMQ and declares the catalog topology: a durable
// topic exchange and a durable queue bound to every product event.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c, err := newClient(ch, cfg, logger)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func newClient(ch channel, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}
	if err := ch.QueueBind(cfg.Queue, DefaultBinding, cfg.Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind queue %s: %w", cfg.Queue, err)
	}

	logger = logger.With("component", "rabbitmq")
	logger.Info("RabbitMQ topology declared", "exchange", cfg.Exchange, "queue", cfg.Queue)

	return &Client{
		channel:  ch,
		exchange: cfg.Exchange,
		queue:    cfg.Queue,
		logger:   logger,
	}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during RabbitMQ client close: %v", errs)
	}
	return nil
}

// PublishProductEvent publishes event as a persistent JSON message routed by
// the event type.
func (c *Client) PublishProductEvent(ctx context.Context, event events.ProductEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := event.Payload()
	if err != nil {
		return fmt.Errorf("failed to marshal product event: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(
		c.exchange,
		event.RoutingKey(),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         string(event.Type),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	c.logger.DebugContext(ctx, "Published product event", "event", event.Type, "product_id", event.ProductID)
	return nil
}

// ConsumeProductEvents delivers queued product events to handler until the
// channel closes. A message is acked when handler returns nil and nacked with
// requeue otherwise. Messages that cannot be decoded are rejected without
// requeue.
func (c *Client) ConsumeProductEvents(handler func(events.ProductEvent) error) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go c.dispatch(msgs, handler)
	return nil
}

func (c *Client) dispatch(msgs <-chan amqp.Delivery, handler func(events.ProductEvent) error) {
	for msg := range msgs {
		event, err := events.Decode(msg.Body)
		if err != nil {
			c.logger.Error("Dropping malformed product event", "delivery_tag", msg.DeliveryTag, "error", err)
			if rejectErr := msg.Reject(false); rejectErr != nil {
				c.logger.Error("Error rejecting message", "delivery_tag", msg.DeliveryTag, "error", rejectErr)
			}
			continue
		}

		if err := handler(event); err != nil {
			c.logger.Error("Error processing product event", "delivery_tag", msg.DeliveryTag, "error", err)
			if nackErr := msg.Nack(false, true); nackErr != nil {
				c.logger.Error("Error nacking message", "delivery_tag", msg.DeliveryTag, "error", nackErr)
			}
			continue
		}
		if ackErr := msg.Ack(false); ackErr != nil {
			c.logger.Error("Error acking message", "delivery_tag", msg.DeliveryTag, "error", ackErr)
		}
	}
}
