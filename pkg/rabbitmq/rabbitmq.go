package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/streadway/amqp"
)

// ProductEventsQueue carries product create/update/delete events.
const ProductEventsQueue = "product_events"

// ErrNoChannel is returned when the client has no open channel.
var ErrNoChannel = errors.New("RabbitMQ channel is not available")

// Channel is the subset of *amqp.Channel the client uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel Channel
	queue   string
	logger  *slog.Logger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
	// Queue defaults to ProductEventsQueue.
	Queue string
}

// NewClient connects to RabbitMQ, opens a channel and declares the queue.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c, err := NewClientWithChannel(ch, cfg.Queue, logger)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// NewClientWithChannel wraps an already open channel and declares the queue on it.
func NewClientWithChannel(ch Channel, queue string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if queue == "" {
		queue = ProductEventsQueue
	}
	if _, err := declare(ch, queue); err != nil {
		return nil, fmt.Errorf("failed to declare %s: %w", queue, err)
	}
	logger.Info("rabbitmq client ready", slog.String("queue", queue))

	return &Client{channel: ch, queue: queue, logger: logger}, nil
}

func declare(ch Channel, queue string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

// Queue returns the queue name events are published to.
func (c *Client) Queue() string {
	return c.queue
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
	return errors.Join(errs...)
}

// PublishProductEvent marshals event to JSON and publishes it as a persistent
// message on the product events queue.
func (c *Client) PublishProductEvent(event any) error {
	if c.channel == nil {
		return ErrNoChannel
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal product event to JSON: %w", err)
	}

	err = c.channel.Publish(
		"",      // exchange: default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Debug("product event sent", slog.String("queue", c.queue), slog.Int("bytes", len(body)))
	return nil
}

// ConsumeProductEvents starts a goroutine delivering queue messages to
// handler. Messages are acked when handler succeeds and nacked otherwise;
// a failed message is requeued once. The goroutine ends when the channel closes.
func (c *Client) ConsumeProductEvents(handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return ErrNoChannel
	}

	queue, err := declare(c.channel, c.queue)
	if err != nil {
		return fmt.Errorf("failed to declare queue for consuming: %w", err)
	}

	msgs, err := c.channel.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("waiting for product events", slog.String("queue", queue.Name))

	go func() {
		for msg := range msgs {
			c.dispatch(msg, handler)
		}
	}()
	return nil
}

func (c *Client) dispatch(msg amqp.Delivery, handler func(msg amqp.Delivery) error) {
	if err := handler(msg); err != nil {
		c.logger.Error("error processing message",
			slog.Uint64("delivery_tag", msg.DeliveryTag),
			slog.String("error", err.Error()),
		)
		if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
			c.logger.Error("error nacking message", slog.Uint64("delivery_tag", msg.DeliveryTag), slog.String("error", nackErr.Error()))
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.logger.Error("error acking message", slog.Uint64("delivery_tag", msg.DeliveryTag), slog.String("error", ackErr.Error()))
	}
}
