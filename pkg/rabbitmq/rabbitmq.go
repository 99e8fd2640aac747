package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"brickshelf/internal/logger"
	"brickshelf/internal/models"

	amqp "github.com/streadway/amqp"
)

// CatalogQueue receives every committed catalog change.
const CatalogQueue = "catalog_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// amqp channels are not safe for concurrent publishing
	mu  sync.Mutex
	log *logger.Logger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares the catalog queue.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.Nop()
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareCatalogQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info().Str("queue", CatalogQueue).Msg("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
		log:     log,
	}, nil
}

func declareCatalogQueue(ch *amqp.Channel) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		CatalogQueue, // name
		true,         // durable
		false,        // delete when unused
		false,        // exclusive
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return q, fmt.Errorf("failed to declare %s: %w", CatalogQueue, err)
	}
	return q, nil
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

// PublishCatalogEvent publishes a persistent JSON message to the catalog queue.
func (c *Client) PublishCatalogEvent(ctx context.Context, event models.CatalogEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := EncodeCatalogEvent(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	err = c.channel.Publish(
		"",           // default exchange
		CatalogQueue, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         string(event.Type),
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logger.FromContext(ctx).Debug().Str("event", string(event.Type)).Str("set_num", event.SetNum).Msg("catalog event sent")
	return nil
}

// ConsumeCatalogEvents delivers decoded catalog events to handler until ctx
// is cancelled or the channel closes. A handler error requeues the message
// once; a message that cannot be decoded is dropped.
func (c *Client) ConsumeCatalogEvents(ctx context.Context, handler func(context.Context, models.CatalogEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := declareCatalogQueue(c.channel)
	if err != nil {
		return err
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

	c.log.Info().Str("queue", queue.Name).Msg("waiting for catalog events")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handleDelivery(ctx, msg, handler)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, msg amqp.Delivery, handler func(context.Context, models.CatalogEvent) error) {
	log := &logger.Logger{Logger: c.log.Logger.With().Uint64("delivery_tag", msg.DeliveryTag).Logger()}

	event, err := DecodeCatalogEvent(msg.Body)
	if err != nil {
		log.Warn().Err(err).Msg("dropping malformed catalog event")
		if nackErr := msg.Nack(false, false); nackErr != nil {
			log.Error().Err(nackErr).Msg("error nacking message")
		}
		return
	}

	if err := handler(log.WithContext(ctx), event); err != nil {
		log.Error().Err(err).Msg("error processing catalog event")
		if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
			log.Error().Err(nackErr).Msg("error nacking message")
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		log.Error().Err(ackErr).Msg("error acking message")
	}
}

// EncodeCatalogEvent returns the wire form of event.
func EncodeCatalogEvent(event models.CatalogEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog event: %w", err)
	}
	return body, nil
}

// DecodeCatalogEvent parses a message body produced by EncodeCatalogEvent.
func DecodeCatalogEvent(body []byte) (models.CatalogEvent, error) {
	var event models.CatalogEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal catalog event: %w", err)
	}
	switch event.Type {
	case models.SetCreated, models.SetUpdated, models.SetDeleted:
	default:
		return event, fmt.Errorf("unknown catalog event type %q", event.Type)
	}
	if event.SetNum == "" {
		return event, fmt.Errorf("catalog event without set_num")
	}
	return event, nil
}
