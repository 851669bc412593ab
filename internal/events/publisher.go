// Package events publishes content-change events to an AMQP topic exchange.
// Publishing is best-effort: the API never fails a request because the
// broker is down.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Event is the message body published on content changes. Routing keys
// follow content.<entity>.<action>, e.g. content.project.created.
type Event struct {
	ID         string    `json:"id"`
	Entity     string    `json:"entity"`
	Action     string    `json:"action"`
	ResourceID string    `json:"resourceId"`
	ActorID    string    `json:"actorId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher emits content events. The nil *AMQPPublisher is a valid no-op
// publisher, used when no broker is configured.
type Publisher interface {
	Publish(ctx context.Context, entity, action, resourceID, actorID string)
	Close() error
}

// AMQPPublisher publishes events to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	exchange string
	logger   zerolog.Logger
}

// NewAMQP connects to the broker and declares the exchange.
func NewAMQP(url, exchange string, logger zerolog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{
		conn:     conn,
		exchange: exchange,
		logger:   logger.With().Str("component", "events").Logger(),
	}, nil
}

// Publish emits one event. Failures are logged, never returned: content
// writes must not depend on broker availability.
func (p *AMQPPublisher) Publish(ctx context.Context, entity, action, resourceID, actorID string) {
	if p == nil {
		return
	}

	evt := Event{
		ID:         uuid.NewString(),
		Entity:     entity,
		Action:     action,
		ResourceID: resourceID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
	body, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to marshal event")
		return
	}

	ch, err := p.conn.Channel()
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to open channel for event publish")
		return
	}
	defer ch.Close()

	key := "content." + entity + "." + action
	err = ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    evt.ID,
		Timestamp:    evt.OccurredAt,
		Body:         body,
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("Failed to publish event")
		return
	}
	p.logger.Debug().Str("key", key).Str("resource", resourceID).Msg("Event published")
}

// Close closes the broker connection.
func (p *AMQPPublisher) Close() error {
	if p == nil {
		return nil
	}
	return p.conn.Close()
}
