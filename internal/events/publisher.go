// Package events publishes reservation domain events for downstream
// consumers (notifications, analytics). Publishing is best-effort and happens
// after the owning transaction commits; a failed publish is logged, never
// propagated into the booking path.
package events

import (
	"context"

	"railbook/pkg/kafka"
	kafka_config "railbook/pkg/kafka/config"
	"railbook/pkg/logger"
)

const Topic = "reservation-events"

const (
	EventJourneyMaterialized = "journey.materialized"
	EventHoldCreated         = "hold.created"
	EventHoldCancelled       = "hold.cancelled"
	EventHoldExpired         = "hold.expired"
	EventHoldCommitted       = "hold.committed"
	EventTicketsIssued       = "tickets.issued"
	EventTicketCancelled     = "ticket.cancelled"
	EventTicketsRetired      = "tickets.retired"
)

type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any)
	Close() error
}

// New returns a kafka-backed publisher, or a no-op one when brokers are not
// configured.
func New(cfg *kafka_config.Config, serviceName string, log *logger.Logger) (Publisher, error) {
	if !cfg.Enabled() {
		log.Info("Kafka brokers not configured, event publishing disabled")
		return &noopPublisher{}, nil
	}
	producer, err := kafka.NewProducer(cfg, Topic)
	if err != nil {
		return nil, err
	}
	log.Info("Event publisher initialized", "topic", Topic, "brokers", cfg.Brokers)
	return &kafkaPublisher{
		producer: producer,
		source:   serviceName,
		log:      log,
	}, nil
}

type kafkaPublisher struct {
	producer *kafka.Producer
	source   string
	log      *logger.Logger
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) {
	msg, err := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithSource(p.source).
		Build()
	if err != nil {
		p.log.Error("Failed to build event", "event_type", eventType, "key", key, "error", err)
		return
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish event", "event_type", eventType, "key", key, "error", err)
		return
	}
	p.log.Debug("Event published", "event_type", eventType, "key", key)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

type noopPublisher struct{}

func (p *noopPublisher) Publish(ctx context.Context, eventType, key string, payload any) {}

func (p *noopPublisher) Close() error { return nil }
