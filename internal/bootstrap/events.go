package bootstrap

import (
	"context"

	"github.com/Domenick1991/hotelbooking/config"
	"github.com/Domenick1991/hotelbooking/internal/kafka"
	"github.com/Domenick1991/hotelbooking/internal/rabbitmq"
	"go.uber.org/zap"
)

// EventPublisher carries booking events to the configured broker.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
	Close() error
}

// NewEventPublisher picks the broker from events.driver. The returned check
// is nil when the broker offers no cheap reachability check.
func NewEventPublisher(cfg *config.Config, logger *zap.Logger) (EventPublisher, HealthCheck) {
	if cfg.Events.Driver == config.EventsDriverRabbitMQ {
		return rabbitmq.NewPublisher(cfg.RabbitMQ.URL, logger), nil
	}
	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	return producer, producer.CheckConnection
}
