package pkg

import (
	"log/slog"

	"github.com/co-intel-labs/labs-1.0/internal/config"
	"github.com/co-intel-labs/labs-1.0/internal/events"
)

// NewEventPublisher publishes to Kafka when brokers are configured and to an
// in-process channel otherwise.
func NewEventPublisher(cfg *config.Config, logger *slog.Logger) (events.EventPublisher, error) {
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Publishing events to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
		return publisher, nil
	}

	publisher, _ := events.NewGoChannelPublisher(cfg.Kafka.Topic, logger)
	logger.Info("Publishing events in-process", "topic", cfg.Kafka.Topic)
	return publisher, nil
}
