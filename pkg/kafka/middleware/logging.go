package kafka_middleware

import (
	"context"
	"time"

	"purohit/pkg/kafka"
	"purohit/pkg/logger"
)

// LoggingProducerMiddleware logs every publish with its outcome and latency.
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)
		duration := time.Since(start)

		if err != nil {
			log.Error("Failed to publish message",
				"key", msg.Key,
				"event_id", msg.GetEventID(),
				"event_type", msg.GetEventType(),
				"correlation_id", msg.GetCorrelationID(),
				"duration", duration,
				"error", err,
			)
			return err
		}

		log.Info("Published message",
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"correlation_id", msg.GetCorrelationID(),
			"duration", duration,
		)
		return nil
	}
}

// LoggingConsumerMiddleware logs every consumed message with its outcome.
func LoggingConsumerMiddleware(log *logger.Logger) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()

		err := next(ctx, msg)
		duration := time.Since(start)

		if err != nil {
			log.Error("Failed to process message",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"key", msg.Key,
				"event_id", msg.GetEventID(),
				"event_type", msg.GetEventType(),
				"duration", duration,
				"error", err,
			)
			return err
		}

		log.Info("Processed message",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"duration", duration,
		)
		return nil
	}
}
