package kafka_middleware

import (
	"context"
	"time"

	"dayslot/pkg/kafka"
	"dayslot/pkg/logger"
)

// LoggingProducerMiddleware logs every publish with its outcome and duration
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		args := []any{
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"correlation_id", msg.GetCorrelationID(),
			"duration", time.Since(start),
		}
		if err != nil {
			log.Error("Failed to publish message", append(args, "transient", kafka.IsTransient(err), "error", err)...)
			return err
		}
		log.Debug("Published message", args...)
		return nil
	}
}
