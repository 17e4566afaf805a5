package event

import (
	"context"
	"log/slog"

	pkgkafka "github.com/storefront-labs/orderengine/pkg/kafka"
)

// LogBus is the Bus used when Kafka is disabled. It writes each event to the
// log at info level instead of a broker.
type LogBus struct {
	logger *slog.Logger
}

// NewLogBus creates a LogBus.
func NewLogBus(logger *slog.Logger) *LogBus {
	return &LogBus{logger: logger}
}

func (b *LogBus) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	b.logger.InfoContext(ctx, "event",
		slog.String("topic", topic),
		slog.String("event_id", event.EventID),
		slog.String("aggregate_id", event.AggregateID),
		slog.String("data", string(event.Data)),
	)
	return nil
}
