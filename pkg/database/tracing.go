package database

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/storefront-labs/orderengine/pkg/database"

// QueryTracer opens a client span per database operation and logs
// operations slower than a threshold. A nil *QueryTracer is valid and only
// traces.
type QueryTracer struct {
	threshold time.Duration
	logger    *slog.Logger
}

// NewQueryTracer returns a tracer that warns about operations taking at
// least threshold. A zero threshold disables slow-query logging.
func NewQueryTracer(threshold time.Duration, logger *slog.Logger) *QueryTracer {
	return &QueryTracer{threshold: threshold, logger: logger}
}

// Trace starts a span for operation. Call the returned func with the
// operation's error when it completes:
//
//	ctx, end := t.Trace(ctx, "DecrementStock", query)
//	defer func() { end(err) }()
func (t *QueryTracer) Trace(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", statement),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if t == nil || t.threshold <= 0 || t.logger == nil {
			return
		}
		if elapsed := time.Since(start); elapsed >= t.threshold {
			attrs := []any{
				slog.String("operation", operation),
				slog.String("statement", statement),
				slog.Duration("duration", elapsed),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			t.logger.WarnContext(ctx, "slow query detected", attrs...)
		}
	}
}
