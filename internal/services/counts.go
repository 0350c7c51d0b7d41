package services

import (
	"context"
	"log/slog"
	"threadly/internal/counter"
	"threadly/internal/observability"
)

// bestEffortCounter applies counter updates after the primary write.
// Failures are logged and counted, never returned.
type bestEffortCounter struct {
	counter counter.Counter
	metrics *observability.Metrics
	logger  *slog.Logger
}

func newBestEffortCounter(c counter.Counter, m *observability.Metrics, l *slog.Logger) *bestEffortCounter {
	if m == nil {
		m = observability.NopMetrics()
	}
	return &bestEffortCounter{counter: c, metrics: m, logger: loggerOr(l)}
}

func (b *bestEffortCounter) inc(ctx context.Context, key string) {
	if b.counter == nil {
		return
	}
	b.report(ctx, "inc", key, b.counter.Inc(context.WithoutCancel(ctx), key))
}

func (b *bestEffortCounter) dec(ctx context.Context, key string) {
	if b.counter == nil {
		return
	}
	b.report(ctx, "dec", key, b.counter.Dec(context.WithoutCancel(ctx), key))
}

func (b *bestEffortCounter) report(ctx context.Context, op, key string, err error) {
	if err == nil {
		return
	}
	b.metrics.CounterErrors.WithLabelValues(op).Inc()
	b.logger.WarnContext(ctx, "counter update failed",
		slog.String("op", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

// count reads key, reporting zero when the counter is unavailable.
func (b *bestEffortCounter) count(ctx context.Context, key string) int64 {
	if b.counter == nil {
		return 0
	}
	n, err := b.counter.Count(ctx, key)
	if err != nil {
		b.metrics.CounterErrors.WithLabelValues("count").Inc()
		b.logger.WarnContext(ctx, "counter read failed", slog.String("key", key), slog.String("error", err.Error()))
		return 0
	}
	return n
}
