package chat

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const chatInstrumentationName = "github.com/fyrsmithlabs/recalld/internal/chat"

// Metrics tracks chat turn outcomes.
type Metrics struct {
	meter    metric.Meter
	logger   *zap.Logger
	duration metric.Float64Histogram
	failures metric.Int64Counter
	degraded metric.Int64Counter
}

// NewMetrics creates a new Metrics instance for chat turns.
func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{
		meter:  otel.Meter(chatInstrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.duration, err = m.meter.Float64Histogram(
		"recalld.chat.turn_duration_seconds",
		metric.WithDescription("End-to-end chat turn duration by backend mode"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		m.logger.Warn("failed to create turn duration histogram", zap.Error(err))
	}

	m.failures, err = m.meter.Int64Counter(
		"recalld.chat.generation_failures_total",
		metric.WithDescription("Terminal generation failures by backend mode. Each failure served the fixed apology."),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		m.logger.Warn("failed to create failures counter", zap.Error(err))
	}

	m.degraded, err = m.meter.Int64Counter(
		"recalld.chat.degraded_turns_total",
		metric.WithDescription("Chat turns that ran without note evidence after a retrieval failure"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		m.logger.Warn("failed to create degraded counter", zap.Error(err))
	}
}

// RecordTurn records one completed chat turn.
func (m *Metrics) RecordTurn(ctx context.Context, mode string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{attribute.String("mode", mode)}

	if m.duration != nil {
		m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if err != nil && m.failures != nil {
		m.failures.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordDegraded counts a turn that continued without evidence.
func (m *Metrics) RecordDegraded(ctx context.Context, mode string) {
	if m.degraded != nil {
		m.degraded.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
	}
}
