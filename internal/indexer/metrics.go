package indexer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const indexerInstrumentationName = "github.com/fyrsmithlabs/recalld/internal/indexer"

// Metrics tracks background index synchronization outcomes.
type Metrics struct {
	meter    metric.Meter
	logger   *zap.Logger
	duration metric.Float64Histogram
	failures metric.Int64Counter
}

// NewMetrics creates a new Metrics instance for the indexer.
func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{
		meter:  otel.Meter(indexerInstrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.duration, err = m.meter.Float64Histogram(
		"recalld.indexer.sync_duration_seconds",
		metric.WithDescription("Duration of background note index sync operations, labeled by operation (index, delete)"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		m.logger.Warn("failed to create sync duration histogram", zap.Error(err))
	}

	m.failures, err = m.meter.Int64Counter(
		"recalld.indexer.sync_failures_total",
		metric.WithDescription("Total background index sync failures. Failures leave retrieval stale for the affected note but never fail the originating request."),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		m.logger.Warn("failed to create sync failures counter", zap.Error(err))
	}
}

// RecordSync records one background sync attempt.
func (m *Metrics) RecordSync(ctx context.Context, operation string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{attribute.String("operation", operation)}

	if m.duration != nil {
		m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if err != nil && m.failures != nil {
		m.failures.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
