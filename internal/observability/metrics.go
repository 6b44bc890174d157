package observability

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MeterName is the instrumentation scope of bubbler metrics.
const MeterName = TracerName

// PassMetrics holds the instruments recorded after every simplification pass.
type PassMetrics struct {
	passesTotal     metric.Int64Counter
	removedTotal    metric.Int64Counter
	candidatesTotal metric.Int64Counter
	passDuration    metric.Float64Histogram
}

// NewPassMetrics creates the pass instruments on meter.
func NewPassMetrics(meter metric.Meter) (*PassMetrics, error) {
	m := &PassMetrics{}
	var err error

	m.passesTotal, err = meter.Int64Counter(
		"bubbler_passes_total",
		metric.WithDescription("Total number of simplification passes"),
	)
	if err != nil {
		return nil, fmt.Errorf("create passes counter: %w", err)
	}

	m.removedTotal, err = meter.Int64Counter(
		"bubbler_removed_nodes_total",
		metric.WithDescription("Total number of nodes removed as bubble branches"),
	)
	if err != nil {
		return nil, fmt.Errorf("create removed counter: %w", err)
	}

	m.candidatesTotal, err = meter.Int64Counter(
		"bubbler_candidates_total",
		metric.WithDescription("Total number of candidate bubbles found"),
	)
	if err != nil {
		return nil, fmt.Errorf("create candidates counter: %w", err)
	}

	m.passDuration, err = meter.Float64Histogram(
		"bubbler_pass_duration_seconds",
		metric.WithDescription("Duration of simplification passes"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pass duration histogram: %w", err)
	}

	return m, nil
}

// RecordPass records one finished pass.
func (m *PassMetrics) RecordPass(ctx context.Context, mode string, candidates, removed int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	m.passesTotal.Add(ctx, 1, attrs)
	m.candidatesTotal.Add(ctx, int64(candidates), attrs)
	m.removedTotal.Add(ctx, int64(removed), attrs)
	m.passDuration.Record(ctx, duration.Seconds(), attrs)
}

var (
	globalMetrics *PassMetrics
	metricsOnce   sync.Once
)

// Metrics returns the pass metrics bound to the global meter provider.
// It returns nil if the instruments could not be created; RecordPass on a
// nil *PassMetrics is a no-op.
func Metrics() *PassMetrics {
	metricsOnce.Do(func() {
		m, err := NewPassMetrics(otel.Meter(MeterName))
		if err == nil {
			globalMetrics = m
		}
	})
	return globalMetrics
}

// InitMetrics installs a global meter provider that periodically writes
// metrics to w as JSON. Callers must Shutdown the provider to flush.
func InitMetrics(w io.Writer, interval time.Duration) (*sdkmetric.MeterProvider, error) {
	exporter, err := stdoutmetric.New(
		stdoutmetric.WithWriter(w),
		stdoutmetric.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("create stdout metric exporter: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(interval))
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
	)
	otel.SetMeterProvider(provider)
	return provider, nil
}
