package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected int64 sum, got %T", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestPassMetrics_RecordPass(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewPassMetrics(mp.Meter(MeterName))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	m.RecordPass(ctx, "extract", 4, 3, 10*time.Millisecond)
	m.RecordPass(ctx, "extract", 1, 0, 2*time.Millisecond)

	got := collect(t, reader)
	if v := sumOf(t, got["bubbler_passes_total"]); v != 2 {
		t.Errorf("expected 2 passes, got %d", v)
	}
	if v := sumOf(t, got["bubbler_removed_nodes_total"]); v != 3 {
		t.Errorf("expected 3 removed, got %d", v)
	}
	if v := sumOf(t, got["bubbler_candidates_total"]); v != 5 {
		t.Errorf("expected 5 candidates, got %d", v)
	}

	hist, ok := got["bubbler_pass_duration_seconds"].(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected float64 histogram, got %T", got["bubbler_pass_duration_seconds"])
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 2 {
		t.Errorf("expected one data point with 2 observations, got %+v", hist.DataPoints)
	}
}

func TestPassMetrics_NilIsNoop(t *testing.T) {
	var m *PassMetrics
	m.RecordPass(context.Background(), "fused", 1, 1, time.Millisecond)
}

func TestMetrics_Singleton(t *testing.T) {
	a := Metrics()
	b := Metrics()
	if a == nil {
		t.Fatal("expected non-nil global metrics")
	}
	if a != b {
		t.Fatal("expected the same instance on repeated calls")
	}
}

func TestInitMetrics_FlushesOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	mp, err := InitMetrics(&buf, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, err := NewPassMetrics(mp.Meter(MeterName))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.RecordPass(context.Background(), "extract", 2, 1, time.Millisecond)

	if err := mp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("bubbler_removed_nodes_total")) {
		t.Fatalf("expected exported metrics to mention removed nodes, got %s", buf.String())
	}
}
