package observability_test

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xraph/foreman/event"
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/observability"
)

func setupTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return reader, mp
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func emit(t *testing.T, m *observability.Metrics, evt event.Event) {
	t.Helper()
	if err := m.Handle(context.Background(), evt); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}

func TestMetrics_CountsEvents(t *testing.T) {
	reader, mp := setupTestMeter()
	m := observability.NewMetricsWithMeter(mp.Meter("test"))
	jobID := id.NewJobID()

	emit(t, m, event.Event{Type: event.TypeJobCreated, JobID: jobID, Timestamp: time.Now()})
	emit(t, m, event.Event{Type: event.TypeJobCreated, JobID: id.NewJobID(), Timestamp: time.Now()})
	emit(t, m, event.Event{Type: event.TypeJobCancelled, JobID: jobID, Timestamp: time.Now()})

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "foreman.job.events")
	if metric == nil {
		t.Fatal("foreman.job.events metric not found")
	}

	sum, ok := metric.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("expected Sum[int64] data type")
	}

	byType := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		for _, attr := range dp.Attributes.ToSlice() {
			if string(attr.Key) == "event_type" {
				byType[attr.Value.AsString()] = dp.Value
			}
		}
	}
	if byType["job_created"] != 2 {
		t.Errorf("job_created count = %d, want 2", byType["job_created"])
	}
	if byType["job_cancelled"] != 1 {
		t.Errorf("job_cancelled count = %d, want 1", byType["job_cancelled"])
	}
}

func TestMetrics_QueueDepth(t *testing.T) {
	reader, mp := setupTestMeter()
	m := observability.NewMetricsWithMeter(mp.Meter("test"))

	emit(t, m, event.Event{
		Type:      event.TypeJobQueued,
		JobID:     id.NewJobID(),
		Timestamp: time.Now(),
		Fields:    map[string]any{"queue_size": 7},
	})

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "foreman.queue.depth")
	if metric == nil {
		t.Fatal("foreman.queue.depth metric not found")
	}

	gauge, ok := metric.Data.(metricdata.Gauge[int64])
	if !ok {
		t.Fatal("expected Gauge[int64] data type")
	}
	if len(gauge.DataPoints) == 0 {
		t.Fatal("no data points recorded")
	}
	if gauge.DataPoints[0].Value != 7 {
		t.Errorf("queue depth = %d, want 7", gauge.DataPoints[0].Value)
	}
}

func TestMetrics_RecordsDuration(t *testing.T) {
	reader, mp := setupTestMeter()
	m := observability.NewMetricsWithMeter(mp.Meter("test"))
	jobID := id.NewJobID()

	startedAt := time.Now()
	emit(t, m, event.Event{Type: event.TypeJobStarted, JobID: jobID, Timestamp: startedAt})
	emit(t, m, event.Event{Type: event.TypeJobCompleted, JobID: jobID, Timestamp: startedAt.Add(250 * time.Millisecond)})

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "foreman.job.duration")
	if metric == nil {
		t.Fatal("foreman.job.duration metric not found")
	}

	hist, ok := metric.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("expected Histogram[float64] data type")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points recorded for duration")
	}
	dp := hist.DataPoints[0]
	if dp.Count != 1 {
		t.Errorf("expected count=1, got %d", dp.Count)
	}
	if dp.Sum < 0.2 || dp.Sum > 0.3 {
		t.Errorf("duration sum = %f, want ~0.25", dp.Sum)
	}

	found := false
	for _, attr := range dp.Attributes.ToSlice() {
		if string(attr.Key) == "status" && attr.Value.AsString() == "completed" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected status=completed attribute on duration histogram")
	}
}

func TestMetrics_FailureWithoutStartSkipsDuration(t *testing.T) {
	reader, mp := setupTestMeter()
	m := observability.NewMetricsWithMeter(mp.Meter("test"))

	// A job failed straight from queued has no start to measure from.
	emit(t, m, event.Event{Type: event.TypeJobFailed, JobID: id.NewJobID(), Timestamp: time.Now()})

	rm := collectMetrics(t, reader)
	if metric := findMetric(rm, "foreman.job.duration"); metric != nil {
		if hist, ok := metric.Data.(metricdata.Histogram[float64]); ok && len(hist.DataPoints) > 0 {
			t.Error("expected no duration data points without a started event")
		}
	}
}

func TestMetrics_FailureStatusAttribute(t *testing.T) {
	reader, mp := setupTestMeter()
	m := observability.NewMetricsWithMeter(mp.Meter("test"))
	jobID := id.NewJobID()

	startedAt := time.Now()
	emit(t, m, event.Event{Type: event.TypeJobStarted, JobID: jobID, Timestamp: startedAt})
	emit(t, m, event.Event{Type: event.TypeJobFailed, JobID: jobID, Timestamp: startedAt.Add(10 * time.Millisecond)})

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "foreman.job.duration")
	if metric == nil {
		t.Fatal("foreman.job.duration metric not found")
	}

	hist, ok := metric.Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) == 0 {
		t.Fatal("expected histogram data points")
	}

	var attrs []attribute.KeyValue
	attrs = hist.DataPoints[0].Attributes.ToSlice()
	found := false
	for _, attr := range attrs {
		if string(attr.Key) == "status" && attr.Value.AsString() == "failed" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected status=failed attribute on duration histogram")
	}
}

func TestMetrics_DefaultNoopSafe(t *testing.T) {
	// Without a global provider the subscriber must not panic.
	m := observability.NewMetrics()
	jobID := id.NewJobID()

	emit(t, m, event.Event{Type: event.TypeJobStarted, JobID: jobID, Timestamp: time.Now()})
	emit(t, m, event.Event{Type: event.TypeJobCompleted, JobID: jobID, Timestamp: time.Now()})
}
