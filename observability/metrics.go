package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/foreman/event"
)

// meterName is the instrumentation scope name for foreman metrics.
const meterName = "github.com/xraph/foreman"

// Metrics is an event bus subscriber that records lifecycle metrics.
//
// Instruments:
//   - foreman.job.events (Int64Counter): every lifecycle event,
//     with attribute: event_type
//   - foreman.queue.depth (Int64Gauge): queue size sampled at each
//     job_queued event
//   - foreman.job.duration (Float64Histogram): wall time from the
//     started event to the completed or failed event in seconds,
//     with attribute: status ("completed" or "failed")
type Metrics struct {
	events   metric.Int64Counter
	depth    metric.Int64Gauge
	duration metric.Float64Histogram

	mu      sync.Mutex
	started map[string]time.Time
}

// NewMetrics creates a Metrics subscriber using the global OTel
// MeterProvider. If no MeterProvider is configured, noop instruments
// are used and the subscriber becomes a pass-through.
func NewMetrics() *Metrics {
	return NewMetricsWithMeter(otel.Meter(meterName))
}

// NewMetricsWithMeter creates a Metrics subscriber with the provided
// meter. This variant allows injecting a specific MeterProvider for
// testing.
func NewMetricsWithMeter(meter metric.Meter) *Metrics {
	// Instruments are created once here. On error the OTel API returns
	// noop instruments, so the subscriber degrades gracefully.
	events, eErr := meter.Int64Counter(
		"foreman.job.events",
		metric.WithDescription("Total number of job lifecycle events"),
		metric.WithUnit("{event}"),
	)
	_ = eErr

	depth, dErr := meter.Int64Gauge(
		"foreman.queue.depth",
		metric.WithDescription("Number of queued jobs, sampled at enqueue"),
		metric.WithUnit("{job}"),
	)
	_ = dErr

	duration, hErr := meter.Float64Histogram(
		"foreman.job.duration",
		metric.WithDescription("Wall time from job start to terminal state in seconds"),
		metric.WithUnit("s"),
	)
	_ = hErr

	return &Metrics{
		events:   events,
		depth:    depth,
		duration: duration,
		started:  make(map[string]time.Time),
	}
}

// Handle is the event.Handler to subscribe on the bus. It never
// returns an error.
func (m *Metrics) Handle(ctx context.Context, evt event.Event) error {
	m.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", string(evt.Type)),
	))

	switch evt.Type {
	case event.TypeJobQueued:
		if size, ok := evt.Fields["queue_size"].(int); ok {
			m.depth.Record(ctx, int64(size))
		}

	case event.TypeJobStarted:
		m.mu.Lock()
		m.started[evt.JobID.String()] = evt.Timestamp
		m.mu.Unlock()

	case event.TypeJobCompleted:
		m.recordDuration(ctx, evt, "completed")

	case event.TypeJobFailed:
		m.recordDuration(ctx, evt, "failed")

	case event.TypeJobCancelled:
		// A cancelled job never started; drop any stray entry.
		m.mu.Lock()
		delete(m.started, evt.JobID.String())
		m.mu.Unlock()
	}

	return nil
}

func (m *Metrics) recordDuration(ctx context.Context, evt event.Event, status string) {
	key := evt.JobID.String()

	m.mu.Lock()
	startedAt, ok := m.started[key]
	delete(m.started, key)
	m.mu.Unlock()

	if !ok {
		// Failed straight from queued, or started before this
		// subscriber attached. Nothing to measure.
		return
	}

	m.duration.Record(ctx, evt.Timestamp.Sub(startedAt).Seconds(), metric.WithAttributes(
		attribute.String("status", status),
	))
}
