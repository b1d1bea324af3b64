package simulation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "driftpursuit/vehicles/internal/simulation"

// TickMetricsSnapshot summarises observed step durations.
type TickMetricsSnapshot struct {
	Samples int
	Average time.Duration
	Max     time.Duration
	Last    time.Duration
}

// AverageFPS derives the steps-per-second equivalent of the average step duration.
func (s TickMetricsSnapshot) AverageFPS() float64 {
	if s.Average <= 0 {
		return 0
	}
	return float64(time.Second) / float64(s.Average)
}

// TickMonitor accumulates step timing and mirrors it to OpenTelemetry instruments.
type TickMonitor struct {
	mu      sync.Mutex
	samples int
	total   time.Duration
	max     time.Duration
	last    time.Duration

	duration metric.Float64Histogram
	ticks    metric.Int64Counter
	attrs    metric.MeasurementOption
}

// NewTickMonitor registers the tick instruments on meter, or on the global provider when
// meter is nil. The global provider is a no-op unless the host installs one.
func NewTickMonitor(meter metric.Meter, world string) (*TickMonitor, error) {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	duration, err := meter.Float64Histogram(
		"simulation.tick.duration",
		metric.WithDescription("Wall time spent in one simulation step"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}
	ticks, err := meter.Int64Counter(
		"simulation.ticks",
		metric.WithDescription("Simulation steps completed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}
	return &TickMonitor{
		duration: duration,
		ticks:    ticks,
		attrs:    metric.WithAttributes(attribute.String("world", world)),
	}, nil
}

// Observe records the duration of a completed step.
func (m *TickMonitor) Observe(duration time.Duration) {
	if m == nil || duration <= 0 {
		return
	}
	m.mu.Lock()
	m.samples++
	m.total += duration
	//1.- Track the worst step so spikes stand out.
	if duration > m.max {
		m.max = duration
	}
	m.last = duration
	m.mu.Unlock()

	ctx := context.Background()
	if m.duration != nil {
		m.duration.Record(ctx, float64(duration)/float64(time.Millisecond), m.attrs)
	}
	if m.ticks != nil {
		m.ticks.Add(ctx, 1, m.attrs)
	}
}

// Snapshot returns a copy of the aggregated statistics.
func (m *TickMonitor) Snapshot() TickMetricsSnapshot {
	if m == nil {
		return TickMetricsSnapshot{}
	}
	m.mu.Lock()
	samples, total, max, last := m.samples, m.total, m.max, m.last
	m.mu.Unlock()

	average := time.Duration(0)
	if samples > 0 {
		average = total / time.Duration(samples)
	}
	return TickMetricsSnapshot{Samples: samples, Average: average, Max: max, Last: last}
}

// Reset clears the accumulated statistics. Exported instruments keep their totals.
func (m *TickMonitor) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.samples = 0
	m.total = 0
	m.max = 0
	m.last = 0
	m.mu.Unlock()
}
