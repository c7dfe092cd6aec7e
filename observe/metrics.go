package observe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Datum is a single gauge observation handed to a Sink.
type Datum struct {
	Namespace string
	Name      string
	Value     float64
	Unit      string
	Timestamp time.Time
}

// Sink accepts summary metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Emit is best-effort; callers log and drop returned errors.
type Sink interface {
	Emit(ctx context.Context, d Datum) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, d Datum) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, d Datum) error {
	return f(ctx, d)
}

// meterSink records each Datum as the current value of a gauge. One gauge is
// created per metric name; the namespace travels as an attribute.
type meterSink struct {
	meter metric.Meter

	mu     sync.Mutex
	gauges map[string]metric.Float64Gauge
}

// NewSink returns a Sink backed by meter. The Datum timestamp is ignored; the
// reader stamps observations at collection time.
func NewSink(meter metric.Meter) Sink {
	return &meterSink{
		meter:  meter,
		gauges: make(map[string]metric.Float64Gauge),
	}
}

func (s *meterSink) Emit(ctx context.Context, d Datum) error {
	if d.Name == "" {
		return ErrMissingMetricName
	}

	g, err := s.gauge(d.Name, d.Unit)
	if err != nil {
		return err
	}

	g.Record(ctx, d.Value, metric.WithAttributes(attribute.String("namespace", d.Namespace)))
	return nil
}

func (s *meterSink) gauge(name, unit string) (metric.Float64Gauge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g, ok := s.gauges[name]; ok {
		return g, nil
	}

	g, err := s.meter.Float64Gauge(name, metric.WithUnit(ucumUnit(unit)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInstrument, name, err)
	}
	s.gauges[name] = g
	return g, nil
}

// ucumUnit maps the coarse unit names used by callers onto UCUM codes.
func ucumUnit(unit string) string {
	switch unit {
	case "Count", "":
		return "1"
	case "Seconds":
		return "s"
	case "Milliseconds":
		return "ms"
	case "Percent":
		return "%"
	default:
		return unit
	}
}

// Metrics records run-level metrics for health cycles and replication runs.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCycle records one aggregation cycle.
	RecordCycle(ctx context.Context, total, healthy int, duration time.Duration)

	// RecordReplication records one replication run.
	RecordReplication(ctx context.Context, run ReplicationRun)
}

// ReplicationRun summarises a replication run for metrics.
type ReplicationRun struct {
	SourceRegion string
	DestRegion   string
	Replicated   int
	Failed       int
	Succeeded    bool
	Duration     time.Duration
}

type metricsImpl struct {
	cycles       metric.Int64Counter
	unhealthy    metric.Int64Counter
	cycleHist    metric.Float64Histogram
	records      metric.Int64Counter
	failures     metric.Int64Counter
	runs         metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates the run metrics instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m := &metricsImpl{}
	var err error

	if m.cycles, err = meter.Int64Counter(
		"opswatch.health.cycles",
		metric.WithDescription("Health aggregation cycles run"),
		metric.WithUnit("{cycle}"),
	); err != nil {
		return nil, err
	}

	if m.unhealthy, err = meter.Int64Counter(
		"opswatch.health.unhealthy",
		metric.WithDescription("Unhealthy probe results observed"),
		metric.WithUnit("{check}"),
	); err != nil {
		return nil, err
	}

	if m.cycleHist, err = meter.Float64Histogram(
		"opswatch.health.duration_ms",
		metric.WithDescription("Health aggregation cycle duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.records, err = meter.Int64Counter(
		"opswatch.replication.records",
		metric.WithDescription("Records written to the destination region"),
		metric.WithUnit("{record}"),
	); err != nil {
		return nil, err
	}

	if m.failures, err = meter.Int64Counter(
		"opswatch.replication.failures",
		metric.WithDescription("Records that failed to replicate"),
		metric.WithUnit("{record}"),
	); err != nil {
		return nil, err
	}

	if m.runs, err = meter.Int64Counter(
		"opswatch.replication.runs",
		metric.WithDescription("Replication runs by outcome"),
		metric.WithUnit("{run}"),
	); err != nil {
		return nil, err
	}

	if m.durationHist, err = meter.Float64Histogram(
		"opswatch.replication.duration_ms",
		metric.WithDescription("Replication run duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metricsImpl) RecordCycle(ctx context.Context, total, healthy int, duration time.Duration) {
	m.cycles.Add(ctx, 1)
	if unhealthy := total - healthy; unhealthy > 0 {
		m.unhealthy.Add(ctx, int64(unhealthy))
	}
	m.cycleHist.Record(ctx, float64(duration.Milliseconds()))
}

func (m *metricsImpl) RecordReplication(ctx context.Context, run ReplicationRun) {
	opt := metric.WithAttributes(
		attribute.String("source_region", run.SourceRegion),
		attribute.String("dest_region", run.DestRegion),
	)

	outcome := "success"
	if !run.Succeeded {
		outcome = "failed"
	}

	m.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source_region", run.SourceRegion),
		attribute.String("dest_region", run.DestRegion),
		attribute.String("outcome", outcome),
	))
	m.records.Add(ctx, int64(run.Replicated), opt)
	if run.Failed > 0 {
		m.failures.Add(ctx, int64(run.Failed), opt)
	}
	m.durationHist.Record(ctx, float64(run.Duration.Milliseconds()), opt)
}

type nopMetrics struct{}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return nopMetrics{}
}

func (nopMetrics) RecordCycle(context.Context, int, int, time.Duration) {}
func (nopMetrics) RecordReplication(context.Context, ReplicationRun)    {}
