package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/opswatch/observe"
)

// Defaults for AggregatorConfig.
const (
	DefaultProbeTimeout = 10 * time.Second
	DefaultNamespace    = "DevOps/Health"
	DefaultMetricName   = "HealthyServices"
	DefaultAlertSubject = "DevOps Health Check Alert"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// ProbeTimeout bounds each probe invocation.
	// Default: 10 seconds
	ProbeTimeout time.Duration

	// Namespace is the metric namespace of the summary gauge.
	// Default: "DevOps/Health"
	Namespace string

	// MetricName is the name of the summary gauge.
	// Default: "HealthyServices"
	MetricName string

	// AlertSubject is the subject of degradation alerts.
	// Default: "DevOps Health Check Alert"
	AlertSubject string
}

func (c AggregatorConfig) withDefaults() AggregatorConfig {
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.MetricName == "" {
		c.MetricName = DefaultMetricName
	}
	if c.AlertSubject == "" {
		c.AlertSubject = DefaultAlertSubject
	}
	return c
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithSink sets the sink receiving the summary gauge.
func WithSink(s observe.Sink) Option {
	return func(a *Aggregator) { a.sink = s }
}

// WithNotifier sets the channel for degradation alerts. A nil notifier
// disables alerting.
func WithNotifier(n Notifier) Option {
	return func(a *Aggregator) { a.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithTracer sets the tracer wrapping each cycle.
func WithTracer(t observe.Tracer) Option {
	return func(a *Aggregator) {
		if t != nil {
			a.tracer = t
		}
	}
}

// WithMetrics sets the run metrics recorder.
func WithMetrics(m observe.Metrics) Option {
	return func(a *Aggregator) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithConfig sets the aggregator configuration. Zero fields take defaults.
func WithConfig(cfg AggregatorConfig) Option {
	return func(a *Aggregator) { a.config = cfg.withDefaults() }
}

// WithClock overrides the time source used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// Aggregator runs every probe of a Registry and builds a Report.
//
// Contract:
// - Concurrency: RunCycle may be called concurrently; each call owns its report.
// - Errors: RunCycle never fails; probe, sink and notifier failures are
//   contained and logged.
type Aggregator struct {
	registry *Registry
	config   AggregatorConfig
	sink     observe.Sink
	notifier Notifier
	logger   observe.Logger
	tracer   observe.Tracer
	metrics  observe.Metrics
	now      func() time.Time
}

// NewAggregator creates an aggregator over reg.
func NewAggregator(reg *Registry, opts ...Option) *Aggregator {
	if reg == nil {
		reg = NewRegistry()
	}
	a := &Aggregator{
		registry: reg,
		config:   AggregatorConfig{}.withDefaults(),
		logger:   observe.NopLogger(),
		tracer:   observe.NopTracer(),
		metrics:  observe.NopMetrics(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Registry returns the registry the aggregator reads from.
func (a *Aggregator) Registry() *Registry {
	return a.registry
}

// RunCycle invokes every registered probe sequentially in registration order,
// emits the HealthyServices gauge and, when the report is degraded, publishes
// one alert. The report is always returned.
func (a *Aggregator) RunCycle(ctx context.Context) Report {
	probes := a.registry.Probes()

	ctx, span := a.tracer.StartSpan(ctx, "health.cycle",
		attribute.Int("opswatch.probes", len(probes)),
	)

	start := a.now()
	report := Report{
		Timestamp: start,
		Checks:    make([]CheckResult, 0, len(probes)),
	}

	for _, np := range probes {
		report.Checks = append(report.Checks, a.runProbe(ctx, np))
	}

	healthy := report.HealthyCount()
	overall := report.Overall()

	a.emit(ctx, report, healthy)
	if overall == OverallDegraded {
		a.alert(ctx, report)
	}

	a.metrics.RecordCycle(ctx, len(report.Checks), healthy, a.now().Sub(start))
	a.logger.Info(ctx, "health cycle complete",
		observe.Field{Key: "overall", Value: overall.String()},
		observe.Field{Key: "healthy", Value: healthy},
		observe.Field{Key: "total", Value: len(report.Checks)},
	)

	span.SetAttributes(
		attribute.String("opswatch.overall", overall.String()),
		attribute.Int("opswatch.healthy", healthy),
	)
	a.tracer.EndSpan(span, nil)

	return report
}

// Check runs the single probe registered under name with the same failure
// isolation as RunCycle. It has no side effects.
func (a *Aggregator) Check(ctx context.Context, name string) (CheckResult, error) {
	p, err := a.registry.Lookup(name)
	if err != nil {
		return CheckResult{}, err
	}
	return a.runProbe(ctx, NamedProbe{Name: name, Probe: p}), nil
}

func (a *Aggregator) runProbe(ctx context.Context, np NamedProbe) CheckResult {
	start := a.now()

	ctx, cancel := context.WithTimeout(ctx, a.config.ProbeTimeout)
	defer cancel()

	ch := make(chan probeOutcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- probeOutcome{err: fmt.Errorf("%w: %v", ErrProbePanic, r)}
			}
		}()
		res, err := np.Probe.Check(ctx)
		ch <- probeOutcome{result: res, err: err}
	}()

	var res CheckResult
	out, err := awaitOutcome(ctx, ch)
	switch {
	case err != nil:
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", ErrProbeTimeout, a.config.ProbeTimeout)
		}
		res = a.failed(ctx, np.Name, err)
	case out.err != nil:
		res = a.failed(ctx, np.Name, out.err)
	default:
		res = out.result
	}

	res.ServiceName = np.Name
	if res.Timestamp.IsZero() {
		res.Timestamp = start
	}
	res.Duration = a.now().Sub(start)
	return res
}

func (a *Aggregator) failed(ctx context.Context, name string, err error) CheckResult {
	failure := &ProbeFailure{Service: name, Err: err}
	a.logger.Warn(ctx, "probe failed",
		observe.Field{Key: "probe", Value: name},
		observe.Err(failure),
	)
	return CheckResult{
		Status:  StatusUnhealthy,
		Message: err.Error(),
		Err:     failure,
	}
}

func (a *Aggregator) emit(ctx context.Context, report Report, healthy int) {
	if a.sink == nil {
		return
	}
	err := a.sink.Emit(ctx, observe.Datum{
		Namespace: a.config.Namespace,
		Name:      a.config.MetricName,
		Value:     float64(healthy),
		Unit:      "Count",
		Timestamp: report.Timestamp,
	})
	if err != nil {
		a.logger.Error(ctx, "failed to emit health metric",
			observe.Field{Key: "metric", Value: a.config.MetricName},
			observe.Err(fmt.Errorf("%w: %v", ErrSinkUnavailable, err)),
		)
	}
}

func (a *Aggregator) alert(ctx context.Context, report Report) {
	if a.notifier == nil {
		a.logger.Warn(ctx, "health degraded, no notifier configured",
			observe.Field{Key: "unhealthy", Value: len(report.Unhealthy())},
		)
		return
	}
	if err := a.notifier.Publish(ctx, a.config.AlertSubject, FormatAlert(report)); err != nil {
		a.logger.Error(ctx, "failed to publish health alert",
			observe.Err(fmt.Errorf("%w: %v", ErrNotifyFailed, err)),
		)
	}
}

type probeOutcome struct {
	result CheckResult
	err    error
}

// awaitOutcome waits for the probe goroutine or ctx. A result already sent
// when ctx ends is returned in preference to ctx's error.
func awaitOutcome(ctx context.Context, ch <-chan probeOutcome) (probeOutcome, error) {
	select {
	case out := <-ch:
		return out, nil
	case <-ctx.Done():
		select {
		case out := <-ch:
			return out, nil
		default:
			return probeOutcome{}, ctx.Err()
		}
	}
}
