// Package health runs a fixed, extensible set of named probes and folds their
// verdicts into one Report.
//
// # Core Concepts
//
// A Probe reports the status of one subsystem. Probes are registered by name
// in a Registry, which keeps registration order; that order is the order of
// Report.Checks. An Aggregator runs every registered probe once per cycle.
//
// A probe that returns an error, panics or overruns its timeout is recorded as
// an Unhealthy CheckResult carrying the failure detail. It never stops the
// remaining probes from running and never prevents the report from being
// returned.
//
// # Basic Usage
//
//	reg := health.NewRegistry()
//	reg.Register("API Gateway", health.StaticProbe("API responding normally"))
//	reg.Register("DynamoDB", health.StoreProbe(primary))
//	reg.Register("Lambda Functions", health.StaticProbe("All functions operational"))
//
//	agg := health.NewAggregator(reg,
//	    health.WithSink(observe.NewSink(meter)),
//	    health.WithNotifier(webhook),
//	)
//
//	report := agg.RunCycle(ctx)
//	if report.Overall() == health.OverallDegraded {
//	    // an alert has already been published
//	}
//
// # Side Effects
//
// Each cycle emits the HealthyServices gauge through the Sink and, when the
// report is degraded, publishes one alert through the Notifier. Both are
// best-effort: failures are logged and do not change the returned Report.
package health
