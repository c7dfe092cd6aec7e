// Package observe provides the telemetry primitives shared by the health
// aggregator and the replicator: a structured logger, span helpers, run
// metrics and the gauge sink used for the HealthyServices summary metric.
//
// It does no work of its own beyond exporter setup. Callers build an Observer
// once at startup and hand its pieces to the components that need them.
package observe
