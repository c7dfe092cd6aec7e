package replication

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/jonwraymond/opswatch/observe"
	"github.com/jonwraymond/opswatch/resilience"
)

// Option configures a Replicator.
type Option func(*Replicator)

// WithLogger sets the logger receiving per-record failures and the run
// summary.
func WithLogger(l observe.Logger) Option {
	return func(r *Replicator) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTracer sets the tracer wrapping each run.
func WithTracer(t observe.Tracer) Option {
	return func(r *Replicator) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithMetrics sets the run metrics recorder.
func WithMetrics(m observe.Metrics) Option {
	return func(r *Replicator) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithWriteLimit throttles destination writes to limit per second. A
// non-positive or infinite limit disables throttling.
func WithWriteLimit(limit rate.Limit, burst int) Option {
	return func(r *Replicator) {
		if limit <= 0 || limit == rate.Inf {
			r.limiter = nil
			return
		}
		r.limiter = resilience.NewLimiter(limit, burst)
	}
}

// WithClock overrides the time source for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Replicator) {
		if now != nil {
			r.now = now
		}
	}
}

// Replicator copies records between stores.
//
// Contract:
// - Concurrency: Replicate may be called concurrently; runs share nothing
//   but the write limiter.
// - Errors: Replicate never returns an error; failures are reported in
//   the Result.
type Replicator struct {
	logger  observe.Logger
	tracer  observe.Tracer
	metrics observe.Metrics
	limiter *resilience.Limiter
	now     func() time.Time
}

// New creates a Replicator.
func New(opts ...Option) *Replicator {
	r := &Replicator{
		logger:  observe.NopLogger(),
		tracer:  observe.NopTracer(),
		metrics: observe.NopMetrics(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Replicate copies every record of src into dst. It always returns a
// well-formed Result and logs it as one entry.
func (r *Replicator) Replicate(ctx context.Context, src, dst Endpoint) Result {
	ctx, span := r.tracer.StartSpan(ctx, "replication.run",
		attribute.String("opswatch.source_region", src.Region),
		attribute.String("opswatch.dest_region", dst.Region),
	)

	start := r.now()
	res := Result{
		SourceRegion: src.Region,
		DestRegion:   dst.Region,
	}

	err := r.copyAll(ctx, src, dst, &res)
	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
	} else {
		res.Status = StatusSuccess
	}
	res.Timestamp = r.now().UTC()

	r.metrics.RecordReplication(ctx, observe.ReplicationRun{
		SourceRegion: res.SourceRegion,
		DestRegion:   res.DestRegion,
		Replicated:   res.ReplicatedCount,
		Failed:       res.FailedCount,
		Succeeded:    res.Succeeded(),
		Duration:     res.Timestamp.Sub(start),
	})
	r.logResult(ctx, res)

	span.SetAttributes(
		attribute.Int("opswatch.replicated", res.ReplicatedCount),
		attribute.Int("opswatch.failed", res.FailedCount),
	)
	r.tracer.EndSpan(span, err)

	return res
}

func (r *Replicator) copyAll(ctx context.Context, src, dst Endpoint, res *Result) error {
	if src.Store == nil || dst.Store == nil {
		return ErrMissingStore
	}
	if sameStore(src.Store, dst.Store) {
		return ErrSameEndpoint
	}

	seen := make(map[string]struct{})
	token := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := src.Store.Scan(ctx, token)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrSourceScan, src.Region, err)
		}

		for _, rec := range page.Records {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}

			if err := ctx.Err(); err != nil {
				return err
			}
			if r.limiter != nil {
				if err := r.limiter.Wait(ctx); err != nil {
					return err
				}
			}

			if err := dst.Store.Put(ctx, rec); err != nil {
				res.FailedCount++
				r.logger.Warn(ctx, "record write failed",
					observe.Field{Key: "id", Value: rec.ID},
					observe.Field{Key: "dest_region", Value: dst.Region},
					observe.Err(fmt.Errorf("%w: %w", ErrRecordWrite, err)),
				)
				continue
			}
			res.ReplicatedCount++
		}

		if page.NextToken == "" {
			return nil
		}
		token = page.NextToken
	}
}

func (r *Replicator) logResult(ctx context.Context, res Result) {
	fields := []observe.Field{
		{Key: "status", Value: string(res.Status)},
		{Key: "replicated_items", Value: res.ReplicatedCount},
		{Key: "failed_items", Value: res.FailedCount},
		{Key: "primary_region", Value: res.SourceRegion},
		{Key: "dr_region", Value: res.DestRegion},
		{Key: "finished_at", Value: res.Timestamp.Format(time.RFC3339Nano)},
	}
	if res.Succeeded() {
		r.logger.Info(ctx, "replication complete", fields...)
		return
	}
	fields = append(fields, observe.Field{Key: "error", Value: res.Error})
	r.logger.Error(ctx, "replication failed", fields...)
}

// sameStore reports whether a and b are the same instance. Stores whose
// value is not comparable, including structs wrapping an uncomparable store,
// are never considered the same.
func sameStore(a, b any) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if !reflect.ValueOf(a).Comparable() || !reflect.ValueOf(b).Comparable() {
		return false
	}
	return a == b
}
