package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/time/rate"

	"github.com/jonwraymond/opswatch/config"
	"github.com/jonwraymond/opswatch/health"
	"github.com/jonwraymond/opswatch/notify"
	"github.com/jonwraymond/opswatch/observe"
	"github.com/jonwraymond/opswatch/replication"
	"github.com/jonwraymond/opswatch/store"
)

// Names under which the standard probes are registered.
const (
	probeAPI     = "API Gateway"
	probeStore   = "Metric Store"
	probeCompute = "Lambda Functions"
	probeMemory  = "Monitor Memory"
)

// app holds the collaborators built once from Config and shared by every
// subcommand.
type app struct {
	cfg      config.Config
	obs      observe.Observer
	logger   observe.Logger
	metrics  observe.Metrics
	primary  store.Store
	dr       store.Store
	notifier notify.Notifier
}

func loadApp(ctx context.Context, configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg, logOut)
}

// errEphemeralStore rejects commands whose effect would vanish with the
// process.
var errEphemeralStore = errors.New("memory store driver keeps no data between runs; set store.driver to sqlite or redis")

// loadPersistentApp is loadApp for one-shot commands that read or write
// records across invocations.
func loadPersistentApp(ctx context.Context, configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Store.Driver == store.DriverMemory {
		return nil, errEphemeralStore
	}
	return newApp(ctx, cfg, logOut)
}

func newApp(ctx context.Context, cfg config.Config, logOut io.Writer) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	if a.obs, err = observe.NewObserverWithWriter(ctx, cfg.Observe, logOut); err != nil {
		return nil, fmt.Errorf("observe: %w", err)
	}
	a.logger = a.obs.Logger()

	if a.metrics, err = observe.NewMetrics(a.obs.Meter()); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	opts := []store.Option{store.WithPageSize(cfg.Store.PageSize)}
	if a.primary, err = store.Open(ctx, cfg.Store.Driver, cfg.Store.PrimaryDSN, cfg.StoreName, opts...); err != nil {
		return nil, fmt.Errorf("open primary store: %w", err)
	}
	if a.dr, err = store.Open(ctx, cfg.Store.Driver, cfg.Store.DRDSN, cfg.StoreName, opts...); err != nil {
		return nil, fmt.Errorf("open dr store: %w", err)
	}

	a.notifier, err = notify.New(notify.Config{
		Topic:       cfg.NotifyTopic,
		Timeout:     cfg.Notify.Timeout,
		MaxAttempts: cfg.Notify.MaxAttempts,
		RateLimit:   rate.Limit(cfg.Notify.Rate),
		Burst:       cfg.Notify.Burst,
		Logger:      a.logger,
	})
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (a *app) aggregator() *health.Aggregator {
	reg := health.NewRegistry()

	api := health.StaticProbe("API responding normally")
	if a.cfg.APIEndpoint != "" {
		api = health.HTTPProbe(a.cfg.APIEndpoint, nil)
	}
	reg.MustRegister(probeAPI, api)
	reg.MustRegister(probeStore, health.StoreProbe(a.primary))
	reg.MustRegister(probeCompute, health.StaticProbe("All functions operational"))
	reg.MustRegister(probeMemory, health.MemoryProbe(health.MemoryProbeConfig{}))

	return health.NewAggregator(reg,
		health.WithSink(observe.NewSink(a.obs.Meter())),
		health.WithNotifier(a.notifier),
		health.WithLogger(a.logger),
		health.WithTracer(a.obs.Tracer()),
		health.WithMetrics(a.metrics),
		health.WithConfig(health.AggregatorConfig{ProbeTimeout: a.cfg.Health.ProbeTimeout}),
	)
}

func (a *app) replicator() *replication.Replicator {
	return replication.New(
		replication.WithLogger(a.logger),
		replication.WithTracer(a.obs.Tracer()),
		replication.WithMetrics(a.metrics),
		replication.WithWriteLimit(rate.Limit(a.cfg.Replication.WriteRate), a.cfg.Replication.WriteBurst),
	)
}

func (a *app) endpoints() (replication.Endpoint, replication.Endpoint) {
	return replication.Endpoint{Region: a.cfg.PrimaryRegion, Store: a.primary},
		replication.Endpoint{Region: a.cfg.DRRegion, Store: a.dr}
}

// Close releases stores, the notifier and telemetry providers.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for _, s := range []store.Store{a.primary, a.dr} {
		if s != nil {
			if err := s.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if c, ok := a.notifier.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.obs != nil {
		if err := a.obs.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
