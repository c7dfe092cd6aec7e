package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/opswatch/observe"
)

func newServeCmd(configPath *string) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run health cycles and replication on their schedules",
		Long: "Schedule health cycles and replication runs from the config's cron specs.\n" +
			"With the prometheus metrics exporter, /metrics is served on metrics_addr.\n" +
			"Stops on SIGINT or SIGTERM.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.WithoutCancel(ctx)) }()

			return a.serve(ctx, runNow)
		},
	}

	cmd.Flags().BoolVar(&runNow, "run-now", false, "run one health cycle and one replication before the first tick")
	return cmd
}

func (a *app) serve(ctx context.Context, runNow bool) error {
	agg := a.aggregator()
	rep := a.replicator()
	src, dst := a.endpoints()

	healthJob := func() { agg.RunCycle(ctx) }
	replicationJob := func() { rep.Replicate(ctx, src, dst) }

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(a.cfg.Schedule.Health, healthJob); err != nil {
		return err
	}
	if _, err := scheduler.AddFunc(a.cfg.Schedule.Replication, replicationJob); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if runNow {
		g.Go(func() error {
			healthJob()
			replicationJob()
			return nil
		})
	}

	scheduler.Start()
	a.logger.Info(ctx, "scheduler started",
		observe.Field{Key: "health_schedule", Value: a.cfg.Schedule.Health},
		observe.Field{Key: "replication_schedule", Value: a.cfg.Schedule.Replication},
	)
	g.Go(func() error {
		<-ctx.Done()
		<-scheduler.Stop().Done()
		return nil
	})

	if a.cfg.Observe.Metrics.Enabled && a.cfg.Observe.Metrics.Exporter == "prometheus" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{
			Addr:              a.cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			a.logger.Info(ctx, "serving metrics", observe.Field{Key: "addr", Value: srv.Addr})
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	a.logger.Info(context.WithoutCancel(ctx), "scheduler stopped")
	return err
}
