package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/opswatch/health"
)

type checkOutput struct {
	Timestamp time.Time            `json:"timestamp"`
	Overall   health.Overall       `json:"overall"`
	Healthy   int                  `json:"healthy"`
	Checks    []health.CheckResult `json:"checks"`
}

func newCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run one health aggregation cycle and print the report",
		Long: "Run every probe once, emit the HealthyServices metric and alert when degraded.\n" +
			"Exits with status 1 when any service is unhealthy.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.WithoutCancel(ctx)) }()

			report := a.aggregator().RunCycle(ctx)
			if err := writeJSON(cmd.OutOrStdout(), checkOutput{
				Timestamp: report.Timestamp,
				Overall:   report.Overall(),
				Healthy:   report.HealthyCount(),
				Checks:    report.Checks,
			}); err != nil {
				return err
			}

			if report.Overall() == health.OverallDegraded {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}
