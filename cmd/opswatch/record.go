package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/opswatch/store"
)

func newRecordCmd(configPath *string) *cobra.Command {
	var (
		deploymentID string
		status       string
		duration     float64
		region       string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Store one deployment metric in the primary store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadPersistentApp(ctx, *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.WithoutCancel(ctx)) }()

			if region == "" {
				region = a.cfg.PrimaryRegion
			}
			rec := store.NewRecord(deploymentID, status, duration, region, time.Now())
			if err := a.primary.Put(ctx, rec); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}

	cmd.Flags().StringVar(&deploymentID, "deployment", "", "deployment id (default \"unknown\")")
	cmd.Flags().StringVar(&status, "status", "", "deployment status (default \"unknown\")")
	cmd.Flags().Float64Var(&duration, "duration", 0, "deployment duration in seconds")
	cmd.Flags().StringVar(&region, "region", "", "ingesting region (default primary_region)")
	return cmd
}
