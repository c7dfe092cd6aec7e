package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newReplicateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "replicate",
		Short: "Copy every record from the primary store to the DR store",
		Long:  "Run one replication pass and print its result. Exits with status 1 when the run failed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadPersistentApp(ctx, *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.WithoutCancel(ctx)) }()

			src, dst := a.endpoints()
			res := a.replicator().Replicate(ctx, src, dst)
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}

			if !res.Succeeded() {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}
