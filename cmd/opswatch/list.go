package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/opswatch/store"
)

func newListCmd(configPath *string) *cobra.Command {
	var (
		limit int
		dr    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print stored deployment metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadPersistentApp(ctx, *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.WithoutCancel(ctx)) }()

			s := a.primary
			if dr {
				s = a.dr
			}
			records, err := store.List(ctx, s, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", store.DefaultListLimit, "maximum number of records")
	cmd.Flags().BoolVar(&dr, "dr", false, "read from the DR store instead of the primary")
	return cmd
}
