package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Create or update the users and scores tables and their indexes.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := flags.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close() //nolint: errcheck

			fmt.Fprintln(cmd.OutOrStdout(), "Database migrations completed successfully!")
			return nil
		},
	}
}
