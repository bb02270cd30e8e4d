package main

import (
	"fmt"

	"snake/backend/internal/seed"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newSeedCmd(flags *rootFlags) *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "seed <file>",
		Short: "Load users and scores from a YAML seed file",
		Long: `Create the users listed in a YAML seed file together with their scores.
Users whose username or email already exists are skipped, so the same file can be applied repeatedly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}
			store, err := flags.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close() //nolint: errcheck

			seeder := &seed.Seeder{Store: store, Logger: zap.NewNop(), Cost: cost}
			res, err := seeder.Apply(cmd.Context(), f)
			fmt.Fprintf(cmd.OutOrStdout(), "Users created: %d\nUsers skipped: %d\nScores created: %d\n",
				res.UsersCreated, res.UsersSkipped, res.ScoresCreated)
			if err != nil {
				return fmt.Errorf("some seed entries failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "bcrypt-cost", bcrypt.DefaultCost, "bcrypt cost for seeded passwords")
	return cmd
}
