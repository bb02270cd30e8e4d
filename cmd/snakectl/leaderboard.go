package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"snake/backend/internal/models"
	"snake/backend/internal/services"

	"github.com/spf13/cobra"
)

func newLeaderboardCmd(flags *rootFlags) *cobra.Command {
	var (
		limit int
		mode  string
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the ranked leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := models.LeaderboardQuery{Limit: limit}
			if mode != "" {
				m, err := models.ParseGameMode(mode)
				if err != nil {
					return err
				}
				q.Mode = m
			}
			if limit < 1 || limit > services.MaxLeaderboardLimit {
				return fmt.Errorf("limit must be between 1 and %d", services.MaxLeaderboardLimit)
			}

			store, err := flags.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close() //nolint: errcheck

			entries, err := store.GetScores(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("failed to read leaderboard: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No scores yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tPLAYER\tSCORE\tMODE\tPLAYED AT")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
					*e.Rank, e.Username, e.Score, e.Mode, time.UnixMilli(e.Timestamp).UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", services.DefaultLeaderboardLimit, "Number of entries to show")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Filter by game mode (wall, pass)")
	return cmd
}
