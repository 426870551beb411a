package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// newStatsCmd builds the stats subcommand.
func newStatsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate review statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(flags.addr)
			stats, err := client.GetStats()
			if err != nil {
				return err
			}

			if flags.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "reviews:    %d total, %d done, "+
				"%d failed\n", stats.TotalCount,
				stats.CompletedCount, stats.FailedCount)
			fmt.Fprintf(out, "avg score:  %.1f\n",
				stats.AverageScore)
			fmt.Fprintf(out, "avg time:   %.0f ms\n",
				stats.AverageProcessingMS)
			fmt.Fprintf(out, "issues:     %d critical, "+
				"%d medium, %d low\n", stats.TotalCritical,
				stats.TotalMedium, stats.TotalLow)

			for lang, n := range stats.ByLanguage {
				fmt.Fprintf(out, "  %-10s %d\n", lang, n)
			}
			return nil
		},
	}
}
