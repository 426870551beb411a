package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newListCmd builds the list subcommand.
func newListCmd(flags *rootFlags) *cobra.Command {
	var filters listFilters

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List past reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters.hasMin = cmd.Flags().Changed("min-score")
			filters.hasMax = cmd.Flags().Changed("max-score")

			client := newAPIClient(flags.addr)
			summaries, err := client.ListReviews(filters)
			if err != nil {
				return err
			}

			if flags.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}

			w := tabwriter.NewWriter(
				cmd.OutOrStdout(), 0, 8, 2, ' ', 0,
			)
			fmt.Fprintln(w, "ID\tFILE\tLANG\tSTATE\tSCORE\tCREATED")
			for _, s := range summaries {
				score := "-"
				if s.Score != nil {
					score = fmt.Sprintf("%d", *s.Score)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					s.ID, s.FileName, s.Language,
					s.State, score,
					s.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&filters.language, "language", "",
		"Filter by language")
	cmd.Flags().StringVar(&filters.state, "state", "",
		"Filter by state")
	cmd.Flags().Int64Var(&filters.minScore, "min-score", 0,
		"Minimum score")
	cmd.Flags().Int64Var(&filters.maxScore, "max-score", 0,
		"Maximum score")
	cmd.Flags().IntVar(&filters.limit, "limit", 0,
		"Maximum number of reviews (default 50)")
	cmd.Flags().IntVar(&filters.offset, "offset", 0,
		"Pagination offset")

	return cmd
}
