package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newDeleteCmd builds the delete subcommand.
func newDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <review-id>",
		Short: "Delete a review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(flags.addr)
			if err := client.DeleteReview(args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n",
				args[0])
			return nil
		},
	}
}
