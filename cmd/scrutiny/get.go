package main

import (
	"github.com/spf13/cobra"
)

// newGetCmd builds the get subcommand.
func newGetCmd(flags *rootFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "get <review-id>",
		Short: "Fetch a review by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(flags.addr)
			final, err := client.GetReview(args[0])
			if err != nil {
				return err
			}

			return printFinal(cmd, flags, format, final)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text",
		"Output format: text, markdown, html, or json")

	return cmd
}
