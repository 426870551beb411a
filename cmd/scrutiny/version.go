package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roasbeef/scrutiny/internal/build"
)

// newVersionCmd builds the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scrutiny %s\n",
				build.Version())
		},
	}
}
