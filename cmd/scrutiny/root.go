package main

import (
	"github.com/spf13/cobra"
)

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	addr string
	json bool
}

// newRootCmd builds the scrutiny command tree.
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "scrutiny",
		Short: "Client for the scrutiny code review daemon",
		Long: "scrutiny submits source files to a running scrutinyd " +
			"instance and inspects past reviews.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.addr, "addr",
		"http://localhost:8080", "Base URL of the scrutinyd web API")
	cmd.PersistentFlags().BoolVar(&flags.json, "json", false,
		"Emit raw JSON instead of formatted output")

	cmd.AddCommand(
		newReviewCmd(flags),
		newGetCmd(flags),
		newListCmd(flags),
		newDeleteCmd(flags),
		newStatsCmd(flags),
		newEvalCmd(),
		newVersionCmd(),
	)

	return cmd
}
