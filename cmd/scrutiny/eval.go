package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roasbeef/scrutiny/internal/config"
	"github.com/roasbeef/scrutiny/internal/eval"
)

// newEvalCmd builds the eval subcommand: run the embedded benchmark cases
// through the in-process analysis engine.
func newEvalCmd() *cobra.Command {
	var minF1 float64

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run the analysis benchmark against embedded golden cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := eval.NewRunner(config.Default())

			results, aggregate, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(),
				eval.RenderText(results, aggregate))

			if aggregate.F1 < minF1 {
				return fmt.Errorf("aggregate F1 %.2f below "+
					"threshold %.2f", aggregate.F1, minF1)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&minF1, "min-f1", 0,
		"Fail when the aggregate F1 drops below this threshold")

	return cmd
}
