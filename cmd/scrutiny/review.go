package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roasbeef/scrutiny/internal/report"
	"github.com/roasbeef/scrutiny/internal/review"
)

// newReviewCmd builds the review subcommand: submit a file and wait.
func newReviewCmd(flags *rootFlags) *cobra.Command {
	var (
		quick    bool
		language string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "review <file>",
		Short: "Submit a source file for review and wait for the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			mode := "full"
			if quick {
				mode = "quick"
			}

			client := newAPIClient(flags.addr)
			final, err := client.SubmitAndWait(submitBody{
				FileName: filepath.Base(args[0]),
				Language: language,
				Content:  string(content),
				Mode:     mode,
			})
			if err != nil {
				return err
			}

			if err := printFinal(cmd, flags, format,
				final); err != nil {

				return err
			}

			if final.State == review.StateFailed {
				return fmt.Errorf("review %s failed",
					final.ID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&quick, "quick", false,
		"Run static analysis only (no AI review)")
	cmd.Flags().StringVar(&language, "language", "",
		"Override language detection")
	cmd.Flags().StringVar(&format, "format", "text",
		"Output format: text, markdown, html, or json")

	return cmd
}

// printFinal renders a completed review in the selected format.
func printFinal(cmd *cobra.Command, flags *rootFlags, format string,
	final *review.FinalReview) error {

	if flags.json || format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(final)
	}

	switch format {
	case "markdown":
		fmt.Fprint(cmd.OutOrStdout(), report.Markdown(final))
		return nil

	case "html":
		page, err := report.HTML(
			report.Markdown(final), "Review "+final.FileName,
		)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), page)
		return nil

	case "", "text":
		printFinalText(cmd, final)
		return nil

	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// printFinalText renders the compact terminal view.
func printFinalText(cmd *cobra.Command, final *review.FinalReview) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "review:   %s\n", final.ID)
	fmt.Fprintf(out, "file:     %s (%s)\n", final.FileName,
		final.Language)
	fmt.Fprintf(out, "state:    %s\n", final.State)
	fmt.Fprintf(out, "score:    %d/100\n", final.Score)
	fmt.Fprintf(out, "issues:   %d critical, %d medium, %d low\n",
		final.Counts.Critical, final.Counts.Medium, final.Counts.Low)
	if final.Provider != "" {
		fmt.Fprintf(out, "reviewer: %s (%s)\n", final.Provider,
			final.Model)
	}
	if len(final.Degraded) > 0 {
		fmt.Fprintf(out, "degraded: %v\n", final.Degraded)
	}

	if len(final.Issues) > 0 {
		fmt.Fprintln(out)
		for _, issue := range final.Issues {
			if issue.Line > 0 {
				fmt.Fprintf(out, "  [%s] line %d: %s\n",
					issue.Severity, issue.Line,
					issue.Message)
			} else {
				fmt.Fprintf(out, "  [%s] %s\n",
					issue.Severity, issue.Message)
			}
		}
	}
}
