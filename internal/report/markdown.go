// Package report renders completed reviews as human-readable documents.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/roasbeef/scrutiny/internal/analysis"
	"github.com/roasbeef/scrutiny/internal/review"
)

// severityOrder fixes the section ordering in rendered reports.
var severityOrder = []analysis.Severity{
	analysis.SeverityCritical,
	analysis.SeverityMedium,
	analysis.SeverityLow,
}

// severityHeading maps a severity to its report section title.
func severityHeading(sev analysis.Severity) string {
	switch sev {
	case analysis.SeverityCritical:
		return "Critical"
	case analysis.SeverityMedium:
		return "Medium"
	case analysis.SeverityLow:
		return "Low"
	default:
		return "Other"
	}
}

// Markdown renders a completed review as a markdown document: score
// summary, issues grouped by severity, the AI assessment when one ran, and
// any degradation notes.
func Markdown(final *review.FinalReview) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Code Review: %s\n\n", final.FileName)

	fmt.Fprintf(&sb, "- **Score:** %d/100\n", final.Score)
	fmt.Fprintf(&sb, "- **Language:** %s\n", final.Language)
	fmt.Fprintf(&sb, "- **Mode:** %s\n", final.Mode)
	fmt.Fprintf(&sb, "- **Issues:** %d (%d critical, %d medium, %d low)\n",
		final.Counts.Total(), final.Counts.Critical,
		final.Counts.Medium, final.Counts.Low)
	if final.Provider != "" {
		fmt.Fprintf(&sb, "- **Reviewer:** %s (%s)\n", final.Provider,
			final.Model)
	}
	if !final.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "- **Reviewed:** %s\n",
			final.CreatedAt.UTC().Format(time.RFC3339))
	}
	sb.WriteString("\n")

	if final.AI != nil && final.AI.Summary != "" {
		sb.WriteString("## Assessment\n\n")
		sb.WriteString(strings.TrimSpace(final.AI.Summary))
		sb.WriteString("\n\n")
	}

	if len(final.Issues) == 0 {
		sb.WriteString("## Issues\n\nNo issues found.\n")
	} else {
		sb.WriteString("## Issues\n")
		for _, sev := range severityOrder {
			writeSeveritySection(&sb, sev, final.Issues)
		}
	}

	if len(final.Degraded) > 0 {
		sb.WriteString("\n## Notes\n\n")
		sb.WriteString("Some stages did not run at full fidelity:\n\n")
		for _, marker := range final.Degraded {
			fmt.Fprintf(&sb, "- `%s`\n", marker)
		}
	}

	return sb.String()
}

// writeSeveritySection renders one severity group, skipping empty groups.
func writeSeveritySection(sb *strings.Builder, sev analysis.Severity,
	issues []analysis.Issue) {

	var group []analysis.Issue
	for _, issue := range issues {
		if issue.Severity == sev {
			group = append(group, issue)
		}
	}
	if len(group) == 0 {
		return
	}

	fmt.Fprintf(sb, "\n### %s\n\n", severityHeading(sev))

	for _, issue := range group {
		if issue.Line > 0 {
			fmt.Fprintf(sb, "- **Line %d** (`%s`): %s",
				issue.Line, issue.Category, issue.Message)
		} else {
			fmt.Fprintf(sb, "- (`%s`): %s",
				issue.Category, issue.Message)
		}
		if issue.Source == analysis.SourceAI {
			sb.WriteString(" _(AI)_")
		}
		sb.WriteString("\n")
		if issue.Snippet != "" {
			fmt.Fprintf(sb, "  - `%s`\n", issue.Snippet)
		}
	}
}
