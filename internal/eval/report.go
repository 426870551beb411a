package eval

import (
	"fmt"
	"strings"
)

// RenderText renders eval results as a fixed-width text report.
func RenderText(results []CaseResult, aggregate Metrics) string {
	var sb strings.Builder

	sb.WriteString("Benchmark results\n")
	sb.WriteString("=================\n\n")

	fmt.Fprintf(&sb, "%-28s %8s %8s %8s %7s %7s %7s\n",
		"case", "expected", "found", "matched", "prec", "recall", "f1")

	for _, result := range results {
		fmt.Fprintf(&sb, "%-28s %8d %8d %8d %7.2f %7.2f %7.2f\n",
			result.Name, result.Expected, result.Found,
			result.Matched, result.Metrics.Precision,
			result.Metrics.Recall, result.Metrics.F1)
	}

	fmt.Fprintf(&sb, "\naggregate: precision %.2f, recall %.2f, f1 %.2f\n",
		aggregate.Precision, aggregate.Recall, aggregate.F1)

	for _, result := range results {
		if len(result.Missed) == 0 && len(result.Extra) == 0 {
			continue
		}

		fmt.Fprintf(&sb, "\n%s:\n", result.Name)
		for _, miss := range result.Missed {
			fmt.Fprintf(&sb, "  missed: %s/%s at line %d\n",
				miss.Category, miss.Severity, miss.Line)
		}
		for _, extra := range result.Extra {
			fmt.Fprintf(&sb, "  extra:  %s/%s at line %d: %s\n",
				extra.Category, extra.Severity, extra.Line,
				extra.Message)
		}
	}

	return sb.String()
}
