// Package prompt renders pre-analysis results into the bounded
// natural-language brief that frames the AI review. The output is
// deterministic: identical inputs always produce byte-identical text, which
// keeps prompts reproducible and testable.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roasbeef/scrutiny/internal/analysis"
)

// DefaultIssueCap bounds how many issues the context lists when no override
// is configured.
const DefaultIssueCap = 20

// maxFunctionsShown bounds the function listing in the structure section.
const maxFunctionsShown = 5

// patternOrder fixes the rendering order of pattern categories. Iterating
// the PatternInfo map directly would leak Go's randomized map order into the
// prompt and break determinism.
var patternOrder = []analysis.PatternCategory{
	analysis.PatternAPIEndpoint,
	analysis.PatternDBQuery,
	analysis.PatternFileIO,
	analysis.PatternNetworkCall,
	analysis.PatternAuth,
}

// patternLabels are the human-readable section labels per category.
var patternLabels = map[analysis.PatternCategory]string{
	analysis.PatternAPIEndpoint: "API endpoints",
	analysis.PatternDBQuery:     "Database queries",
	analysis.PatternFileIO:      "File I/O",
	analysis.PatternNetworkCall: "Network calls",
	analysis.PatternAuth:        "Authentication code",
}

// Builder renders a PreAnalysis into context text.
type Builder struct {
	issueCap int
}

// NewBuilder creates a builder listing at most issueCap issues. A
// non-positive cap falls back to the default.
func NewBuilder(issueCap int) *Builder {
	if issueCap <= 0 {
		issueCap = DefaultIssueCap
	}
	return &Builder{issueCap: issueCap}
}

// Build renders the context block: file overview, structure summary,
// high-complexity entries, non-zero pattern categories, and the issue
// listing sorted by severity then line, truncated at the configured cap.
func (b *Builder) Build(unit analysis.SourceUnit,
	pre analysis.PreAnalysis) string {

	var sb strings.Builder

	sb.WriteString("# CODE ANALYSIS CONTEXT\n\n")

	b.writeOverview(&sb, unit, pre.Structure)
	b.writeStructure(&sb, pre.Structure)
	b.writeComplexity(&sb, pre.Complexity)
	b.writePatterns(&sb, pre.Patterns)
	b.writeIssues(&sb, pre.Issues)
	b.writeFocus(&sb, len(pre.Issues))

	return sb.String()
}

func (b *Builder) writeOverview(sb *strings.Builder,
	unit analysis.SourceUnit, s analysis.StructureInfo) {

	sb.WriteString("## File Overview\n")
	fmt.Fprintf(sb, "- File: %s\n", unit.FileName)
	fmt.Fprintf(sb, "- Language: %s\n", unit.Language)
	fmt.Fprintf(sb, "- Lines: %d total, %d code, %d comment, %d blank\n",
		s.TotalLines, s.CodeLines, s.CommentLines, s.BlankLines)
	sb.WriteString("\n")
}

func (b *Builder) writeStructure(sb *strings.Builder,
	s analysis.StructureInfo) {

	sb.WriteString("## Structure\n")
	fmt.Fprintf(sb, "- Functions: %d\n", s.FunctionCount)
	fmt.Fprintf(sb, "- Classes: %d\n", s.ClassCount)
	fmt.Fprintf(sb, "- Imports: %d\n", s.ImportCount)
	fmt.Fprintf(sb, "- Uses async: %v\n", s.UsesAsync)

	if s.LowConfidence {
		sb.WriteString(
			"- Note: structural heuristics found no " +
				"declarations; counts are low confidence\n")
	}

	if len(s.Functions) > 0 {
		sb.WriteString("\nFunctions found:\n")
		shown := s.Functions
		if len(shown) > maxFunctionsShown {
			shown = shown[:maxFunctionsShown]
		}
		for _, fn := range shown {
			fmt.Fprintf(sb, "- `%s` (line %d)\n",
				fn.Name, fn.StartLine)
		}
		if omitted := len(s.Functions) - len(shown); omitted > 0 {
			fmt.Fprintf(sb, "- ... and %d more\n", omitted)
		}
	}

	sb.WriteString("\n")
}

func (b *Builder) writeComplexity(sb *strings.Builder,
	c analysis.ComplexityInfo) {

	sb.WriteString("## Complexity\n")
	fmt.Fprintf(sb, "- Average: %.2f\n", c.Average)
	fmt.Fprintf(sb, "- Maximum: %d\n", c.Max)

	if len(c.High) == 0 {
		sb.WriteString("- No functions above the complexity " +
			"threshold\n\n")
		return
	}

	fmt.Fprintf(sb, "\nHigh complexity functions (threshold %d):\n",
		c.Threshold)
	for _, fn := range c.High {
		fmt.Fprintf(sb, "- `%s` (line %d): complexity %d\n",
			fn.Name, fn.Line, fn.Score)
	}
	sb.WriteString("\n")
}

func (b *Builder) writePatterns(sb *strings.Builder,
	patterns analysis.PatternInfo) {

	sb.WriteString("## Detected Patterns\n")

	if len(patterns) == 0 {
		sb.WriteString("- None detected\n\n")
		return
	}

	for _, category := range patternOrder {
		match, ok := patterns[category]
		if !ok {
			continue
		}

		lines := make([]string, len(match.ExampleLines))
		for i, n := range match.ExampleLines {
			lines[i] = fmt.Sprintf("%d", n)
		}

		fmt.Fprintf(sb, "- %s: %d occurrence(s), e.g. line(s) %s\n",
			patternLabels[category], match.Count,
			strings.Join(lines, ", "))
	}
	sb.WriteString("\n")
}

func (b *Builder) writeIssues(sb *strings.Builder,
	issues []analysis.Issue) {

	fmt.Fprintf(sb, "## Pre-Identified Issues (%d found)\n", len(issues))

	if len(issues) == 0 {
		sb.WriteString("- No issues detected in pre-analysis\n\n")
		return
	}

	sorted := sortIssues(issues)
	shown := sorted
	if len(shown) > b.issueCap {
		shown = shown[:b.issueCap]
	}

	for _, issue := range shown {
		if issue.Line > 0 {
			fmt.Fprintf(sb, "- [%s] line %d: %s",
				issue.Severity, issue.Line, issue.Message)
		} else {
			fmt.Fprintf(sb, "- [%s] %s",
				issue.Severity, issue.Message)
		}
		if issue.Snippet != "" {
			fmt.Fprintf(sb, " -- `%s`", issue.Snippet)
		}
		sb.WriteString("\n")
	}

	if omitted := len(sorted) - len(shown); omitted > 0 {
		fmt.Fprintf(sb, "- ... and %d more issue(s) omitted\n",
			omitted)
	}
	sb.WriteString("\n")
}

func (b *Builder) writeFocus(sb *strings.Builder, issueCount int) {
	sb.WriteString("## Review Focus\n")
	fmt.Fprintf(sb,
		"1. Validate the %d pre-identified issues: confirm true "+
			"positives, flag false positives.\n", issueCount)
	sb.WriteString(
		"2. Find issues static analysis cannot see: logic errors, " +
			"edge cases, race conditions, design problems.\n")
	sb.WriteString(
		"3. Check security beyond the flagged patterns: input " +
			"validation, auth logic, data exposure.\n")
}

// sortIssues returns a copy of issues ordered severity-descending, then line
// ascending with undefined-line issues last, then message for stability. The
// input slice is never mutated.
func sortIssues(issues []analysis.Issue) []analysis.Issue {
	sorted := make([]analysis.Issue, len(issues))
	copy(sorted, issues)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if lineRank(a.Line) != lineRank(b.Line) {
			return lineRank(a.Line) < lineRank(b.Line)
		}
		return a.Message < b.Message
	})

	return sorted
}

// lineRank maps an issue line to its sort rank: real lines ascending,
// undefined (zero) lines after all of them.
func lineRank(line int) int {
	if line <= 0 {
		return int(^uint(0) >> 1) // max int
	}
	return line
}
