package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roasbeef/scrutiny/internal/analysis"
	"github.com/roasbeef/scrutiny/internal/llm"
	"github.com/roasbeef/scrutiny/internal/review"
)

func sampleFinal() *review.FinalReview {
	return &review.FinalReview{
		ID:       "rev-1",
		FileName: "app.py",
		Language: analysis.LangPython,
		Mode:     review.ModeFull,
		State:    review.StateDone,
		Issues: []analysis.Issue{
			{
				Category: analysis.CategorySecret,
				Severity: analysis.SeverityCritical,
				Line:     3,
				Message:  "possible hardcoded credential detected",
				Snippet:  `password = "hunter2"`,
				Source:   analysis.SourcePreAnalysis,
			},
			{
				Category: analysis.CategoryLLMFinding,
				Severity: analysis.SeverityMedium,
				Line:     10,
				Message:  "unbounded recursion",
				Source:   analysis.SourceAI,
			},
			{
				Category: analysis.CategoryTodoComment,
				Severity: analysis.SeverityLow,
				Line:     20,
				Message:  "unfinished work flagged in comment",
				Source:   analysis.SourcePreAnalysis,
			},
		},
		Score:  79,
		Counts: review.SeverityCounts{Critical: 1, Medium: 1, Low: 1},
		AI: &llm.AIReview{
			Summary: "Credentials should come from the environment.",
		},
		Provider:  "anthropic",
		Model:     "claude-sonnet-4-5",
		CreatedAt: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}
}

// TestMarkdownSections verifies the report carries the score header, the
// severity sections in order, and the AI assessment.
func TestMarkdownSections(t *testing.T) {
	md := Markdown(sampleFinal())

	require.Contains(t, md, "# Code Review: app.py")
	require.Contains(t, md, "**Score:** 79/100")
	require.Contains(t, md, "1 critical, 1 medium, 1 low")
	require.Contains(t, md, "**Reviewer:** anthropic (claude-sonnet-4-5)")
	require.Contains(t, md, "## Assessment")
	require.Contains(t, md,
		"Credentials should come from the environment.")

	// Sections appear in severity order.
	crit := indexOf(t, md, "### Critical")
	med := indexOf(t, md, "### Medium")
	low := indexOf(t, md, "### Low")
	require.Less(t, crit, med)
	require.Less(t, med, low)

	// Line references, snippets, and source attribution.
	require.Contains(t, md, "**Line 3** (`hardcoded_secret`)")
	require.Contains(t, md, "`password = \"hunter2\"`")
	require.Contains(t, md, "unbounded recursion _(AI)_")
}

// TestMarkdownCleanReview verifies the zero-issue rendering.
func TestMarkdownCleanReview(t *testing.T) {
	final := &review.FinalReview{
		FileName: "clean.go",
		Language: analysis.LangGo,
		Mode:     review.ModeQuick,
		Score:    100,
	}

	md := Markdown(final)
	require.Contains(t, md, "No issues found.")
	require.Contains(t, md, "**Score:** 100/100")
	require.NotContains(t, md, "### Critical")
	require.NotContains(t, md, "## Notes")
}

// TestMarkdownDegradedNotes verifies degradation markers surface in the
// notes section.
func TestMarkdownDegradedNotes(t *testing.T) {
	final := sampleFinal()
	final.Degraded = []string{"ai_skipped"}

	md := Markdown(final)
	require.Contains(t, md, "## Notes")
	require.Contains(t, md, "`ai_skipped`")
}

// TestHTMLRendering verifies markdown converts into a standalone page.
func TestHTMLRendering(t *testing.T) {
	md := Markdown(sampleFinal())

	page, err := HTML(md, "Review app.py")
	require.NoError(t, err)

	require.Contains(t, page, "<!DOCTYPE html>")
	require.Contains(t, page, "<title>Review app.py</title>")
	require.Contains(t, page, "<h1")
	require.Contains(t, page, "Code Review: app.py")
}

// TestHTMLTitleEscaped verifies hostile titles cannot inject markup.
func TestHTMLTitleEscaped(t *testing.T) {
	page, err := HTML("# hi\n", `<script>alert("x")</script>`)
	require.NoError(t, err)
	require.NotContains(t, page, "<script>")
	require.Contains(t, page, "&lt;script&gt;")
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	idx := strings.Index(haystack, needle)
	require.GreaterOrEqual(t, idx, 0, "missing %q", needle)
	return idx
}
