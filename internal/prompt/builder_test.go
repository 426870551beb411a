package prompt

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/roasbeef/scrutiny/internal/analysis"
)

// samplePre runs the real analyzer over a small file to produce a realistic
// PreAnalysis for builder tests.
func samplePre(t *testing.T) (analysis.SourceUnit, analysis.PreAnalysis) {
	t.Helper()

	src := strings.Join([]string{
		"import requests",
		`API_KEY = "sk-live-0123456789"`,
		"def fetch(url):",
		"    if url:",
		"        return requests.get(url)",
	}, "\n")

	unit := analysis.NewSourceUnit("svc.py", analysis.LangPython, src)
	pre := analysis.NewAnalyzer(analysis.DefaultConfig()).Run(
		context.Background(), unit,
	)

	return unit, pre
}

// TestBuildDeterministic verifies the determinism law: two builds over the
// same inputs are byte-identical. Pattern maps are the usual source of
// nondeterminism, so the sample includes several categories.
func TestBuildDeterministic(t *testing.T) {
	unit, pre := samplePre(t)
	builder := NewBuilder(DefaultIssueCap)

	first := builder.Build(unit, pre)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, builder.Build(unit, pre))
	}
}

// TestBuildSections verifies the fixed sections appear with their expected
// content.
func TestBuildSections(t *testing.T) {
	unit, pre := samplePre(t)
	out := NewBuilder(DefaultIssueCap).Build(unit, pre)

	require.Contains(t, out, "## File Overview")
	require.Contains(t, out, "## Structure")
	require.Contains(t, out, "## Complexity")
	require.Contains(t, out, "## Detected Patterns")
	require.Contains(t, out, "## Pre-Identified Issues")
	require.Contains(t, out, "## Review Focus")

	require.Contains(t, out, "- Functions: 1")
	require.Contains(t, out, "Network calls")
	require.Contains(t, out, "possible hardcoded credential")
}

// TestBuildIssueCap verifies truncation with an omitted-count tail.
func TestBuildIssueCap(t *testing.T) {
	var issues []analysis.Issue
	for i := 1; i <= 30; i++ {
		issues = append(issues, analysis.Issue{
			Category: analysis.CategoryLongLine,
			Severity: analysis.SeverityLow,
			Line:     i,
			Message:  fmt.Sprintf("line %d too long", i),
			Source:   analysis.SourcePreAnalysis,
		})
	}

	unit := analysis.NewSourceUnit("a.py", analysis.LangPython, "")
	out := NewBuilder(20).Build(unit, analysis.PreAnalysis{
		Patterns: analysis.PatternInfo{},
		Issues:   issues,
	})

	require.Contains(t, out, "... and 10 more issue(s) omitted")
	require.Contains(t, out, "(30 found)")
	require.NotContains(t, out, "line 25 too long")
}

// TestBuildIssueOrdering verifies severity-descending then line-ascending
// ordering with undefined lines last.
func TestBuildIssueOrdering(t *testing.T) {
	issues := []analysis.Issue{
		{Severity: analysis.SeverityLow, Line: 1, Message: "low one"},
		{Severity: analysis.SeverityCritical, Message: "crit noline"},
		{Severity: analysis.SeverityMedium, Line: 9, Message: "med"},
		{Severity: analysis.SeverityCritical, Line: 5,
			Message: "crit five"},
	}

	unit := analysis.NewSourceUnit("a.py", analysis.LangPython, "")
	out := NewBuilder(20).Build(unit, analysis.PreAnalysis{
		Patterns: analysis.PatternInfo{},
		Issues:   issues,
	})

	posCritFive := strings.Index(out, "crit five")
	posCritNoLine := strings.Index(out, "crit noline")
	posMed := strings.Index(out, "med")
	posLow := strings.Index(out, "low one")

	require.True(t, posCritFive < posCritNoLine)
	require.True(t, posCritNoLine < posMed)
	require.True(t, posMed < posLow)
}

// TestBuildInputNotMutated verifies the builder never reorders the caller's
// issue slice.
func TestBuildInputNotMutated(t *testing.T) {
	issues := []analysis.Issue{
		{Severity: analysis.SeverityLow, Line: 2, Message: "b"},
		{Severity: analysis.SeverityCritical, Line: 1, Message: "a"},
	}
	pre := analysis.PreAnalysis{
		Patterns: analysis.PatternInfo{},
		Issues:   issues,
	}

	unit := analysis.NewSourceUnit("a.py", analysis.LangPython, "")
	NewBuilder(20).Build(unit, pre)

	require.Equal(t, "b", issues[0].Message)
	require.Equal(t, "a", issues[1].Message)
}

// TestBuildDeterministicProperty is a property-level restatement of the
// determinism law over arbitrary issue multisets.
func TestBuildDeterministicProperty(t *testing.T) {
	severities := []analysis.Severity{
		analysis.SeverityCritical,
		analysis.SeverityMedium,
		analysis.SeverityLow,
	}

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "n")

		issues := make([]analysis.Issue, n)
		for i := range issues {
			issues[i] = analysis.Issue{
				Category: analysis.CategoryLongLine,
				Severity: severities[rapid.IntRange(0, 2).
					Draw(t, "sev")],
				Line:    rapid.IntRange(0, 500).Draw(t, "line"),
				Message: rapid.StringMatching(`[a-z ]{1,40}`).
					Draw(t, "msg"),
				Source: analysis.SourcePreAnalysis,
			}
		}

		unit := analysis.NewSourceUnit(
			"p.py", analysis.LangPython, "",
		)
		pre := analysis.PreAnalysis{
			Patterns: analysis.PatternInfo{},
			Issues:   issues,
		}

		builder := NewBuilder(20)
		first := builder.Build(unit, pre)
		second := builder.Build(unit, pre)
		if first != second {
			t.Fatalf("context build is not deterministic")
		}
	})
}
