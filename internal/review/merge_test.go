package review

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/roasbeef/scrutiny/internal/analysis"
	"github.com/roasbeef/scrutiny/internal/config"
	"github.com/roasbeef/scrutiny/internal/llm"
)

func testWeights() config.ScoreWeights {
	return config.ScoreWeights{
		Critical: config.DefaultCriticalWeight,
		Medium:   config.DefaultMediumWeight,
		Low:      config.DefaultLowWeight,
	}
}

func preIssue(cat analysis.Category, sev analysis.Severity, line int,
	msg string) analysis.Issue {

	return analysis.Issue{
		Category: cat,
		Severity: sev,
		Line:     line,
		Message:  msg,
		Source:   analysis.SourcePreAnalysis,
	}
}

// TestMergeQuickPathScore verifies the canonical quick-path scoring case:
// two critical and one medium issue against an empty AI review.
func TestMergeQuickPathScore(t *testing.T) {
	merger := NewMerger(testWeights())

	pre := []analysis.Issue{
		preIssue(analysis.CategorySecret,
			analysis.SeverityCritical, 3, "hardcoded credential"),
		preIssue(analysis.CategorySQLInjection,
			analysis.SeverityCritical, 9, "string-built query"),
		preIssue(analysis.CategoryLongFunction,
			analysis.SeverityMedium, 20, "function spans 80 lines"),
	}

	result := merger.Merge(pre, llm.AIReview{})

	// 100 - 2*15 - 1*5 = 65.
	require.Equal(t, 65, result.Score)
	require.Len(t, result.Issues, 3)
	require.Zero(t, result.Removed)
	require.Zero(t, result.Added)
	require.Equal(t, SeverityCounts{Critical: 2, Medium: 1},
		result.Counts)
}

// TestMergeFalsePositiveRemoval verifies AI verdicts remove issues by
// identity, with message normalization applied.
func TestMergeFalsePositiveRemoval(t *testing.T) {
	merger := NewMerger(testWeights())

	pre := []analysis.Issue{
		preIssue(analysis.CategoryLongLine,
			analysis.SeverityLow, 12, "line exceeds 120 characters"),
		preIssue(analysis.CategoryTodoComment,
			analysis.SeverityLow, 30, "unresolved TODO comment"),
	}

	ai := llm.AIReview{
		FalsePositives: []llm.IssueRef{
			// Different casing still resolves through the
			// normalized identity.
			{
				Category: string(analysis.CategoryLongLine),
				Line:     12,
				Message:  "LINE EXCEEDS 120 Characters",
			},
			// Dangling reference: no such issue exists.
			{
				Category: string(analysis.CategorySecret),
				Line:     99,
				Message:  "phantom finding",
			},
		},
	}

	result := merger.Merge(pre, ai)

	require.Equal(t, 1, result.Removed)
	require.Len(t, result.Issues, 1)
	require.Equal(t, analysis.CategoryTodoComment,
		result.Issues[0].Category)
	require.Equal(t, 99, result.Score)
}

// TestMergeNewFindings verifies AI findings append unless they collide with
// a pre-analysis issue, in which case the pre-analysis issue wins.
func TestMergeNewFindings(t *testing.T) {
	merger := NewMerger(testWeights())

	pre := []analysis.Issue{
		preIssue(analysis.CategorySecret,
			analysis.SeverityCritical, 3, "hardcoded credential"),
	}

	ai := llm.AIReview{
		NewFindings: []analysis.Issue{
			// Collides with the pre-analysis secret.
			{
				Category: analysis.CategorySecret,
				Severity: analysis.SeverityMedium,
				Line:     3,
				Message:  "Hardcoded credential",
				Source:   analysis.SourceAI,
			},
			// Genuinely new.
			{
				Category: analysis.CategoryLLMFinding,
				Severity: analysis.SeverityMedium,
				Line:     40,
				Message:  "unbounded recursion",
				Source:   analysis.SourceAI,
			},
		},
	}

	result := merger.Merge(pre, ai)

	require.Equal(t, 1, result.Added)
	require.Len(t, result.Issues, 2)

	// The colliding entry kept the pre-analysis severity and source.
	require.Equal(t, analysis.SeverityCritical,
		result.Issues[0].Severity)
	require.Equal(t, analysis.SourcePreAnalysis,
		result.Issues[0].Source)
	require.Equal(t, analysis.SourceAI, result.Issues[1].Source)
}

// TestMergeSortOrder verifies severity-major, line-minor ordering with
// line-less issues last within their severity group.
func TestMergeSortOrder(t *testing.T) {
	merger := NewMerger(testWeights())

	pre := []analysis.Issue{
		preIssue(analysis.CategoryTodoComment,
			analysis.SeverityLow, 5, "todo"),
		preIssue(analysis.CategoryLongFunction,
			analysis.SeverityMedium, 0, "no line"),
		preIssue(analysis.CategorySecret,
			analysis.SeverityCritical, 50, "secret"),
		preIssue(analysis.CategoryLongFunction,
			analysis.SeverityMedium, 10, "long function"),
	}

	result := merger.Merge(pre, llm.AIReview{})

	require.Equal(t, analysis.SeverityCritical, result.Issues[0].Severity)
	require.Equal(t, 10, result.Issues[1].Line)
	require.Equal(t, 0, result.Issues[2].Line)
	require.Equal(t, analysis.SeverityLow, result.Issues[3].Severity)
}

// TestMergeIdempotentOnEmptyAI verifies that merging with an empty AI
// review is a pure sort-and-score: repeated merges agree.
func TestMergeIdempotentOnEmptyAI(t *testing.T) {
	merger := NewMerger(testWeights())

	pre := []analysis.Issue{
		preIssue(analysis.CategorySecret,
			analysis.SeverityCritical, 3, "secret"),
		preIssue(analysis.CategoryDebugStatement,
			analysis.SeverityLow, 7, "debug print"),
	}

	first := merger.Merge(pre, llm.AIReview{})
	second := merger.Merge(first.Issues, llm.AIReview{})

	require.Equal(t, first.Issues, second.Issues)
	require.Equal(t, first.Score, second.Score)
	require.Equal(t, first.Counts, second.Counts)
}

// TestMergeInputNotMutated verifies the merge never edits its inputs.
func TestMergeInputNotMutated(t *testing.T) {
	merger := NewMerger(testWeights())

	pre := []analysis.Issue{
		preIssue(analysis.CategoryTodoComment,
			analysis.SeverityLow, 9, "todo"),
		preIssue(analysis.CategorySecret,
			analysis.SeverityCritical, 2, "secret"),
	}
	original := append([]analysis.Issue(nil), pre...)

	merger.Merge(pre, llm.AIReview{})

	require.Equal(t, original, pre)
}

// TestMergeScoreClampLaw checks the scoring law over random issue
// populations and weights: the score always equals the clamped weighted
// deduction.
func TestMergeScoreClampLaw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		weights := config.ScoreWeights{
			Critical: rapid.IntRange(0, 40).Draw(t, "wCrit"),
			Medium:   rapid.IntRange(0, 20).Draw(t, "wMed"),
			Low:      rapid.IntRange(0, 5).Draw(t, "wLow"),
		}
		merger := NewMerger(weights)

		severities := []analysis.Severity{
			analysis.SeverityCritical,
			analysis.SeverityMedium,
			analysis.SeverityLow,
		}

		n := rapid.IntRange(0, 30).Draw(t, "n")
		pre := make([]analysis.Issue, 0, n)
		for i := 0; i < n; i++ {
			pre = append(pre, analysis.Issue{
				Category: analysis.CategoryLLMFinding,
				Severity: rapid.SampledFrom(severities).
					Draw(t, "sev"),
				// Unique line keeps identities distinct.
				Line:    i + 1,
				Message: "issue",
				Source:  analysis.SourcePreAnalysis,
			})
		}

		result := merger.Merge(pre, llm.AIReview{})

		want := 100 -
			weights.Critical*result.Counts.Critical -
			weights.Medium*result.Counts.Medium -
			weights.Low*result.Counts.Low
		if want < 0 {
			want = 0
		}
		if want > 100 {
			want = 100
		}

		require.Equal(t, want, result.Score)
		require.GreaterOrEqual(t, result.Score, 0)
		require.LessOrEqual(t, result.Score, 100)
		require.Equal(t, n, result.Counts.Total())
	})
}
