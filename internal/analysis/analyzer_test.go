package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAnalyzerRun verifies the full pre-analysis aggregate over a small file
// exercising every stage.
func TestAnalyzerRun(t *testing.T) {
	src := strings.Join([]string{
		"import requests",
		"",
		`API_KEY = "sk-live-0123456789"`,
		"",
		"def fetch_user(user_id):",
		"    if user_id:",
		"        return requests.get(base + str(user_id))",
		"    return None",
	}, "\n")

	unit := NewSourceUnit("client.py", LangPython, src)
	pre := NewAnalyzer(DefaultConfig()).Run(context.Background(), unit)

	require.Equal(t, 1, pre.Structure.FunctionCount)
	require.Equal(t, 1, pre.Structure.ImportCount)
	require.Len(t, pre.Complexity.Functions, 1)
	require.Contains(t, pre.Patterns, PatternNetworkCall)
	require.Empty(t, pre.Degraded)

	var foundSecret bool
	for _, issue := range pre.Issues {
		if issue.Category == CategorySecret && issue.Line == 3 {
			foundSecret = true
		}
	}
	require.True(t, foundSecret)
}

// TestAnalyzerEmptyInput verifies empty input yields an empty aggregate, not
// a failure.
func TestAnalyzerEmptyInput(t *testing.T) {
	unit := NewSourceUnit("empty.py", LangPython, "")
	pre := NewAnalyzer(DefaultConfig()).Run(context.Background(), unit)

	require.Zero(t, pre.Structure.FunctionCount)
	require.Zero(t, pre.Complexity.Average)
	require.Empty(t, pre.Patterns)
	require.Empty(t, pre.Issues)
}

// TestIssueKeyNormalization verifies identity keys collapse case and
// whitespace differences in messages.
func TestIssueKeyNormalization(t *testing.T) {
	a := Issue{
		Category: CategorySecret,
		Line:     10,
		Message:  "Possible   Hardcoded credential detected",
	}
	b := Issue{
		Category: CategorySecret,
		Line:     10,
		Message:  "possible hardcoded credential (confirmed)",
	}

	require.Equal(t, a.Key(), b.Key())

	c := Issue{Category: CategorySecret, Line: 11, Message: a.Message}
	require.NotEqual(t, a.Key(), c.Key())
}
