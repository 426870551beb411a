package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestPatternDetectCategories verifies each category triggers on a
// representative line and records the correct line number.
func TestPatternDetectCategories(t *testing.T) {
	src := strings.Join([]string{
		`@app.get("/users")`,               // 1: api endpoint
		`rows = db.execute("SELECT * FROM users")`, // 2: db query
		`f = open("data.txt")`,             // 3: file io
		`resp = requests.get(url)`,         // 4: network call
		`user = authenticate(name, pw)`,    // 5: auth
	}, "\n")

	info := NewPatternDetector().Detect(
		NewSourceUnit("svc.py", LangPython, src),
	)

	tests := []struct {
		category PatternCategory
		line     int
	}{
		{PatternAPIEndpoint, 1},
		{PatternDBQuery, 2},
		{PatternFileIO, 3},
		{PatternNetworkCall, 4},
		{PatternAuth, 5},
	}

	for _, tc := range tests {
		match, ok := info[tc.category]
		require.True(t, ok, "category %s missing", tc.category)
		require.Equal(t, []int{tc.line}, match.ExampleLines,
			"category %s", tc.category)
	}
}

// TestPatternZeroCategoriesAbsent verifies categories with no matches do not
// appear in the map.
func TestPatternZeroCategoriesAbsent(t *testing.T) {
	info := NewPatternDetector().Detect(
		NewSourceUnit("calc.py", LangPython, "x = 1 + 2\n"),
	)
	require.Empty(t, info)
}

// TestPatternExampleCap verifies example line numbers are capped while the
// count keeps growing.
func TestPatternExampleCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "resp%d = requests.get(url)\n", i)
	}

	info := NewPatternDetector().Detect(
		NewSourceUnit("many.py", LangPython, b.String()),
	)

	match := info[PatternNetworkCall]
	require.Equal(t, 10, match.Count)
	require.Equal(t, []int{1, 2, 3}, match.ExampleLines)
}

// TestPatternMultipleCategoriesSameLine verifies the scans are independent:
// one line may count toward several categories.
func TestPatternMultipleCategoriesSameLine(t *testing.T) {
	src := `session = authenticate(requests.get(url))` // network + auth

	info := NewPatternDetector().Detect(
		NewSourceUnit("dual.py", LangPython, src),
	)

	require.Contains(t, info, PatternNetworkCall)
	require.Contains(t, info, PatternAuth)
}
