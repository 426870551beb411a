package eval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roasbeef/scrutiny/internal/analysis"
	"github.com/roasbeef/scrutiny/internal/config"
	"github.com/roasbeef/scrutiny/internal/review"
)

// lineTolerance is how far apart an expected and actual finding may sit and
// still count as the same issue. Detectors anchored on slightly different
// lines (the def line vs the body line) should not fail the benchmark.
const lineTolerance = 2

// Metrics are the standard retrieval metrics over matched findings.
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// CaseResult is the outcome of one golden case.
type CaseResult struct {
	Name string `json:"name"`

	// Expected and Found count the golden and produced findings.
	Expected int `json:"expected"`
	Found    int `json:"found"`

	// Matched is how many expected findings a produced finding paired
	// with.
	Matched int `json:"matched"`

	Metrics Metrics `json:"metrics"`

	// Missed lists expected findings nothing paired with.
	Missed []ExpectedIssue `json:"missed,omitempty"`

	// Extra lists produced findings that matched nothing.
	Extra []analysis.Issue `json:"extra,omitempty"`
}

// Runner executes golden cases through the quick review pipeline.
type Runner struct {
	orch *review.Orchestrator
	log  *slog.Logger
}

// NewRunner creates an eval runner. The pipeline runs without an AI
// provider: the benchmark measures the deterministic half only.
func NewRunner(cfg config.Config) *Runner {
	return &Runner{
		orch: review.NewOrchestrator(cfg, nil, nil),
		log:  slog.With("component", "eval"),
	}
}

// Run executes every embedded golden case and returns per-case results
// plus the micro-averaged aggregate.
func (r *Runner) Run(ctx context.Context) ([]CaseResult, Metrics, error) {
	cases, err := LoadEmbeddedCases()
	if err != nil {
		return nil, Metrics{}, err
	}

	return r.RunCases(ctx, cases)
}

// RunCases executes the given cases.
func (r *Runner) RunCases(ctx context.Context,
	cases []Case) ([]CaseResult, Metrics, error) {

	results := make([]CaseResult, 0, len(cases))

	var totalExpected, totalFound, totalMatched int
	for _, c := range cases {
		result, err := r.RunCase(ctx, c)
		if err != nil {
			return nil, Metrics{}, fmt.Errorf("eval case %s: %w",
				c.Name, err)
		}

		totalExpected += result.Expected
		totalFound += result.Found
		totalMatched += result.Matched
		results = append(results, result)
	}

	aggregate := computeMetrics(totalMatched, totalFound, totalExpected)

	r.log.InfoContext(ctx, "Eval run complete", "cases", len(results),
		"precision", aggregate.Precision, "recall", aggregate.Recall,
		"f1", aggregate.F1)

	return results, aggregate, nil
}

// RunCase runs one case through the quick pipeline and scores the findings
// against the golden expectations.
func (r *Runner) RunCase(ctx context.Context, c Case) (CaseResult, error) {
	final, err := r.orch.Run(ctx, "", c.SourceUnit(), review.ModeQuick)
	if err != nil {
		return CaseResult{}, err
	}

	return scoreCase(c, final.Issues), nil
}

// scoreCase pairs expected findings with produced issues: each expected
// finding greedily claims the first unclaimed issue that matches it.
func scoreCase(c Case, issues []analysis.Issue) CaseResult {
	result := CaseResult{
		Name:     c.Name,
		Expected: len(c.Expected),
		Found:    len(issues),
	}

	claimed := make([]bool, len(issues))
	for _, want := range c.Expected {
		idx := -1
		for i, issue := range issues {
			if claimed[i] || !issueMatches(want, issue) {
				continue
			}
			idx = i
			break
		}

		if idx < 0 {
			result.Missed = append(result.Missed, want)
			continue
		}

		claimed[idx] = true
		result.Matched++
	}

	for i, issue := range issues {
		if !claimed[i] {
			result.Extra = append(result.Extra, issue)
		}
	}

	result.Metrics = computeMetrics(
		result.Matched, result.Found, result.Expected,
	)

	return result
}

// issueMatches reports whether a produced issue satisfies an expected
// finding: within the line tolerance, and agreeing on category or on
// severity.
func issueMatches(want ExpectedIssue, got analysis.Issue) bool {
	delta := got.Line - want.Line
	if delta < -lineTolerance || delta > lineTolerance {
		return false
	}

	categoryMatch := want.Category != "" &&
		want.Category == string(got.Category)
	severityMatch := want.Severity != "" &&
		want.Severity == string(got.Severity)

	return categoryMatch || severityMatch
}

// computeMetrics derives precision/recall/F1 from match counts. A side with
// nothing to find scores perfect rather than dividing by zero.
func computeMetrics(matched, found, expected int) Metrics {
	m := Metrics{Precision: 1, Recall: 1}

	if found > 0 {
		m.Precision = float64(matched) / float64(found)
	}
	if expected > 0 {
		m.Recall = float64(matched) / float64(expected)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}

	return m
}
