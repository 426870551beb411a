package review

import (
	"sort"

	"github.com/roasbeef/scrutiny/internal/analysis"
	"github.com/roasbeef/scrutiny/internal/config"
	"github.com/roasbeef/scrutiny/internal/llm"
)

// MergeResult is the reconciled output of the merge stage: the final issue
// list, its severity tally, and the recomputed quality score.
type MergeResult struct {
	// Issues is deduplicated and sorted by severity, then line.
	Issues []analysis.Issue

	// Removed counts pre-analysis issues dropped as false positives.
	Removed int

	// Added counts AI findings appended to the final list.
	Added int

	// Counts tallies Issues by severity.
	Counts SeverityCounts

	// Score is the 0-100 quality score computed from Counts.
	Score int
}

// Merger reconciles the deterministic pre-analysis with the AI review into
// one issue list and score. The pre-analysis is the source of truth: AI
// false-positive verdicts remove issues by identity, AI findings append
// only when they do not collide with an existing issue, and every other AI
// claim is informational.
type Merger struct {
	weights config.ScoreWeights
}

// NewMerger creates a merger with the given score weights.
func NewMerger(weights config.ScoreWeights) *Merger {
	return &Merger{weights: weights}
}

// Merge combines pre-analysis issues with an AI review. Passing a zero
// AIReview (the quick path) yields the pre-analysis issues unchanged,
// sorted and scored. The inputs are never mutated.
func (m *Merger) Merge(pre []analysis.Issue,
	ai llm.AIReview) MergeResult {

	// False-positive verdicts remove issues by identity. References
	// that resolve to no known issue are ignored; the model may cite
	// findings that never existed.
	falsePositives := make(map[analysis.IssueKey]struct{},
		len(ai.FalsePositives))
	for _, ref := range ai.FalsePositives {
		falsePositives[ref.Key()] = struct{}{}
	}

	merged := make([]analysis.Issue, 0, len(pre)+len(ai.NewFindings))
	seen := make(map[analysis.IssueKey]struct{}, len(pre))

	var removed int
	for _, issue := range pre {
		key := issue.Key()
		if _, drop := falsePositives[key]; drop {
			removed++
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, issue)
	}

	// AI findings append only when their identity is new; on collision
	// the pre-analysis issue wins.
	var added int
	for _, finding := range ai.NewFindings {
		key := finding.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, finding)
		added++
	}

	sortIssues(merged)

	counts := CountBySeverity(merged)

	return MergeResult{
		Issues:  merged,
		Removed: removed,
		Added:   added,
		Counts:  counts,
		Score:   m.score(counts),
	}
}

// score computes the quality score: 100 minus the weighted severity tally,
// clamped to [0, 100].
func (m *Merger) score(counts SeverityCounts) int {
	score := 100 -
		m.weights.Critical*counts.Critical -
		m.weights.Medium*counts.Medium -
		m.weights.Low*counts.Low

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// sortIssues orders issues severity-first, then by line with line-less
// issues last, then by message for a stable total order.
func sortIssues(issues []analysis.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if mergeLineRank(a.Line) != mergeLineRank(b.Line) {
			return mergeLineRank(a.Line) < mergeLineRank(b.Line)
		}
		return a.Message < b.Message
	})
}

// mergeLineRank pushes issues without a line number to the end of their
// severity group.
func mergeLineRank(line int) int {
	if line <= 0 {
		return int(^uint(0) >> 1)
	}
	return line
}
