package analysis

import "regexp"

// DefaultComplexityThreshold is the score at or above which a function is
// flagged as high complexity when no override is configured.
const DefaultComplexityThreshold = 10

// FunctionComplexity is the cyclomatic-complexity-like score for one
// function: one point per decision point within its span, plus a baseline of
// one.
type FunctionComplexity struct {
	Name  string `json:"name"`
	Line  int    `json:"line"`
	Score int    `json:"score"`
}

// ComplexityInfo aggregates per-function complexity scores for a source
// unit. Entries preserve declaration order.
type ComplexityInfo struct {
	Functions []FunctionComplexity `json:"functions"`
	Average   float64              `json:"average"`
	Max       int                  `json:"max"`

	// High lists the subset of Functions whose score met or exceeded the
	// configured threshold.
	High []FunctionComplexity `json:"high,omitempty"`

	// Threshold records the threshold the High subset was computed with.
	Threshold int `json:"threshold"`
}

// decisionPoints matches the control-flow constructs counted as decision
// points: conditionals, loops, boolean operators, exception handlers, and
// case arms. One heuristic table covers every supported language; false
// positives inside strings are acceptable noise for a heuristic metric.
var decisionPoints = []*regexp.Regexp{
	regexp.MustCompile(`\bif\b`),
	regexp.MustCompile(`\belif\b|\belse\s+if\b`),
	regexp.MustCompile(`\bfor\b`),
	regexp.MustCompile(`\bwhile\b`),
	regexp.MustCompile(`\bcase\b`),
	regexp.MustCompile(`\bcatch\b|\bexcept\b|\brescue\b`),
	regexp.MustCompile(`&&|\|\|`),
	regexp.MustCompile(`\band\b|\bor\b`),
	regexp.MustCompile(`\?[^.:]*:`),
}

// ComplexityScorer computes a decision-point complexity score per function
// span.
type ComplexityScorer struct {
	threshold int
}

// NewComplexityScorer creates a scorer flagging functions at or above the
// given threshold. A non-positive threshold falls back to the default.
func NewComplexityScorer(threshold int) *ComplexityScorer {
	if threshold <= 0 {
		threshold = DefaultComplexityThreshold
	}
	return &ComplexityScorer{threshold: threshold}
}

// Score computes ComplexityInfo for the source unit using the function spans
// found by the structure extractor. Zero-function files return an empty
// entry list and average 0 rather than failing.
func (c *ComplexityScorer) Score(unit SourceUnit,
	structure StructureInfo) ComplexityInfo {

	info := ComplexityInfo{Threshold: c.threshold}
	if len(structure.Functions) == 0 {
		return info
	}

	lines := unit.Lines()
	total := 0

	for _, fn := range structure.Functions {
		score := 1 + countDecisionPoints(lines, fn)
		entry := FunctionComplexity{
			Name:  fn.Name,
			Line:  fn.StartLine,
			Score: score,
		}

		info.Functions = append(info.Functions, entry)
		total += score
		if score > info.Max {
			info.Max = score
		}
		if score >= c.threshold {
			info.High = append(info.High, entry)
		}
	}

	info.Average = float64(total) / float64(len(info.Functions))

	return info
}

// countDecisionPoints counts decision-point matches within a function span.
// The declaration line itself is skipped so conditions in signatures (e.g.
// default arguments) do not inflate the score.
func countDecisionPoints(lines []string, fn FunctionSpan) int {
	start := fn.StartLine // 1-based; skipping the decl line itself.
	end := fn.EndLine
	if end > len(lines) {
		end = len(lines)
	}

	count := 0
	for i := start; i < end; i++ {
		for _, re := range decisionPoints {
			count += len(re.FindAllStringIndex(lines[i], -1))
		}
	}

	return count
}
