package analysis

import "strings"

// Severity classifies how strongly an issue weighs on the final quality
// score. Ordering matters: critical sorts before medium sorts before low.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns the sort rank of a severity, lowest rank first. Unknown
// severities rank after low so malformed AI input sorts last rather than
// panicking.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	default:
		return 3
	}
}

// IsValid returns true if the severity is a recognized value.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityMedium, SeverityLow:
		return true
	default:
		return false
	}
}

// Category names the kind of defect an issue describes.
type Category string

const (
	CategorySecret               Category = "hardcoded_secret"
	CategorySQLInjection         Category = "sql_injection"
	CategoryMissingErrorHandling Category = "missing_error_handling"
	CategoryLongFunction         Category = "long_function"
	CategoryLongLine             Category = "long_line"
	CategoryBareExcept           Category = "bare_except"
	CategoryDebugStatement       Category = "debug_statement"
	CategoryTodoComment          Category = "todo_comment"
	CategoryLLMFinding           Category = "llm_finding"
)

// IssueSource records which half of the pipeline produced an issue.
type IssueSource string

const (
	// SourcePreAnalysis marks issues produced by the deterministic
	// detectors in this package.
	SourcePreAnalysis IssueSource = "pre_analysis"

	// SourceAI marks issues produced by the external AI reviewer.
	SourceAI IssueSource = "ai"
)

// Issue is one concrete finding against the source text. Issues are
// immutable once created; the merge stage builds new lists rather than
// editing these in place.
type Issue struct {
	// Category is the defect classification.
	Category Category `json:"category"`

	// Severity is the impact classification.
	Severity Severity `json:"severity"`

	// Line is the 1-based line number, or 0 when the issue is not tied
	// to a specific line.
	Line int `json:"line,omitempty"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// Snippet is the offending source line, trimmed, for display.
	Snippet string `json:"snippet,omitempty"`

	// Source records which pipeline stage found the issue.
	Source IssueSource `json:"source"`
}

// keyPrefixLen bounds how much of the normalized message participates in
// issue identity. Long messages from different wordings of the same finding
// still collide on their shared prefix.
const keyPrefixLen = 24

// IssueKey is the identity of an issue for deduplication: category, line,
// and a normalized prefix of the message. Two issues with equal keys are the
// same finding regardless of which source produced them.
type IssueKey struct {
	Category Category
	Line     int
	Prefix   string
}

// Key returns the deduplication identity of the issue.
func (i Issue) Key() IssueKey {
	return IssueKey{
		Category: i.Category,
		Line:     i.Line,
		Prefix:   normalizeMessage(i.Message),
	}
}

// normalizeMessage lowercases, collapses whitespace, and truncates a message
// to the identity prefix length.
func normalizeMessage(msg string) string {
	msg = strings.ToLower(strings.Join(strings.Fields(msg), " "))
	if len(msg) > keyPrefixLen {
		msg = msg[:keyPrefixLen]
	}
	return msg
}
