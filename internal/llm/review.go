// Package llm is the transport to the external AI reviewer: it assembles
// the review prompt, calls the configured provider with a bounded timeout,
// and parses the structured response into an AIReview. The rest of the
// pipeline only ever sees the parsed AIReview; provider selection, auth,
// retries, and response-format coercion all live here.
package llm

import "github.com/roasbeef/scrutiny/internal/analysis"

// IssueRef is an identity reference to a pre-analysis issue, used by the AI
// response to point at findings it validated or rejected.
type IssueRef struct {
	Category string `json:"category"`
	Line     int    `json:"line"`
	Message  string `json:"message,omitempty"`
}

// Key converts the reference into the dedup identity used by the merger.
func (r IssueRef) Key() analysis.IssueKey {
	return analysis.Issue{
		Category: analysis.Category(r.Category),
		Line:     r.Line,
		Message:  r.Message,
	}.Key()
}

// AIReview is the validated result of one AI review call. It is built from
// untrusted provider output: every field has survived parse validation, but
// consumers must still treat references as possibly dangling (the model may
// cite issues that do not exist).
type AIReview struct {
	// ValidatedIssues are pre-analysis issues the model confirmed.
	ValidatedIssues []IssueRef `json:"validated_issues"`

	// FalsePositives are pre-analysis issues the model judged not to be
	// real problems. The merger removes these from the final list.
	FalsePositives []IssueRef `json:"false_positives"`

	// NewFindings are issues only the model found, tagged SourceAI.
	NewFindings []analysis.Issue `json:"new_findings"`

	// Summary is the model's free-text assessment.
	Summary string `json:"summary"`

	// Recommendations are the model's improvement suggestions.
	Recommendations []string `json:"recommendations"`

	// Score is the model's own 0-100 quality estimate. Informational:
	// the final score is always recomputed from the merged issue list.
	Score int `json:"score"`

	// Provider and Model record which transport produced the review.
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// Partial is set when the response parsed only partially; Warnings
	// describe what was dropped or coerced.
	Partial  bool     `json:"partial,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Empty reports whether the review carries no usable content at all.
func (r AIReview) Empty() bool {
	return len(r.ValidatedIssues) == 0 && len(r.FalsePositives) == 0 &&
		len(r.NewFindings) == 0 && r.Summary == "" &&
		len(r.Recommendations) == 0
}
