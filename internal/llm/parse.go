package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roasbeef/scrutiny/internal/analysis"
)

// ParseStatus tags the outcome of parsing a provider response. The merge
// stage branches deterministically on this tag instead of relying on
// exceptions-style control flow.
type ParseStatus int

const (
	// ParseOK means the response parsed cleanly into the expected shape.
	ParseOK ParseStatus = iota

	// ParsePartial means some fields parsed but others were missing or
	// malformed; the review is usable with warnings.
	ParsePartial

	// ParseFailed means nothing usable could be recovered.
	ParseFailed
)

// String returns the status name.
func (s ParseStatus) String() string {
	switch s {
	case ParseOK:
		return "ok"
	case ParsePartial:
		return "partial"
	case ParseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// wireReview is the raw JSON shape expected from the model. Everything is
// optional and loosely typed; validation happens after decode.
type wireReview struct {
	ValidatedIssues []wireIssue `json:"validated_issues"`
	FalsePositives  []wireIssue `json:"false_positives"`
	NewFindings     []wireIssue `json:"new_findings"`
	Summary         string      `json:"summary"`
	Recommendations []string    `json:"recommendations"`
	Score           *int        `json:"score"`
}

// wireIssue is one loosely-typed issue or issue reference from the model.
type wireIssue struct {
	Category string `json:"category"`
	Severity string `json:"severity"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
	Reason   string `json:"reason"`
}

// ParseReview parses raw provider output into an AIReview with a tagged
// status. It tolerates markdown fences, leading prose, and truncated JSON;
// a response with no recoverable structure returns ParseFailed.
func ParseReview(raw string) (AIReview, ParseStatus) {
	jsonText := extractJSON(raw)
	if jsonText == "" {
		return AIReview{}, ParseFailed
	}

	var wire wireReview
	if err := json.Unmarshal([]byte(jsonText), &wire); err != nil {
		// One repair attempt: close truncated braces/brackets.
		repaired := repairTruncatedJSON(jsonText)
		if err := json.Unmarshal(
			[]byte(repaired), &wire,
		); err != nil {
			return AIReview{}, ParseFailed
		}
	}

	review, warnings := validateWire(wire)
	if review.Empty() {
		return AIReview{}, ParseFailed
	}

	review.Warnings = warnings
	if len(warnings) > 0 {
		review.Partial = true
		return review, ParsePartial
	}

	return review, ParseOK
}

// validateWire converts the raw wire shape into a validated AIReview,
// collecting a warning for every coercion or drop.
func validateWire(wire wireReview) (AIReview, []string) {
	var warnings []string

	review := AIReview{
		Summary:         strings.TrimSpace(wire.Summary),
		Recommendations: wire.Recommendations,
	}

	if wire.Score != nil {
		score := *wire.Score
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		review.Score = score
	}

	for _, w := range wire.ValidatedIssues {
		review.ValidatedIssues = append(
			review.ValidatedIssues, toRef(w),
		)
	}
	for _, w := range wire.FalsePositives {
		review.FalsePositives = append(
			review.FalsePositives, toRef(w),
		)
	}

	for i, w := range wire.NewFindings {
		issue, warn := toIssue(w, i)
		if warn != "" {
			warnings = append(warnings, warn)
		}
		if issue == nil {
			continue
		}
		review.NewFindings = append(review.NewFindings, *issue)
	}

	return review, warnings
}

// toRef converts a wire issue into an identity reference.
func toRef(w wireIssue) IssueRef {
	msg := w.Message
	if msg == "" {
		msg = w.Reason
	}
	return IssueRef{
		Category: w.Category,
		Line:     w.Line,
		Message:  msg,
	}
}

// toIssue converts a wire new-finding into an Issue tagged SourceAI. A
// finding with no message is dropped with a warning; an unknown severity is
// coerced to medium.
func toIssue(w wireIssue, idx int) (*analysis.Issue, string) {
	if strings.TrimSpace(w.Message) == "" {
		return nil, fmt.Sprintf(
			"dropped new finding %d: empty message", idx,
		)
	}

	severity := analysis.Severity(strings.ToLower(w.Severity))
	warn := ""
	if !severity.IsValid() {
		warn = fmt.Sprintf(
			"new finding %d: unknown severity %q coerced to "+
				"medium", idx, w.Severity,
		)
		severity = analysis.SeverityMedium
	}

	category := analysis.Category(w.Category)
	if category == "" {
		category = analysis.CategoryLLMFinding
	}

	return &analysis.Issue{
		Category: category,
		Severity: severity,
		Line:     w.Line,
		Message:  strings.TrimSpace(w.Message),
		Source:   analysis.SourceAI,
	}, warn
}

// extractJSON locates the JSON payload in raw model output: first a ```json
// fence, then a bare ``` fence, then the first '{' onward. Returns "" when
// no candidate exists.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(raw, fence)
		if start == -1 {
			continue
		}
		body := raw[start+len(fence):]

		// A missing closing fence means the response was truncated;
		// take everything and let repair handle the tail.
		if end := strings.Index(body, "```"); end != -1 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}

	if start := strings.Index(raw, "{"); start != -1 {
		return raw[start:]
	}

	return ""
}

// repairTruncatedJSON appends the closing brackets and braces a truncated
// response is missing, stripping a trailing comma first. Counts ignore
// string context, which is good enough for the one repair attempt we make.
func repairTruncatedJSON(text string) string {
	text = strings.TrimSpace(strings.TrimRight(
		strings.TrimSpace(text), ",",
	))

	openBraces := strings.Count(text, "{") - strings.Count(text, "}")
	openBrackets := strings.Count(text, "[") - strings.Count(text, "]")

	if openBrackets > 0 {
		text += strings.Repeat("]", openBrackets)
	}
	if openBraces > 0 {
		text += strings.Repeat("}", openBraces)
	}

	return text
}
