// Package review implements the review pipeline: the state machine driving
// one review from submission to completion, the orchestrator sequencing
// pre-analysis, context building, the AI call, and the merge stage that
// reconciles both issue sources into one scored report.
package review

import (
	"time"

	"github.com/roasbeef/scrutiny/internal/analysis"
	"github.com/roasbeef/scrutiny/internal/llm"
)

// Mode selects which pipeline path a review takes.
type Mode string

const (
	// ModeQuick runs pre-analysis and scoring only; no AI involved.
	ModeQuick Mode = "quick"

	// ModeFull runs the complete pipeline including the AI review.
	ModeFull Mode = "full"
)

// State is one phase of the review lifecycle.
type State string

const (
	StateReceived     State = "received"
	StatePreAnalyzed  State = "pre_analyzed"
	StateContextBuilt State = "context_built"
	StateAIReviewed   State = "ai_reviewed"
	StateMerged       State = "merged"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// IsTerminal reports whether the state ends the lifecycle.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// StateTransition is one entry in a review's append-only transition
// history.
type StateTransition struct {
	From  State     `json:"from"`
	To    State     `json:"to"`
	Event string    `json:"event"`
	At    time.Time `json:"at"`
}

// SeverityCounts tallies merged issues by severity.
type SeverityCounts struct {
	Critical int `json:"critical"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Total returns the sum across severities.
func (c SeverityCounts) Total() int {
	return c.Critical + c.Medium + c.Low
}

// CountBySeverity tallies a merged issue list.
func CountBySeverity(issues []analysis.Issue) SeverityCounts {
	var counts SeverityCounts
	for _, issue := range issues {
		switch issue.Severity {
		case analysis.SeverityCritical:
			counts.Critical++
		case analysis.SeverityMedium:
			counts.Medium++
		case analysis.SeverityLow:
			counts.Low++
		}
	}
	return counts
}

// FinalReview is the complete result of one review: the pre-analysis, the
// AI review when the full path ran, the merged deduplicated issue list, and
// the quality score. Immutable once built; this is the unit persisted and
// returned to callers.
type FinalReview struct {
	// ID is the unique review identifier.
	ID string `json:"id"`

	// FileName, Language, and Size describe the reviewed source unit.
	FileName string            `json:"file_name"`
	Language analysis.Language `json:"language"`
	Size     int               `json:"size"`

	// Mode is the pipeline path that produced this review.
	Mode Mode `json:"mode"`

	// State is the terminal lifecycle state.
	State State `json:"state"`

	// Pre is the deterministic pre-analysis aggregate.
	Pre analysis.PreAnalysis `json:"pre_analysis"`

	// AI is the parsed AI review; nil on the quick path or when the AI
	// stage was skipped.
	AI *llm.AIReview `json:"ai_review,omitempty"`

	// Issues is the merged, deduplicated, severity-sorted issue list.
	Issues []analysis.Issue `json:"issues"`

	// Score is the 0-100 quality score computed from Issues.
	Score int `json:"score"`

	// Counts tallies Issues by severity.
	Counts SeverityCounts `json:"counts"`

	// Degraded lists the stages that degraded during processing (e.g.
	// "ai_skipped", or analyzer stage names).
	Degraded []string `json:"degraded,omitempty"`

	// Transitions is the state machine history for this review.
	Transitions []StateTransition `json:"transitions"`

	// Provider and Model record the AI transport used, when any.
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// ProcessingMS is the elapsed wall time from received to terminal,
	// in milliseconds.
	ProcessingMS int64 `json:"processing_ms"`

	// CreatedAt is when the review was submitted.
	CreatedAt time.Time `json:"created_at"`
}
