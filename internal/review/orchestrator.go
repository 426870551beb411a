package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roasbeef/scrutiny/internal/analysis"
	"github.com/roasbeef/scrutiny/internal/config"
	"github.com/roasbeef/scrutiny/internal/llm"
	"github.com/roasbeef/scrutiny/internal/prompt"
)

// degradedAISkipped marks a full-path review that fell back to pre-analysis
// scoring because the AI response was unusable.
const degradedAISkipped = "ai_skipped"

// StateRecorder receives state changes as a review progresses, letting the
// caller persist intermediate states. A nil recorder is valid.
type StateRecorder interface {
	RecordState(ctx context.Context, id string, state State) error
}

// Orchestrator sequences one review through the pipeline: pre-analysis,
// then on the full path context building and the AI call, then the merge
// that produces the final scored report. Each review runs on its own state
// machine; the orchestrator itself is stateless and safe for concurrent
// use.
type Orchestrator struct {
	cfg      config.Config
	analyzer *analysis.Analyzer
	builder  *prompt.Builder
	merger   *Merger

	// reviewer is nil when no AI provider is configured; full-path
	// requests then degrade to quick-path scoring.
	reviewer llm.Reviewer

	recorder StateRecorder

	log *slog.Logger
}

// NewOrchestrator wires the pipeline stages. The reviewer may be nil.
func NewOrchestrator(cfg config.Config, reviewer llm.Reviewer,
	recorder StateRecorder) *Orchestrator {

	return &Orchestrator{
		cfg: cfg,
		analyzer: analysis.NewAnalyzer(analysis.Config{
			ComplexityThreshold:   cfg.ComplexityThreshold,
			LongLineThreshold:     cfg.LongLineThreshold,
			LongFunctionThreshold: cfg.LongFunctionThreshold,
		}),
		builder:  prompt.NewBuilder(cfg.IssueDisplayCap),
		merger:   NewMerger(cfg.Weights),
		reviewer: reviewer,
		recorder: recorder,
		log:      slog.With("component", "review"),
	}
}

// newReviewID mints a fresh review identifier.
func newReviewID() string {
	return uuid.NewString()
}

// ValidateInput rejects submissions the pipeline cannot process. Called
// before a review record is created.
func (o *Orchestrator) ValidateInput(unit analysis.SourceUnit) error {
	return validateSubmission(unit, o.cfg.MaxFileSize)
}

// Run processes one review end to end and returns the final aggregate. On
// the full path a transport failure fails the review, while a response that
// arrived but could not be used degrades to quick-path scoring with an
// "ai_skipped" marker.
func (o *Orchestrator) Run(ctx context.Context, id string,
	unit analysis.SourceUnit, mode Mode) (*FinalReview, error) {

	if id == "" {
		id = newReviewID()
	}

	start := time.Now()
	machine := NewMachine()

	log := o.log.With("review_id", id, "file", unit.FileName,
		"mode", mode)

	fail := func(cause error) (*FinalReview, error) {
		class := Classify(cause)
		if _, err := machine.Apply(FailedEvent{
			Class:  class,
			Reason: cause.Error(),
		}); err != nil {
			log.ErrorContext(ctx, "Failure transition rejected",
				"err", err)
		}
		o.record(ctx, id, machine.State())

		log.ErrorContext(ctx, "Review failed", "class", class,
			"err", cause)

		return nil, cause
	}

	if err := o.ValidateInput(unit); err != nil {
		return fail(err)
	}

	// Stage 1: deterministic pre-analysis. Never fails; individual
	// stages degrade.
	pre := o.analyzer.Run(ctx, unit)
	if _, err := machine.Apply(PreAnalyzedEvent{
		Degraded: pre.Degraded,
	}); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrReviewFailed, err))
	}
	o.record(ctx, id, machine.State())

	log.InfoContext(ctx, "Pre-analysis complete",
		"issues", len(pre.Issues),
		"functions", pre.Structure.FunctionCount,
		"degraded", pre.Degraded)

	var (
		aiReview *llm.AIReview
		degraded = append([]string(nil), pre.Degraded...)
		provider string
		model    string
	)

	if mode == ModeFull && o.reviewer != nil {
		contextText := o.builder.Build(unit, pre)
		if _, err := machine.Apply(ContextBuiltEvent{}); err != nil {
			return fail(fmt.Errorf("%w: %v", ErrReviewFailed, err))
		}
		o.record(ctx, id, machine.State())

		review, err := o.reviewer.Review(ctx, unit, contextText)
		switch {
		case err == nil:
			if _, err := machine.Apply(AIReviewedEvent{
				Partial: review.Partial,
			}); err != nil {
				return fail(fmt.Errorf("%w: %v",
					ErrReviewFailed, err))
			}
			o.record(ctx, id, machine.State())

			aiReview = &review
			provider = review.Provider
			model = review.Model

		case errors.Is(err, llm.ErrMalformedResponse):
			// The provider answered but the response was
			// unusable. Continue with pre-analysis data only.
			log.WarnContext(ctx, "AI response unusable, "+
				"continuing without it", "err", err)
			degraded = append(degraded, degradedAISkipped)

		default:
			return fail(fmt.Errorf("%w: %v", ErrAIUnavailable,
				err))
		}
	} else if mode == ModeFull {
		// Full path requested with no provider configured.
		log.InfoContext(ctx, "No AI provider configured, "+
			"running quick-path scoring")
		degraded = append(degraded, degradedAISkipped)
	}

	// Stage 3: merge. The quick path merges against a zero AIReview,
	// which leaves the pre-analysis issues unchanged.
	var ai llm.AIReview
	if aiReview != nil {
		ai = *aiReview
	}
	result := o.merger.Merge(pre.Issues, ai)

	if _, err := machine.Apply(MergedEvent{
		Score: result.Score,
	}); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrReviewFailed, err))
	}
	o.record(ctx, id, machine.State())

	if _, err := machine.Apply(CompletedEvent{}); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrReviewFailed, err))
	}
	o.record(ctx, id, machine.State())

	final := &FinalReview{
		ID:           id,
		FileName:     unit.FileName,
		Language:     unit.Language,
		Size:         unit.Size,
		Mode:         mode,
		State:        machine.State(),
		Pre:          pre,
		AI:           aiReview,
		Issues:       result.Issues,
		Score:        result.Score,
		Counts:       result.Counts,
		Degraded:     degraded,
		Transitions:  machine.History(),
		Provider:     provider,
		Model:        model,
		ProcessingMS: time.Since(start).Milliseconds(),
		CreatedAt:    start.UTC(),
	}

	log.InfoContext(ctx, "Review complete", "score", final.Score,
		"issues", len(final.Issues),
		"removed", result.Removed, "added", result.Added,
		"elapsed_ms", final.ProcessingMS)

	return final, nil
}

// record persists an intermediate state when a recorder is attached.
// Persistence failures are logged, not fatal: the in-memory pipeline is the
// source of truth until the final result is saved.
func (o *Orchestrator) record(ctx context.Context, id string, state State) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordState(ctx, id, state); err != nil {
		o.log.WarnContext(ctx, "Failed to record review state",
			"review_id", id, "state", state, "err", err)
	}
}
