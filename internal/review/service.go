package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/roasbeef/scrutiny/internal/analysis"
	"github.com/roasbeef/scrutiny/internal/config"
	"github.com/roasbeef/scrutiny/internal/llm"
	"github.com/roasbeef/scrutiny/internal/store"
)

// Service is the review service actor behavior: it validates submissions,
// creates the persistent record, hands the pipeline work to the pool, and
// serves reads from the store.
type Service struct {
	cfg   config.Config
	store store.ReviewStore
	pool  *Pool

	log *slog.Logger
}

// ServiceConfig holds configuration for the review service.
type ServiceConfig struct {
	// Cfg is the daemon configuration snapshot.
	Cfg config.Config

	// Store is the review persistence layer.
	Store store.ReviewStore

	// Reviewer is the AI transport; nil disables the AI stage.
	Reviewer llm.Reviewer
}

// NewService creates a review service. Start must be called before
// submissions are accepted.
func NewService(cfg ServiceConfig) *Service {
	svc := &Service{
		cfg:   cfg.Cfg,
		store: cfg.Store,
		log:   slog.With("component", "review-service"),
	}

	orch := NewOrchestrator(
		cfg.Cfg, cfg.Reviewer, &storeRecorder{store: cfg.Store},
	)
	svc.pool = NewPool(cfg.Cfg.PoolSize, orch, svc.persistOutcome)

	return svc
}

// Start launches the pipeline workers. The context bounds every review the
// service runs.
func (s *Service) Start(ctx context.Context) {
	s.pool.Start(ctx, s.cfg.PoolSize)
}

// OnStop implements actor.Stoppable: drain the pool on actor shutdown.
func (s *Service) OnStop(_ context.Context) error {
	s.pool.Stop()
	return nil
}

// Receive implements actor.ActorBehavior by dispatching to type-specific
// handlers.
func (s *Service) Receive(
	ctx context.Context, msg ReviewRequest,
) fn.Result[ReviewResponse] {

	switch m := msg.(type) {
	case SubmitReviewRequest:
		resp := s.handleSubmit(ctx, m)
		return fn.Ok[ReviewResponse](resp)

	case GetReviewRequest:
		resp := s.handleGet(ctx, m)
		return fn.Ok[ReviewResponse](resp)

	case ListReviewsRequest:
		resp := s.handleList(ctx, m)
		return fn.Ok[ReviewResponse](resp)

	case DeleteReviewRequest:
		resp := s.handleDelete(ctx, m)
		return fn.Ok[ReviewResponse](resp)

	case GetStatsRequest:
		resp := s.handleStats(ctx)
		return fn.Ok[ReviewResponse](resp)

	default:
		return fn.Err[ReviewResponse](fmt.Errorf(
			"unknown message type: %T", msg,
		))
	}
}

// handleSubmit validates the submission, creates the persistent record, and
// enqueues the pipeline run.
func (s *Service) handleSubmit(ctx context.Context,
	req SubmitReviewRequest) SubmitReviewResponse {

	mode := req.Mode
	if mode == "" {
		mode = ModeFull
	}

	unit := analysis.NewSourceUnit(
		req.FileName, analysis.Language(req.Language), req.Content,
	)

	// Reject bad input before anything is persisted.
	if err := validateSubmission(unit, s.cfg.MaxFileSize); err != nil {
		return SubmitReviewResponse{Error: err}
	}

	id := newReviewID()

	_, err := s.store.CreateReview(ctx, store.CreateReviewParams{
		ID:       id,
		FileName: unit.FileName,
		Language: string(unit.Language),
		Size:     int64(unit.Size),
		Mode:     string(mode),
		State:    string(StateReceived),
	})
	if err != nil {
		return SubmitReviewResponse{Error: fmt.Errorf(
			"failed to create review record: %w", err,
		)}
	}

	done, err := s.pool.Submit(id, unit, mode)
	if err != nil {
		// The record exists but will never run; mark it failed so
		// it does not linger as active.
		if uerr := s.store.UpdateReviewState(
			ctx, id, string(StateFailed),
		); uerr != nil {
			s.log.WarnContext(ctx, "Failed to mark review failed",
				"review_id", id, "err", uerr)
		}
		return SubmitReviewResponse{Error: err}
	}

	s.log.InfoContext(ctx, "Review submitted", "review_id", id,
		"file", unit.FileName, "mode", mode)

	return SubmitReviewResponse{ReviewID: id, Done: done}
}

// handleGet serves a review from the store, rebuilding the full result for
// completed reviews.
func (s *Service) handleGet(ctx context.Context,
	req GetReviewRequest) GetReviewResponse {

	rec, err := s.store.GetReview(ctx, req.ID)
	if err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			err = fmt.Errorf("%w: %s", ErrNotFound, req.ID)
		}
		return GetReviewResponse{Error: err}
	}

	resp := GetReviewResponse{Summary: summaryFromRecord(rec)}

	// Result blobs only exist once the review completed.
	if State(rec.State) == StateDone && rec.IssuesJSON != "" {
		final, err := finalFromRecord(rec)
		if err != nil {
			return GetReviewResponse{Error: err}
		}
		resp.Review = final
	}

	return resp
}

// handleList serves a filtered, paginated listing.
func (s *Service) handleList(ctx context.Context,
	req ListReviewsRequest) ListReviewsResponse {

	records, err := s.store.ListReviews(ctx, store.ListReviewsQuery{
		Language: req.Language,
		State:    req.State,
		MinScore: req.MinScore,
		MaxScore: req.MaxScore,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		return ListReviewsResponse{Error: err}
	}

	summaries := make([]Summary, len(records))
	for i, rec := range records {
		summaries[i] = summaryFromRecord(rec)
	}

	return ListReviewsResponse{Reviews: summaries}
}

// handleDelete removes a review record.
func (s *Service) handleDelete(ctx context.Context,
	req DeleteReviewRequest) DeleteReviewResponse {

	err := s.store.DeleteReview(ctx, req.ID)
	if errors.Is(err, store.ErrReviewNotFound) {
		err = fmt.Errorf("%w: %s", ErrNotFound, req.ID)
	}

	return DeleteReviewResponse{Error: err}
}

// handleStats serves the aggregate rollup.
func (s *Service) handleStats(ctx context.Context) GetStatsResponse {
	stats, err := s.store.GetReviewStats(ctx)
	if err != nil {
		return GetStatsResponse{Error: err}
	}

	return GetStatsResponse{Stats: Stats{
		TotalCount:          stats.TotalCount,
		CompletedCount:      stats.CompletedCount,
		FailedCount:         stats.FailedCount,
		AverageScore:        stats.AverageScore,
		AverageProcessingMS: stats.AverageProcessingMS,
		TotalCritical:       stats.TotalCritical,
		TotalMedium:         stats.TotalMedium,
		TotalLow:            stats.TotalLow,
		ByLanguage:          stats.ByLanguage,
	}}
}

// persistOutcome writes terminal pipeline outcomes back to the store.
func (s *Service) persistOutcome(ctx context.Context, id string,
	outcome Outcome) {

	if outcome.Err != nil {
		err := s.store.UpdateReviewState(ctx, id, string(StateFailed))
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to persist failure",
				"review_id", id, "err", err)
		}
		return
	}

	params, err := saveParamsFromFinal(outcome.Review)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to encode review result",
			"review_id", id, "err", err)
		return
	}

	if err := s.store.SaveReviewResult(ctx, params); err != nil {
		s.log.ErrorContext(ctx, "Failed to persist review result",
			"review_id", id, "err", err)
	}
}

// validateSubmission applies the pre-persistence input checks.
func validateSubmission(unit analysis.SourceUnit, maxFileSize int) error {
	if unit.FileName == "" {
		return inputError("file name required")
	}
	if len(unit.Text) == 0 {
		return inputError("empty source content")
	}
	if unit.Size > maxFileSize {
		return inputError("file size %d exceeds limit %d",
			unit.Size, maxFileSize)
	}
	if !unit.Language.IsSupported() {
		return inputError("unsupported language %q", unit.Language)
	}
	return nil
}

// storeRecorder adapts the store to the orchestrator's StateRecorder hook.
type storeRecorder struct {
	store store.ReviewStore
}

// RecordState implements StateRecorder.
func (r *storeRecorder) RecordState(ctx context.Context, id string,
	state State) error {

	return r.store.UpdateReviewState(ctx, id, string(state))
}
