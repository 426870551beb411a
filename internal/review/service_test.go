package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roasbeef/scrutiny/internal/config"
	"github.com/roasbeef/scrutiny/internal/llm"
	"github.com/roasbeef/scrutiny/internal/store"
)

// newTestService creates a review service backed by a fresh mock store and
// the given reviewer (nil disables the AI stage). Workers are started and
// stopped with the test.
func newTestService(t *testing.T, reviewer llm.Reviewer) (*Service,
	*store.MockStore) {

	t.Helper()

	ms := store.NewMockStore()
	svc := NewService(ServiceConfig{
		Cfg:      config.Default(),
		Store:    ms,
		Reviewer: reviewer,
	})
	svc.Start(context.Background())
	t.Cleanup(func() {
		require.NoError(t, svc.OnStop(context.Background()))
	})

	return svc, ms
}

// submitAndWait submits a review through the service and blocks until the
// pipeline delivers its terminal outcome.
func submitAndWait(t *testing.T, svc *Service,
	req SubmitReviewRequest) (string, Outcome) {

	t.Helper()

	result := svc.Receive(context.Background(), req)
	resp, err := result.Unpack()
	require.NoError(t, err)

	subResp := resp.(SubmitReviewResponse)
	require.NoError(t, subResp.Error)
	require.NotEmpty(t, subResp.ReviewID)

	select {
	case outcome := <-subResp.Done:
		return subResp.ReviewID, outcome
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for review outcome")
		return "", Outcome{}
	}
}

// TestServiceSubmitAndGet verifies the submit/get round trip: the review
// runs to completion, persists, and reads back with the full result.
func TestServiceSubmitAndGet(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	id, outcome := submitAndWait(t, svc, SubmitReviewRequest{
		FileName: "app.py",
		Content:  secretSource,
		Mode:     ModeQuick,
	})
	require.NoError(t, outcome.Err)
	require.Equal(t, 85, outcome.Review.Score)

	result := svc.Receive(ctx, GetReviewRequest{ID: id})
	resp, err := result.Unpack()
	require.NoError(t, err)

	getResp := resp.(GetReviewResponse)
	require.NoError(t, getResp.Error)
	require.Equal(t, StateDone, getResp.Summary.State)
	require.Equal(t, "app.py", getResp.Summary.FileName)
	require.Equal(t, "python", getResp.Summary.Language)
	require.NotNil(t, getResp.Summary.Score)
	require.EqualValues(t, 85, *getResp.Summary.Score)

	require.NotNil(t, getResp.Review)
	require.Len(t, getResp.Review.Issues, 1)
	require.Equal(t, StateDone, getResp.Review.State)
}

// TestServiceSubmitInvalid verifies bad submissions are rejected before any
// record is created.
func TestServiceSubmitInvalid(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	result := svc.Receive(ctx, SubmitReviewRequest{
		FileName: "app.py",
		Content:  "",
	})
	resp, err := result.Unpack()
	require.NoError(t, err)

	subResp := resp.(SubmitReviewResponse)
	require.ErrorIs(t, subResp.Error, ErrInputInvalid)

	// Nothing was persisted.
	listResult := svc.Receive(ctx, ListReviewsRequest{})
	listResp, err := listResult.Unpack()
	require.NoError(t, err)
	require.Empty(t, listResp.(ListReviewsResponse).Reviews)
}

// TestServiceGetUnknown verifies lookups for unknown IDs report not-found.
func TestServiceGetUnknown(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)

	result := svc.Receive(context.Background(), GetReviewRequest{
		ID: "no-such-review",
	})
	resp, err := result.Unpack()
	require.NoError(t, err)

	require.ErrorIs(t, resp.(GetReviewResponse).Error, ErrNotFound)
}

// TestServiceListAndStats verifies the listing and the aggregate rollup
// after a pair of completed reviews.
func TestServiceListAndStats(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, outcome := submitAndWait(t, svc, SubmitReviewRequest{
		FileName: "first.py",
		Content:  secretSource,
		Mode:     ModeQuick,
	})
	require.NoError(t, outcome.Err)

	_, outcome = submitAndWait(t, svc, SubmitReviewRequest{
		FileName: "second.py",
		Content:  "x = 1\n",
		Mode:     ModeQuick,
	})
	require.NoError(t, outcome.Err)

	listResult := svc.Receive(ctx, ListReviewsRequest{})
	listResp, err := listResult.Unpack()
	require.NoError(t, err)

	reviews := listResp.(ListReviewsResponse).Reviews
	require.Len(t, reviews, 2)
	for _, summary := range reviews {
		require.Equal(t, StateDone, summary.State)
	}

	statsResult := svc.Receive(ctx, GetStatsRequest{})
	statsResp, err := statsResult.Unpack()
	require.NoError(t, err)

	stats := statsResp.(GetStatsResponse).Stats
	require.EqualValues(t, 2, stats.TotalCount)
	require.EqualValues(t, 2, stats.CompletedCount)
	require.Zero(t, stats.FailedCount)
	require.EqualValues(t, 2, stats.ByLanguage["python"])

	// 85 for the secret file, 100 for the clean one.
	require.InDelta(t, 92.5, stats.AverageScore, 0.01)
}

// TestServiceLanguageFilter verifies the listing honors the language filter.
func TestServiceLanguageFilter(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, outcome := submitAndWait(t, svc, SubmitReviewRequest{
		FileName: "main.go",
		Content:  "package main\n",
		Mode:     ModeQuick,
	})
	require.NoError(t, outcome.Err)

	_, outcome = submitAndWait(t, svc, SubmitReviewRequest{
		FileName: "app.py",
		Content:  "x = 1\n",
		Mode:     ModeQuick,
	})
	require.NoError(t, outcome.Err)

	result := svc.Receive(ctx, ListReviewsRequest{Language: "go"})
	resp, err := result.Unpack()
	require.NoError(t, err)

	reviews := resp.(ListReviewsResponse).Reviews
	require.Len(t, reviews, 1)
	require.Equal(t, "main.go", reviews[0].FileName)
}

// TestServiceDelete verifies deletion and that a second delete reports
// not-found.
func TestServiceDelete(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	id, outcome := submitAndWait(t, svc, SubmitReviewRequest{
		FileName: "app.py",
		Content:  "x = 1\n",
		Mode:     ModeQuick,
	})
	require.NoError(t, outcome.Err)

	result := svc.Receive(ctx, DeleteReviewRequest{ID: id})
	resp, err := result.Unpack()
	require.NoError(t, err)
	require.NoError(t, resp.(DeleteReviewResponse).Error)

	result = svc.Receive(ctx, DeleteReviewRequest{ID: id})
	resp, err = result.Unpack()
	require.NoError(t, err)
	require.ErrorIs(t, resp.(DeleteReviewResponse).Error, ErrNotFound)

	result = svc.Receive(ctx, GetReviewRequest{ID: id})
	resp, err = result.Unpack()
	require.NoError(t, err)
	require.ErrorIs(t, resp.(GetReviewResponse).Error, ErrNotFound)
}

// TestServiceFullModeWithReviewer verifies the service threads a configured
// reviewer through the pipeline and persists its verdicts.
func TestServiceFullModeWithReviewer(t *testing.T) {
	t.Parallel()

	reviewer := &stubReviewer{
		review: llm.AIReview{Summary: "Looks fine."},
	}
	svc, _ := newTestService(t, reviewer)

	id, outcome := submitAndWait(t, svc, SubmitReviewRequest{
		FileName: "app.py",
		Content:  secretSource,
	})
	require.NoError(t, outcome.Err)
	require.Equal(t, "stub", outcome.Review.Provider)

	result := svc.Receive(context.Background(), GetReviewRequest{ID: id})
	resp, err := result.Unpack()
	require.NoError(t, err)

	getResp := resp.(GetReviewResponse)
	require.NoError(t, getResp.Error)
	require.Equal(t, "stub", getResp.Summary.Provider)
	require.Equal(t, "stub-model", getResp.Summary.Model)
	require.NotNil(t, getResp.Review)
	require.NotNil(t, getResp.Review.AI)
	require.Equal(t, "Looks fine.", getResp.Review.AI.Summary)
}
